// Package queue implements jjq's queue state: sequence IDs, the
// bookmark-backed queue/failed index, the serialized ID allocator, and
// the push pipeline.
package queue

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/steveyegge/jjq/internal/jj"
)

// MaxSeqID is the largest sequence ID; the allocator fails once the
// counter reaches it.
const MaxSeqID = 999999

var (
	queueRe  = regexp.MustCompile(`^jjq/queue/(\d{6})$`)
	failedRe = regexp.MustCompile(`^jjq/failed/(\d{6})$`)
)

// ParseSeqID validates user input as a sequence ID.
func ParseSeqID(input string) (int, error) {
	if input == "" {
		return 0, fmt.Errorf("invalid sequence ID: empty")
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid sequence ID: '%s' (must be numeric)", input)
		}
	}
	id, err := strconv.Atoi(input)
	if err != nil || id < 1 || id > MaxSeqID {
		return 0, fmt.Errorf("invalid sequence ID: %s (must be 1-%d)", input, MaxSeqID)
	}
	return id, nil
}

// FormatSeqID renders a sequence ID zero-padded to six digits.
func FormatSeqID(id int) string {
	return fmt.Sprintf("%06d", id)
}

// Bookmark returns the queue bookmark name for an ID.
func Bookmark(id int) string {
	return "jjq/queue/" + FormatSeqID(id)
}

// FailedBookmark returns the failed bookmark name for an ID.
func FailedBookmark(id int) string {
	return "jjq/failed/" + FormatSeqID(id)
}

// WorkspaceName returns the sandbox workspace name for an ID.
func WorkspaceName(id int) string {
	return "jjq-run-" + FormatSeqID(id)
}

// Index is a read-only view over the queue and failed bookmarks.
type Index struct {
	JJ jj.Client
}

func idsFromBookmarks(names []string, re *regexp.Regexp) []int {
	var ids []int
	for _, name := range names {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Queue returns queued sequence IDs in ascending (FIFO) order.
func (ix Index) Queue() ([]int, error) {
	names, err := ix.JJ.BookmarksGlob("jjq/queue/??????")
	if err != nil {
		return nil, err
	}
	ids := idsFromBookmarks(names, queueRe)
	sort.Ints(ids)
	return ids, nil
}

// Failed returns failed sequence IDs in descending order (most recent
// first, for display).
func (ix Index) Failed() ([]int, error) {
	names, err := ix.JJ.BookmarksGlob("jjq/failed/??????")
	if err != nil {
		return nil, err
	}
	ids := idsFromBookmarks(names, failedRe)
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	return ids, nil
}

// Next returns the lowest queued sequence ID, if any.
func (ix Index) Next() (int, bool, error) {
	ids, err := ix.Queue()
	if err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// QueueItemExists reports whether a queue bookmark exists for id.
func (ix Index) QueueItemExists(id int) (bool, error) {
	return ix.JJ.BookmarkExists(Bookmark(id))
}

// FailedItemExists reports whether a failed bookmark exists for id.
func (ix Index) FailedItemExists(id int) (bool, error) {
	return ix.JJ.BookmarkExists(FailedBookmark(id))
}

// IDFromBookmark extracts the numeric ID from a jjq queue or failed
// bookmark name; it returns 0 for anything else.
func IDFromBookmark(name string) int {
	for _, re := range []*regexp.Regexp{queueRe, failedRe} {
		if m := re.FindStringSubmatch(name); m != nil {
			id, _ := strconv.Atoi(m[1])
			return id
		}
	}
	return 0
}
