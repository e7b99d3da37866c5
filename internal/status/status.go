// Package status projects queue state into value objects suitable for
// human rendering or JSON serialization.
package status

import (
	"strings"

	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/jj"
	"github.com/steveyegge/jjq/internal/lock"
	"github.com/steveyegge/jjq/internal/queue"
	"github.com/steveyegge/jjq/internal/trailer"
)

// QueueItem is one queued candidate.
type QueueItem struct {
	ID          int    `json:"id"`
	ChangeID    string `json:"change_id"`
	CommitID    string `json:"commit_id"`
	Description string `json:"description"`
}

// FailedItem is one failed landing attempt, reconstructed from the
// failed bookmark's trailer metadata.
type FailedItem struct {
	ID                int    `json:"id"`
	CandidateChangeID string `json:"candidate_change_id"`
	CandidateCommitID string `json:"candidate_commit_id"`
	Description       string `json:"description"`
	TrunkCommitID     string `json:"trunk_commit_id"`
	WorkspacePath     string `json:"workspace_path"`
	FailureReason     string `json:"failure_reason"`
}

// Report is the full queue overview.
type Report struct {
	Running bool         `json:"running"`
	Queue   []QueueItem  `json:"queue"`
	Failed  []FailedItem `json:"failed"`
}

// Projector builds status records for one repository.
type Projector struct {
	JJ    jj.Client
	Locks *lock.Manager
}

// Project builds the full report: run-lock probe, queued items in FIFO
// order, failed items most recent first.
func (p Projector) Project() (Report, error) {
	running, err := p.Locks.IsHeld(lock.Run)
	if err != nil {
		return Report{}, err
	}

	ix := queue.Index{JJ: p.JJ}

	queueIDs, err := ix.Queue()
	if err != nil {
		return Report{}, err
	}
	failedIDs, err := ix.Failed()
	if err != nil {
		return Report{}, err
	}

	report := Report{Running: running, Queue: []QueueItem{}, Failed: []FailedItem{}}
	for _, id := range queueIDs {
		item, err := p.QueueItem(id)
		if err != nil {
			return Report{}, err
		}
		report.Queue = append(report.Queue, item)
	}
	for _, id := range failedIDs {
		item, err := p.FailedItem(id)
		if err != nil {
			return Report{}, err
		}
		report.Failed = append(report.Failed, item)
	}
	return report, nil
}

// QueueItem resolves a queued entry from its bookmark target.
func (p Projector) QueueItem(id int) (QueueItem, error) {
	revset := jj.BookmarkRevset(queue.Bookmark(id))
	rev, err := p.JJ.Resolve(revset)
	if err != nil {
		return QueueItem{}, err
	}
	desc, err := p.JJ.Description(revset)
	if err != nil {
		return QueueItem{}, err
	}
	return QueueItem{
		ID:          id,
		ChangeID:    rev.ChangeID,
		CommitID:    rev.CommitID,
		Description: firstLine(desc),
	}, nil
}

// FailedItem parses a failed entry's trailers and resolves the original
// candidate's first description line, so renderings show the user's
// message rather than the synthetic "Failed: ..." one.
func (p Projector) FailedItem(id int) (FailedItem, error) {
	revset := jj.BookmarkRevset(queue.FailedBookmark(id))
	desc, err := p.JJ.Description(revset)
	if err != nil {
		return FailedItem{}, err
	}
	trailers := trailer.Parse(desc)

	item := FailedItem{
		ID:                id,
		CandidateChangeID: trailers[trailer.Candidate],
		CandidateCommitID: trailers[trailer.CandidateCommit],
		TrunkCommitID:     trailers[trailer.Trunk],
		WorkspacePath:     trailers[trailer.Workspace],
		FailureReason:     trailers[trailer.Failure],
	}
	if item.CandidateChangeID != "" {
		if orig, err := p.JJ.Description(item.CandidateChangeID); err == nil {
			item.Description = firstLine(orig)
		}
	}
	return item, nil
}

// Find locates an item by sequence ID, searching queue then failed.
func (p Projector) Find(id int) (item any, queued bool, err error) {
	ix := queue.Index{JJ: p.JJ}
	if exists, err := ix.QueueItemExists(id); err != nil {
		return nil, false, err
	} else if exists {
		qi, err := p.QueueItem(id)
		return qi, true, err
	}
	if exists, err := ix.FailedItemExists(id); err != nil {
		return nil, false, err
	} else if exists {
		fi, err := p.FailedItem(id)
		return fi, false, err
	}
	return nil, false, exitcode.New(exitcode.Usage, "item %d not found in queue or failed", id)
}

// FindByChangeID locates an item by the candidate's change ID, scanning
// queued targets first, then failed-item trailers.
func (p Projector) FindByChangeID(changeID string) (id int, queued bool, err error) {
	ix := queue.Index{JJ: p.JJ}

	queueIDs, err := ix.Queue()
	if err != nil {
		return 0, false, err
	}
	for _, id := range queueIDs {
		rev, err := p.JJ.Resolve(jj.BookmarkRevset(queue.Bookmark(id)))
		if err != nil {
			continue
		}
		if rev.ChangeID == changeID {
			return id, true, nil
		}
	}

	failedIDs, err := ix.Failed()
	if err != nil {
		return 0, false, err
	}
	for _, id := range failedIDs {
		desc, err := p.JJ.Description(jj.BookmarkRevset(queue.FailedBookmark(id)))
		if err != nil {
			continue
		}
		if trailer.Parse(desc)[trailer.Candidate] == changeID {
			return id, false, nil
		}
	}

	return 0, false, exitcode.New(exitcode.Usage, "no item found with candidate change ID '%s'", changeID)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
