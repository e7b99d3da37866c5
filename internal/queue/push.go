package queue

import (
	"errors"

	"github.com/steveyegge/jjq/internal/config"
	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/jj"
	"github.com/steveyegge/jjq/internal/lock"
	"github.com/steveyegge/jjq/internal/style"
	"github.com/steveyegge/jjq/internal/trailer"
)

// Push enqueues a revision: validates the revset, performs idempotent
// cleanup against existing queue and failed entries for the same change
// ID, probes for conflicts against trunk, allocates a sequence ID, and
// publishes the queue bookmark.
func Push(c jj.Client, locks *lock.Manager, store *config.Store, revset string) error {
	candidate, err := c.Resolve(revset)
	if err != nil {
		if errors.Is(err, jj.ErrNotFound) || errors.Is(err, jj.ErrAmbiguous) {
			return exitcode.New(exitcode.Usage, "%s", err.Error())
		}
		return err
	}

	trunk, err := store.TrunkBookmark()
	if err != nil {
		return err
	}
	if exists, err := c.BookmarkExists(trunk); err != nil {
		return err
	} else if !exists {
		return exitcode.New(exitcode.Usage, "trunk bookmark '%s' not found", trunk)
	}

	// Idempotent cleanup. Duplicate commit IDs reject; a matching change
	// ID with a different commit replaces the stale entry. The scan is
	// exhaustive, so enumeration order does not matter.
	queued, err := c.BookmarksGlob("jjq/queue/??????")
	if err != nil {
		return err
	}
	for _, bookmark := range queued {
		entry, err := c.Resolve(jj.BookmarkRevset(bookmark))
		if err != nil {
			return err
		}
		if entry.CommitID == candidate.CommitID {
			style.Err("revision already queued at %d", IDFromBookmark(bookmark))
			return exitcode.New(exitcode.Usage, "revision already queued")
		}
		if entry.ChangeID == candidate.ChangeID {
			if err := c.BookmarkDelete(bookmark); err != nil {
				return err
			}
			style.Out("replacing queued entry %d", IDFromBookmark(bookmark))
		}
	}

	failed, err := c.BookmarksGlob("jjq/failed/??????")
	if err != nil {
		return err
	}
	for _, bookmark := range failed {
		desc, err := c.Description(jj.BookmarkRevset(bookmark))
		if err != nil {
			return err
		}
		if trailer.Parse(desc)[trailer.Candidate] == candidate.ChangeID {
			if err := c.BookmarkDelete(bookmark); err != nil {
				return err
			}
			style.Out("clearing failed entry %d", IDFromBookmark(bookmark))
		}
	}

	// Pre-flight conflict probe: a headless merge of {trunk, candidate},
	// tested and abandoned. The probe commit must be abandoned even when
	// the conflict test itself errors.
	probeID, err := c.NewHeadless(trunk, revset)
	if err != nil {
		return err
	}
	conflicted, err := c.HasConflicts(probeID)
	if abandonErr := c.Abandon(probeID); err == nil {
		err = abandonErr
	}
	if err != nil {
		return err
	}
	if conflicted {
		style.Err("revision '%s' conflicts with %s", revset, trunk)
		style.Err("rebase onto %s and resolve conflicts before pushing", trunk)
		return exitcode.New(exitcode.Conflict, "revision conflicts with trunk")
	}

	if initialized, err := store.IsInitialized(); err != nil {
		return err
	} else if !initialized {
		return exitcode.New(exitcode.Usage, "jjq is not initialized. Run 'jjq init' first.")
	}

	id, err := NextID(locks, store)
	if err != nil {
		return err
	}

	if err := c.BookmarkCreate(Bookmark(id), revset); err != nil {
		return err
	}

	root, err := c.Root()
	if err != nil {
		return err
	}
	style.Out("revision '%s' queued at %d (trunk: %s in %s)", revset, id, trunk, root)

	return store.MaybeShowLogHint()
}
