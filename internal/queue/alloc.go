package queue

import (
	"fmt"
	"strconv"

	"github.com/steveyegge/jjq/internal/config"
	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/lock"
)

// NextID allocates the next sequence ID: read-increment-write of
// last_id on the metadata branch, serialized by the id lock. The
// allocator never rolls back; a caller that fails between allocation
// and publish just leaves a gap.
func NextID(locks *lock.Manager, store *config.Store) (int, error) {
	guard, err := locks.Acquire(lock.ID)
	if err != nil {
		return 0, err
	}
	if guard == nil {
		return 0, exitcode.New(exitcode.LockHeld,
			"could not acquire sequence ID lock (another process may be pushing)")
	}
	defer guard.Release()

	raw, ok, err := store.Read("last_id")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("metadata branch is missing last_id")
	}
	current, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("malformed last_id %q: %w", raw, err)
	}

	if current >= MaxSeqID {
		return 0, exitcode.New(exitcode.Usage, "sequence ID exhausted (at %d)", MaxSeqID)
	}

	next := current + 1
	msg := fmt.Sprintf("%d -> %d", current, next)
	if err := store.Write("last_id", strconv.Itoa(next), msg); err != nil {
		return 0, err
	}
	return next, nil
}
