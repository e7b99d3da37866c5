package queue

import (
	"errors"
	"testing"

	"github.com/steveyegge/jjq/internal/config"
	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/lock"
	"github.com/steveyegge/jjq/internal/testutil"
)

type pushFixture struct {
	repo  *testutil.Repo
	locks *lock.Manager
	store *config.Store
}

func newPushFixture(t *testing.T) pushFixture {
	t.Helper()
	r := testutil.NewRepoWithTrunk(t)
	root, err := r.JJ.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	st := config.NewStore(r.JJ)
	if err := st.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return pushFixture{repo: r, locks: lock.NewManager(root), store: st}
}

func TestNextIDAllocatesSequentially(t *testing.T) {
	f := newPushFixture(t)

	for want := 1; want <= 3; want++ {
		id, err := NextID(f.locks, f.store)
		if err != nil {
			t.Fatalf("NextID: %v", err)
		}
		if id != want {
			t.Errorf("NextID = %d, want %d", id, want)
		}
	}

	if v, ok, err := f.store.Read("last_id"); err != nil || !ok || v != "3" {
		t.Errorf("last_id = %q, %v, %v; want 3", v, ok, err)
	}
}

func TestNextIDExhausted(t *testing.T) {
	f := newPushFixture(t)
	if err := f.store.Write("last_id", "999999", "seed counter"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	_, err := NextID(f.locks, f.store)
	var xe *exitcode.Error
	if !errors.As(err, &xe) || xe.Code != exitcode.Usage {
		t.Fatalf("NextID at ceiling = %v, want usage error", err)
	}

	// The counter must not move.
	if v, _, _ := f.store.Read("last_id"); v != "999999" {
		t.Errorf("last_id = %q after exhaustion", v)
	}
}

func TestNextIDLockContention(t *testing.T) {
	f := newPushFixture(t)

	guard, err := f.locks.Acquire(lock.ID)
	if err != nil || guard == nil {
		t.Fatalf("Acquire: guard=%v err=%v", guard, err)
	}
	defer guard.Release()

	_, err = NextID(f.locks, f.store)
	var xe *exitcode.Error
	if !errors.As(err, &xe) || xe.Code != exitcode.LockHeld {
		t.Fatalf("NextID under contention = %v, want lock-held error", err)
	}
}

func TestPushIdempotency(t *testing.T) {
	f := newPushFixture(t)
	r := f.repo

	r.NewChange(t, "main", "add feature", "feature.txt", "v1\n")
	r.MustJJ(t, "bookmark", "create", "-r", "@", "feature")

	if err := Push(r.JJ, f.locks, f.store, "feature"); err != nil {
		t.Fatalf("push: %v", err)
	}
	ix := Index{JJ: r.JJ}
	if ids, _ := ix.Queue(); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("queue after first push = %v", ids)
	}

	// Same commit again: rejected, queue unchanged.
	err := Push(r.JJ, f.locks, f.store, "feature")
	var xe *exitcode.Error
	if !errors.As(err, &xe) || xe.Code != exitcode.Usage {
		t.Fatalf("duplicate push = %v, want usage error", err)
	}
	if ids, _ := ix.Queue(); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("queue after duplicate push = %v", ids)
	}

	// Amending the candidate rewrites the commit; the queue bookmark
	// follows it, so a re-push is still a duplicate of the same entry.
	r.MustJJ(t, "edit", "feature")
	r.WriteFile(t, "feature.txt", "v2\n")
	r.MustJJ(t, "new", "main") // move the working copy off the candidate

	err = Push(r.JJ, f.locks, f.store, "feature")
	if !errors.As(err, &xe) || xe.Code != exitcode.Usage {
		t.Fatalf("re-push after amend = %v, want usage error", err)
	}
	if ids, _ := ix.Queue(); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("queue after re-push = %v, want [1]", ids)
	}
}

func TestPushRejectsAmbiguousRevset(t *testing.T) {
	f := newPushFixture(t)
	r := f.repo

	r.NewChange(t, "main", "one", "a.txt", "a\n")
	r.NewChange(t, "main", "two", "b.txt", "b\n")

	err := Push(r.JJ, f.locks, f.store, "main+") // both children
	var xe *exitcode.Error
	if !errors.As(err, &xe) || xe.Code != exitcode.Usage {
		t.Fatalf("ambiguous push = %v, want usage error", err)
	}
}

func TestPushConflictPreflight(t *testing.T) {
	f := newPushFixture(t)
	r := f.repo

	// Two candidates touching the same line of the same file.
	r.NewChange(t, "main", "edit left", "shared.txt", "left\n")
	r.MustJJ(t, "bookmark", "create", "-r", "@", "left")
	r.NewChange(t, "main", "edit right", "shared.txt", "right\n")
	r.MustJJ(t, "bookmark", "create", "-r", "@", "right")

	// Land "left" by moving main onto it directly.
	r.MustJJ(t, "bookmark", "move", "main", "--to", "left")

	err := Push(r.JJ, f.locks, f.store, "right")
	var xe *exitcode.Error
	if !errors.As(err, &xe) || xe.Code != exitcode.Conflict {
		t.Fatalf("conflicting push = %v, want conflict error", err)
	}

	// The probe commit must have been abandoned and nothing queued.
	ix := Index{JJ: r.JJ}
	if ids, _ := ix.Queue(); len(ids) != 0 {
		t.Errorf("queue after rejected push = %v", ids)
	}
}
