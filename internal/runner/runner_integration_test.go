package runner

import (
	"errors"
	"os"
	"testing"

	"github.com/steveyegge/jjq/internal/config"
	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/jj"
	"github.com/steveyegge/jjq/internal/lock"
	"github.com/steveyegge/jjq/internal/queue"
	"github.com/steveyegge/jjq/internal/testutil"
	"github.com/steveyegge/jjq/internal/trailer"
)

func newRunFixture(t *testing.T, strategy config.Strategy, checkCmd string) (*testutil.Repo, Env) {
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
	for key, value := range map[string]string{
		config.KeyTrunkBookmark: "main",
		config.KeyCheckCommand:  checkCmd,
		config.KeyStrategy:      string(strategy),
	} {
		if err := st.Set(key, value); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}
	env := Env{JJ: r.JJ, Locks: lock.NewManager(root), Store: st, Root: root}
	return r, env
}

func pushCandidate(t *testing.T, r *testutil.Repo, env Env, bookmark, file, content string) {
	t.Helper()
	r.NewChange(t, "main", "add "+bookmark, file, content)
	r.MustJJ(t, "bookmark", "create", "-r", "@", bookmark)
	r.MustJJ(t, "new", "main") // park the working copy away from the candidate
	if err := queue.Push(r.JJ, env.Locks, env.Store, bookmark); err != nil {
		t.Fatalf("push %s: %v", bookmark, err)
	}
}

func exitCodeOf(err error) int {
	var xe *exitcode.Error
	if errors.As(err, &xe) {
		return xe.Code
	}
	if err == nil {
		return 0
	}
	return -1
}

func TestRunEmptyQueue(t *testing.T) {
	_, env := newRunFixture(t, config.StrategyMerge, "true")
	if err := Run(env, false, false); err != nil {
		t.Fatalf("run on empty queue = %v, want nil", err)
	}
}

func TestRunMergeSuccess(t *testing.T) {
	r, env := newRunFixture(t, config.StrategyMerge, "true")
	pushCandidate(t, r, env, "feature", "feature.txt", "hello\n")

	trunkBefore, err := r.JJ.CommitID(jj.BookmarkRevset("main"))
	if err != nil {
		t.Fatalf("CommitID: %v", err)
	}

	if err := Run(env, false, false); err != nil {
		t.Fatalf("run: %v", err)
	}

	trunkAfter, err := r.JJ.CommitID(jj.BookmarkRevset("main"))
	if err != nil {
		t.Fatalf("CommitID: %v", err)
	}
	if trunkAfter == trunkBefore {
		t.Error("trunk did not advance")
	}

	// The new trunk is a merge: old trunk first parent, candidate second.
	parents := r.MustJJ(t, "log", "-r", "main", "--no-graph", "-T", `parents.map(|c| c.commit_id()).join(" ")`)
	candidateCommit, _ := r.JJ.CommitID(jj.BookmarkRevset("feature"))
	if want := trunkBefore + " " + candidateCommit; parents != want {
		t.Errorf("merge parents = %q, want %q", parents, want)
	}

	ix := env.Index()
	if ids, _ := ix.Queue(); len(ids) != 0 {
		t.Errorf("queue not drained: %v", ids)
	}
	if ids, _ := ix.Failed(); len(ids) != 0 {
		t.Errorf("unexpected failed entries: %v", ids)
	}

	// The sandbox is forgotten and gone.
	workspaces, _ := r.JJ.Workspaces()
	for _, ws := range workspaces {
		if ws.Name == queue.WorkspaceName(1) {
			t.Errorf("sandbox workspace still registered")
		}
	}
}

func TestRunRebasePreservesChangeID(t *testing.T) {
	r, env := newRunFixture(t, config.StrategyRebase, "true")
	pushCandidate(t, r, env, "feature", "feature.txt", "hello\n")

	candidateChange, err := r.JJ.ChangeID(jj.BookmarkRevset("feature"))
	if err != nil {
		t.Fatalf("ChangeID: %v", err)
	}

	if err := Run(env, false, false); err != nil {
		t.Fatalf("run: %v", err)
	}

	trunkChange, err := r.JJ.ChangeID(jj.BookmarkRevset("main"))
	if err != nil {
		t.Fatalf("ChangeID: %v", err)
	}
	if trunkChange != candidateChange {
		t.Errorf("trunk change = %s, want candidate %s", trunkChange, candidateChange)
	}

	// The landed description keeps the user's message plus trailers.
	desc, _ := r.JJ.Description(jj.BookmarkRevset("main"))
	if got := trailer.Parse(desc)[trailer.Strategy]; got != "rebase" {
		t.Errorf("landed strategy trailer = %q", got)
	}
}

func TestRunCheckFailureMarksFailed(t *testing.T) {
	r, env := newRunFixture(t, config.StrategyMerge, "false")
	pushCandidate(t, r, env, "feature", "feature.txt", "hello\n")

	trunkBefore, _ := r.JJ.CommitID(jj.BookmarkRevset("main"))

	err := Run(env, false, false)
	if code := exitCodeOf(err); code != exitcode.Conflict {
		t.Fatalf("run = %v (code %d), want conflict exit", err, code)
	}

	// Trunk must not move on failure.
	if trunkAfter, _ := r.JJ.CommitID(jj.BookmarkRevset("main")); trunkAfter != trunkBefore {
		t.Error("trunk moved on failed run")
	}

	ix := env.Index()
	if ids, _ := ix.Queue(); len(ids) != 0 {
		t.Errorf("queue entry not retired: %v", ids)
	}
	if ids, _ := ix.Failed(); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("failed entries = %v, want [1]", ids)
	}

	desc, err := r.JJ.Description(jj.BookmarkRevset(queue.FailedBookmark(1)))
	if err != nil {
		t.Fatalf("Description: %v", err)
	}
	trailers := trailer.Parse(desc)
	if trailers[trailer.Failure] != "check" {
		t.Errorf("failure trailer = %q, want check", trailers[trailer.Failure])
	}
	if trailers[trailer.Candidate] == "" || trailers[trailer.Trunk] == "" {
		t.Errorf("missing forensic trailers: %v", trailers)
	}

	// The sandbox workspace survives for inspection.
	if fi, err := os.Stat(trailers[trailer.Workspace]); err != nil || !fi.IsDir() {
		t.Errorf("sandbox not preserved at %q: %v", trailers[trailer.Workspace], err)
	}

	// Re-pushing the fixed candidate clears the failed entry.
	r.MustJJ(t, "edit", "feature")
	r.WriteFile(t, "feature.txt", "fixed\n")
	r.MustJJ(t, "new", "main")
	if err := queue.Push(r.JJ, env.Locks, env.Store, "feature"); err != nil {
		t.Fatalf("re-push: %v", err)
	}
	if ids, _ := ix.Failed(); len(ids) != 0 {
		t.Errorf("failed entry not cleared by re-push: %v", ids)
	}
	if ids, _ := ix.Queue(); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("queue after re-push = %v, want [2]", ids)
	}
}

func TestRunTrunkMovedLeavesQueueIntact(t *testing.T) {
	r, env := newRunFixture(t, config.StrategyMerge, "true")

	// A spare descendant of main for the check command to move trunk to.
	r.NewChange(t, "main", "external landing", "external.txt", "x\n")
	r.MustJJ(t, "bookmark", "create", "-r", "@", "spare")
	r.MustJJ(t, "new", "main")

	if err := env.Store.Set(config.KeyCheckCommand, "jj bookmark move main --to spare"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	pushCandidate(t, r, env, "feature", "feature.txt", "hello\n")

	err := Run(env, false, false)
	if code := exitCodeOf(err); code != exitcode.Conflict {
		t.Fatalf("run = %v (code %d), want conflict exit", err, code)
	}

	ix := env.Index()
	if ids, _ := ix.Queue(); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("queue entry lost on trunk move: %v", ids)
	}
	if ids, _ := ix.Failed(); len(ids) != 0 {
		t.Errorf("trunk move must not create failed entries: %v", ids)
	}
}

func TestRunAllPartialBatch(t *testing.T) {
	r, env := newRunFixture(t, config.StrategyMerge, "true")

	// Items 1 and 2 edit the same line; once 1 lands, 2 conflicts.
	pushCandidate(t, r, env, "one", "shared.txt", "one\n")
	pushCandidate(t, r, env, "two", "shared.txt", "two\n")
	pushCandidate(t, r, env, "three", "other.txt", "three\n")

	err := Run(env, true, false)
	if code := exitCodeOf(err); code != exitcode.Partial {
		t.Fatalf("run --all = %v (code %d), want partial exit", err, code)
	}

	ix := env.Index()
	if ids, _ := ix.Queue(); len(ids) != 0 {
		t.Errorf("queue not drained: %v", ids)
	}
	failed, _ := ix.Failed()
	if len(failed) != 1 || failed[0] != 2 {
		t.Errorf("failed = %v, want [2]", failed)
	}
}

func TestRunLockBusy(t *testing.T) {
	r, env := newRunFixture(t, config.StrategyMerge, "true")
	pushCandidate(t, r, env, "feature", "feature.txt", "hello\n")

	guard, err := env.Locks.Acquire(lock.Run)
	if err != nil || guard == nil {
		t.Fatalf("Acquire: guard=%v err=%v", guard, err)
	}
	defer guard.Release()

	if code := exitCodeOf(Run(env, false, false)); code != exitcode.Conflict {
		t.Fatalf("run with held lock exit = %d, want %d", code, exitcode.Conflict)
	}
}

func TestDeleteFailedItem(t *testing.T) {
	r, env := newRunFixture(t, config.StrategyMerge, "false")
	pushCandidate(t, r, env, "feature", "feature.txt", "hello\n")

	// Fail it so a workspace is left behind.
	if code := exitCodeOf(Run(env, false, false)); code != exitcode.Conflict {
		t.Fatal("expected check failure")
	}

	desc, _ := r.JJ.Description(jj.BookmarkRevset(queue.FailedBookmark(1)))
	wsPath := trailer.Parse(desc)[trailer.Workspace]

	if err := Delete(env, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ix := env.Index()
	if ids, _ := ix.Failed(); len(ids) != 0 {
		t.Errorf("failed entry survived delete: %v", ids)
	}
	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("workspace dir survived delete: %v", err)
	}

	if code := exitCodeOf(Delete(env, "1")); code != exitcode.Usage {
		t.Errorf("deleting a missing item must be a usage error")
	}
}

func TestCleanRemovesFailedItemWorkspaces(t *testing.T) {
	r, env := newRunFixture(t, config.StrategyMerge, "false")
	pushCandidate(t, r, env, "feature", "feature.txt", "hello\n")
	if code := exitCodeOf(Run(env, false, false)); code != exitcode.Conflict {
		t.Fatal("expected check failure")
	}

	if err := Clean(env); err != nil {
		t.Fatalf("clean: %v", err)
	}

	workspaces, _ := r.JJ.Workspaces()
	for _, ws := range workspaces {
		if IsJJQWorkspace(ws.Name) {
			t.Errorf("jjq workspace %q survived clean", ws.Name)
		}
	}

	// Clean never touches bookmarks.
	ix := env.Index()
	if ids, _ := ix.Failed(); len(ids) != 1 {
		t.Errorf("clean must not delete failed entries: %v", ids)
	}
}
