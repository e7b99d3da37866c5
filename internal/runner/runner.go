// Package runner implements the run pipeline: select the oldest queued
// item, build the landed revision in a sandbox workspace under the
// configured strategy, run the check command, and atomically advance
// trunk or mark the item failed. It also owns the delete and clean
// operations that garbage-collect sandbox workspaces.
package runner

import (
	"fmt"
	"os"
	"strings"

	"github.com/steveyegge/jjq/internal/config"
	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/jj"
	"github.com/steveyegge/jjq/internal/lock"
	"github.com/steveyegge/jjq/internal/queue"
	"github.com/steveyegge/jjq/internal/style"
	"github.com/steveyegge/jjq/internal/trailer"
)

// Env carries the repository-scoped collaborators every pipeline step
// needs.
type Env struct {
	JJ    jj.Client
	Locks *lock.Manager
	Store *config.Store
	Root  string
}

// Index returns the queue index over this environment's repository.
func (e Env) Index() queue.Index {
	return queue.Index{JJ: e.JJ}
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeEmpty
	outcomeSkipped
	outcomeFailure
)

type result struct {
	outcome outcome
	message string
	// bail stops a batch immediately: no forward progress is possible
	// (run lock held elsewhere).
	bail bool
}

// Run processes one queue item, or all of them in batch mode.
func Run(env Env, all, stopOnFailure bool) error {
	if all {
		return runAll(env, stopOnFailure)
	}
	res, err := runOne(env)
	if err != nil {
		return err
	}
	if res.outcome == outcomeFailure {
		return exitcode.New(exitcode.Conflict, "%s", res.message)
	}
	return nil
}

func runAll(env Env, stopOnFailure bool) error {
	var merged, failed, skipped int

	for {
		res, err := runOne(env)
		if err != nil {
			return err
		}
		switch res.outcome {
		case outcomeSuccess:
			merged++
			continue
		case outcomeSkipped:
			skipped++
			continue
		case outcomeEmpty:
		case outcomeFailure:
			if res.bail {
				return exitcode.New(exitcode.Conflict, "%s", res.message)
			}
			if stopOnFailure {
				if merged > 0 {
					style.Out("processed %d item(s) before failure", merged)
				}
				return exitcode.New(exitcode.Conflict, "%s", res.message)
			}
			failed++
			continue
		}
		break
	}

	if merged == 0 && failed == 0 && skipped == 0 {
		return nil
	}
	if failed > 0 {
		style.Out("processed %d item(s), %d failed", merged, failed)
		return exitcode.New(exitcode.Partial, "processed %d item(s), %d failed", merged, failed)
	}
	if skipped > 0 {
		style.Out("processed %d item(s), %d skipped (empty)", merged, skipped)
	} else {
		style.Out("processed %d item(s)", merged)
	}
	return nil
}

// runOne drives the state machine for the lowest-numbered queue item.
// jj and I/O failures, a busy config lock, and an unset check_command
// surface as err; every other terminal state is a result.
func runOne(env Env) (result, error) {
	// SELECTING
	id, ok, err := env.Index().Next()
	if err != nil {
		return result{}, err
	}
	if !ok {
		style.Out("queue is empty")
		return result{outcome: outcomeEmpty}, nil
	}

	// LOCKED
	runGuard, err := env.Locks.Acquire(lock.Run)
	if err != nil {
		return result{}, err
	}
	if runGuard == nil {
		style.Err("queue runner lock already held")
		return result{outcome: outcomeFailure, message: "run lock unavailable", bail: true}, nil
	}
	defer runGuard.Release()

	// PREPARED
	cfgGuard, err := env.Locks.Acquire(lock.Config)
	if err != nil {
		return result{}, err
	}
	if cfgGuard == nil {
		return result{}, fmt.Errorf("config lock unavailable")
	}
	trunk, err := env.Store.TrunkBookmark()
	if err != nil {
		cfgGuard.Release()
		return result{}, err
	}
	checkCmd, hasCheck, err := env.Store.CheckCommand()
	if err != nil {
		cfgGuard.Release()
		return result{}, err
	}
	strategy, err := env.Store.Strategy()
	cfgGuard.Release()
	if err != nil {
		return result{}, err
	}
	if !hasCheck {
		return result{}, exitcode.New(exitcode.Usage,
			"check_command not configured (use 'jjq config check_command <cmd>')")
	}

	style.Out("processing queue item %d (%s strategy)", id, strategy)

	trunkRevset := jj.BookmarkRevset(trunk)
	trunkBefore, err := env.JJ.CommitID(trunkRevset)
	if err != nil {
		return result{}, err
	}

	queueBookmark := queue.Bookmark(id)
	queueRevset := jj.BookmarkRevset(queueBookmark)
	candidate, err := env.JJ.Resolve(queueRevset)
	if err != nil {
		return result{}, err
	}
	candidateDesc, _ := env.JJ.Description(queueRevset)

	logPath := LogPath(env.Root)

	sandbox, err := os.MkdirTemp("", "jjq-run-*")
	if err != nil {
		return result{}, err
	}
	runName := queue.WorkspaceName(id)

	// Mid-run jj operations run from inside the sandbox so check-command
	// side-effects snapshot into the landed revision.
	ws := env.JJ.In(sandbox)

	// BUILT
	var duplicates []string
	switch strategy {
	case config.StrategyMerge:
		// Two-parent merge: trunk is parent 1, candidate parent 2.
		if err := env.JJ.WorkspaceAdd(sandbox, runName, trunkRevset, queueRevset); err != nil {
			_ = os.RemoveAll(sandbox)
			return result{}, err
		}
	case config.StrategyRebase:
		duplicates, err = env.JJ.Duplicate(queueRevset, trunkRevset)
		if err != nil {
			_ = os.RemoveAll(sandbox)
			return result{}, err
		}
		tip := duplicates[len(duplicates)-1]
		if err := env.JJ.WorkspaceAdd(sandbox, runName, tip); err != nil {
			_ = os.RemoveAll(sandbox)
			return result{}, err
		}
		// Edit the duplicate itself so check side-effects snapshot into
		// it rather than the empty child workspace-add created.
		parent, err := ws.ChangeID(runName + "@-")
		if err != nil {
			return result{}, err
		}
		if err := ws.Edit(parent); err != nil {
			return result{}, err
		}
	}

	// Record the sandbox path in metadata so delete/clean can recover it
	// even without trailer data.
	if err := env.Store.Write("workspace/"+queue.FormatSeqID(id), sandbox,
		fmt.Sprintf("Sequence-Id: %d\nWorkspace: %s", id, sandbox)); err != nil {
		return result{}, err
	}

	wsRevset := runName + "@"

	// CONFLICTED
	conflicted, err := ws.HasConflicts(wsRevset)
	if err != nil {
		return result{}, err
	}
	if conflicted {
		if err := markFailed(ws, id, "conflicts", candidate, trunkBefore, sandbox, strategy, wsRevset); err != nil {
			return result{}, err
		}
		style.Err("merge %d has conflicts, marked as failed", id)
		style.Err("workspace: %s", sandbox)
		style.Err("")
		style.Err("To resolve:")
		style.Err("  1. Rebase your revision onto %s and resolve conflicts", trunk)
		style.Err("  2. Run: jjq push <fixed-revset>")
		return result{outcome: outcomeFailure, message: fmt.Sprintf("merge %d has conflicts", id)}, nil
	}

	// Empty candidate: tree identical to trunk lands nothing; drop it.
	empty, err := ws.DiffEmpty(trunkRevset, wsRevset)
	if err != nil {
		return result{}, err
	}
	if empty {
		if err := env.JJ.BookmarkDelete(queueBookmark); err != nil {
			return result{}, err
		}
		abandonAll(env.JJ, duplicates)
		discardSandbox(env.JJ, runName, sandbox)
		style.Err("queue item %d is empty (no changes vs %s), skipping", id, trunk)
		return result{outcome: outcomeSkipped}, nil
	}

	if err := ws.Describe(wsRevset, fmt.Sprintf("WIP: attempting merge %d", id)); err != nil {
		return result{}, err
	}

	// CHECKED
	checkExit, err := RunCheck(checkCmd, sandbox, logPath)
	if err != nil {
		return result{}, err
	}

	// CHECK_FAILED
	if checkExit != 0 {
		dumpLog(logPath)
		if err := markFailed(ws, id, "check", candidate, trunkBefore, sandbox, strategy, wsRevset); err != nil {
			return result{}, err
		}
		style.Err("merge %d failed check (exit %d), marked as failed", id, checkExit)
		style.Err("workspace: %s", sandbox)
		style.Err("")
		style.Err("To resolve:")
		style.Err("  1. Fix the issue and create a new revision")
		style.Err("  2. Run: jjq push <fixed-revset>")
		return result{outcome: outcomeFailure, message: fmt.Sprintf("merge %d check failed", id)}, nil
	}

	// COMMITTED gate: trunk must not have moved since PREPARED.
	trunkNow, err := ws.CommitID(trunkRevset)
	if err != nil {
		return result{}, err
	}
	if trunkNow != trunkBefore {
		abandonAll(env.JJ, duplicates)
		discardSandbox(env.JJ, runName, sandbox)
		style.Err("trunk bookmark moved during run; queue item left in place, re-run to retry")
		return result{outcome: outcomeFailure, message: "trunk moved during run"}, nil
	}

	switch strategy {
	case config.StrategyMerge:
		landed, err := ws.ChangeID(wsRevset)
		if err != nil {
			return result{}, err
		}
		if err := ws.BookmarkMove(trunk, wsRevset); err != nil {
			return result{}, err
		}
		if err := ws.BookmarkDelete(queueBookmark); err != nil {
			return result{}, err
		}
		if err := ws.Describe(wsRevset, fmt.Sprintf("Success: merge %d", id)); err != nil {
			return result{}, err
		}
		discardSandbox(env.JJ, runName, sandbox)
		style.Out("merged %d to %s (now at %s)", id, trunk, landed)

	case config.StrategyRebase:
		// Crash ordering is deliberate: the trunk move is the commit
		// point; everything after it is cleanup a later run can redo.
		if err := env.JJ.RebaseBranch(candidate.ChangeID, trunkRevset); err != nil {
			return result{}, err
		}
		if err := env.JJ.BookmarkMove(trunk, candidate.ChangeID); err != nil {
			return result{}, err
		}
		if err := env.JJ.BookmarkDelete(queueBookmark); err != nil {
			return result{}, err
		}
		desc := fmt.Sprintf("%s\n\njjq-sequence: %d\njjq-strategy: rebase",
			strings.TrimSpace(candidateDesc), id)
		if err := env.JJ.Describe(candidate.ChangeID, desc); err != nil {
			return result{}, err
		}
		for _, dup := range duplicates {
			if err := env.JJ.Abandon(dup); err != nil {
				return result{}, err
			}
		}
		discardSandbox(env.JJ, runName, sandbox)
		style.Out("rebased %d to %s (now at %s)", id, trunk, candidate.ChangeID)
	}

	return result{outcome: outcomeSuccess}, nil
}

// markFailed retires a queue entry into the failed namespace: the queue
// bookmark is deleted, the failed bookmark published at the landed
// revision, and the failure context written as trailers. The sandbox is
// preserved on disk and stays registered.
func markFailed(ws jj.Client, id int, reason string, candidate jj.Rev, trunkBefore, sandbox string, strategy config.Strategy, wsRevset string) error {
	if err := ws.BookmarkDelete(queue.Bookmark(id)); err != nil {
		return err
	}
	if err := ws.BookmarkCreate(queue.FailedBookmark(id), wsRevset); err != nil {
		return err
	}
	return ws.Describe(wsRevset, failureDescription(id, reason, candidate, trunkBefore, sandbox, strategy))
}

// failureDescription renders the trailer block recorded on a failed
// landed revision.
func failureDescription(id int, reason string, candidate jj.Rev, trunkCommit, workspacePath string, strategy config.Strategy) string {
	lines := []string{
		fmt.Sprintf("Failed: merge %d (%s)", id, reason),
		"",
		trailer.Line(trailer.Candidate, candidate.ChangeID),
		trailer.Line(trailer.CandidateCommit, candidate.CommitID),
		trailer.Line(trailer.Trunk, trunkCommit),
		trailer.Line(trailer.Workspace, workspacePath),
		trailer.Line(trailer.Failure, reason),
		trailer.Line(trailer.Strategy, string(strategy)),
	}
	return strings.Join(lines, "\n")
}

func abandonAll(c jj.Client, duplicates []string) {
	for _, dup := range duplicates {
		_ = c.Abandon(dup)
	}
}

// discardSandbox forgets the workspace and removes its directory.
func discardSandbox(c jj.Client, name, dir string) {
	_ = c.WorkspaceForget(name)
	_ = os.RemoveAll(dir)
}

// dumpLog prints the run log to stderr, skipping sentinel lines.
func dumpLog(logPath string) {
	data, err := os.ReadFile(logPath)
	if err != nil {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if !strings.HasPrefix(line, SentinelPrefix) {
			fmt.Fprintln(os.Stderr, line)
		}
	}
}
