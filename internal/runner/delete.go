package runner

import (
	"os"

	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/jj"
	"github.com/steveyegge/jjq/internal/queue"
	"github.com/steveyegge/jjq/internal/style"
	"github.com/steveyegge/jjq/internal/trailer"
)

// Delete removes a queued or failed item by sequence ID. Deleting a
// failed item also forgets its sandbox workspace and removes the
// directory if it is still on disk.
func Delete(env Env, idStr string) error {
	id, err := queue.ParseSeqID(idStr)
	if err != nil {
		return exitcode.New(exitcode.Usage, "%s", err.Error())
	}

	ix := env.Index()

	if exists, err := ix.QueueItemExists(id); err != nil {
		return err
	} else if exists {
		if err := env.JJ.BookmarkDelete(queue.Bookmark(id)); err != nil {
			return err
		}
		style.Out("deleted queued item %d", id)
		return nil
	}

	if exists, err := ix.FailedItemExists(id); err != nil {
		return err
	} else if exists {
		path := workspacePath(env, id)

		if err := env.JJ.BookmarkDelete(queue.FailedBookmark(id)); err != nil {
			return err
		}
		style.Out("deleted failed item %d", id)

		_ = env.JJ.WorkspaceForget(queue.WorkspaceName(id))
		if path != "" {
			if fi, err := os.Stat(path); err == nil && fi.IsDir() {
				_ = os.RemoveAll(path)
				style.Out("removed workspace %s", path)
			}
		}
		return nil
	}

	return exitcode.New(exitcode.Usage, "item %d not found in queue or failed", id)
}

// workspacePath recovers the sandbox directory for a failed item: the
// jjq-workspace trailer first, then the workspace/<id> metadata file.
func workspacePath(env Env, id int) string {
	if desc, err := env.JJ.Description(jj.BookmarkRevset(queue.FailedBookmark(id))); err == nil {
		if path := trailer.Parse(desc)[trailer.Workspace]; path != "" {
			return path
		}
	}
	if path, ok, err := env.Store.Read("workspace/" + queue.FormatSeqID(id)); err == nil && ok {
		return path
	}
	return ""
}
