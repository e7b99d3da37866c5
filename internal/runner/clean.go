package runner

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/steveyegge/jjq/internal/style"
)

// Clean forgets every jjq workspace and deletes its directory. Queue
// and failed bookmarks are never touched; clean is purely a
// filesystem/workspace garbage collector.
func Clean(env Env) error {
	workspaces, err := env.JJ.Workspaces()
	if err != nil {
		return err
	}

	ix := env.Index()
	var removed int
	var details []string

	for _, ws := range workspaces {
		if !IsJJQWorkspace(ws.Name) {
			continue
		}

		label := "orphaned"
		path := ws.Path
		if rest, found := strings.CutPrefix(ws.Name, "jjq-run-"); found {
			if id, err := strconv.Atoi(rest); err == nil {
				if failed, err := ix.FailedItemExists(id); err == nil && failed {
					label = fmt.Sprintf("failed item %d", id)
				}
				if path == "" {
					path = workspacePath(env, id)
				}
			}
		}

		if err := env.JJ.WorkspaceForget(ws.Name); err != nil {
			style.PrintWarning("could not forget workspace %s: %v", ws.Name, err)
		}
		if path != "" {
			if fi, err := os.Stat(path); err == nil && fi.IsDir() {
				_ = os.RemoveAll(path)
			}
		}

		detail := fmt.Sprintf("  %s (%s)", ws.Name, label)
		if path != "" {
			detail += " " + path
		}
		details = append(details, detail)
		removed++
	}

	if removed == 0 {
		style.Out("no workspaces to clean")
		return nil
	}
	style.Out("removed %d workspace(s)\n%s", removed, strings.Join(details, "\n"))
	return nil
}

// IsJJQWorkspace reports whether a workspace name belongs to jjq
// (sandbox runs, metadata writers, throwaway check workspaces).
func IsJJQWorkspace(name string) bool {
	return strings.HasPrefix(name, "jjq-")
}
