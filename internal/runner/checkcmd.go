package runner

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/jj"
	"github.com/steveyegge/jjq/internal/style"
)

// CheckRevision runs the configured check command against an arbitrary
// revision in a throwaway sandbox workspace. No queue state is touched.
func CheckRevision(env Env, revset string, verbose bool) error {
	changeID, err := env.JJ.ChangeID(revset)
	if err != nil {
		if errors.Is(err, jj.ErrNotFound) || errors.Is(err, jj.ErrAmbiguous) {
			return exitcode.New(exitcode.Usage, "%s", err.Error())
		}
		return err
	}

	checkCmd, ok, err := env.Store.CheckCommand()
	if err != nil {
		return err
	}
	if !ok {
		return exitcode.New(exitcode.Usage,
			"check_command not configured (use 'jjq config check_command <cmd>')")
	}

	style.Out("checking revision %s with: %s", changeID, checkCmd)

	logPath := LogPath(env.Root)

	dir, err := os.MkdirTemp("", "jjq-check-*")
	if err != nil {
		return err
	}
	name := "jjq-check-" + uuid.NewString()[:8]

	if err := env.JJ.WorkspaceAdd(dir, name, revset); err != nil {
		_ = os.RemoveAll(dir)
		return err
	}
	defer func() {
		_ = env.JJ.WorkspaceForget(name)
		_ = os.RemoveAll(dir)
	}()

	if verbose {
		style.Out("workspace: %s", dir)
		style.Out("shell: /bin/sh")
		style.Out("env:")
		vars := os.Environ()
		sort.Strings(vars)
		for _, kv := range vars {
			style.Out("  %s", kv)
		}
	}

	exitCode, err := RunCheck(checkCmd, dir, logPath)
	if err != nil {
		return err
	}

	if data, err := os.ReadFile(logPath); err == nil {
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			if !strings.HasPrefix(line, SentinelPrefix) {
				fmt.Println(line)
			}
		}
	}

	if exitCode != 0 {
		return exitcode.New(exitcode.Conflict, "check failed")
	}
	style.Out("check passed")
	return nil
}
