// Package tail implements the run-log viewer: a dump mode that prints
// recent check output, and a follow mode that streams new output until
// the run finishes.
package tail

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/steveyegge/jjq/internal/lock"
	"github.com/steveyegge/jjq/internal/runner"
)

// dumpLineLimit is how many trailing lines dump mode shows by default.
const dumpLineLimit = 20

// pollInterval is how often follow mode re-reads the log file.
const pollInterval = 200 * time.Millisecond

// Tail views the run log. With follow set it streams new output until a
// sentinel appears or the run lock is released; otherwise it dumps the
// last lines (all of them with all set).
func Tail(logPath string, locks *lock.Manager, all, follow bool) error {
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "jjq: no run output available")
		return nil
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		return err
	}
	var lines []string
	if trimmed := strings.TrimRight(string(data), "\n"); trimmed != "" {
		lines = strings.Split(trimmed, "\n")
	}
	visible := visibleLines(lines)

	start := 0
	if !all && len(visible) > dumpLineLimit {
		start = len(visible) - dumpLineLimit
	}
	for _, line := range visible[start:] {
		fmt.Println(line)
	}

	if !follow || finished(lines) {
		return nil
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return followTUI(logPath, locks, int64(len(data)))
	}
	return followPlain(logPath, locks, int64(len(data)))
}

// visibleLines filters out sentinel lines.
func visibleLines(lines []string) []string {
	var out []string
	for _, l := range lines {
		if !strings.HasPrefix(l, runner.SentinelPrefix) {
			out = append(out, l)
		}
	}
	return out
}

// finished reports whether the log already contains a sentinel.
func finished(lines []string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, runner.SentinelPrefix) {
			return true
		}
	}
	return false
}

// readNew returns log content appended since offset. A shrunken file
// means a new run truncated the log; reading restarts from the top.
func readNew(path string, offset int64) (lines []string, newOffset int64, sawSentinel bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, offset, false, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, offset, false, err
	}
	size := fi.Size()
	if size < offset {
		offset = 0
	}
	if size == offset {
		return nil, offset, false, nil
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, false, err
	}
	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, offset, false, err
	}

	for _, line := range strings.Split(strings.TrimRight(string(buf), "\n"), "\n") {
		if strings.HasPrefix(line, runner.SentinelPrefix) {
			sawSentinel = true
			break
		}
		lines = append(lines, line)
	}
	return lines, size, sawSentinel, nil
}

// followPlain polls the log file and prints new lines; used when stdout
// is not a terminal.
func followPlain(path string, locks *lock.Manager, offset int64) error {
	for {
		time.Sleep(pollInterval)

		lines, newOffset, sawSentinel, err := readNew(path, offset)
		if err != nil {
			fmt.Fprintln(os.Stderr, "jjq: log file disappeared")
			return nil
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		if sawSentinel {
			return nil
		}
		if newOffset == offset {
			if held, err := locks.IsHeld(lock.Run); err == nil && !held {
				fmt.Fprintln(os.Stderr, "jjq: run process is no longer active")
				return nil
			}
		}
		offset = newOffset
	}
}
