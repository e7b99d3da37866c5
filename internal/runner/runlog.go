package runner

import (
	"fmt"
	"path/filepath"
)

// SentinelPrefix identifies the line appended to the run log when a
// check command finishes.
const SentinelPrefix = "--- jjq: run complete"

// SentinelLine renders the terminating sentinel with the child's exit
// code.
func SentinelLine(exitCode int) string {
	return fmt.Sprintf("%s (exit %d) ---", SentinelPrefix, exitCode)
}

// LogPath returns the run log location inside the repository's .jj
// directory.
func LogPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".jj", "jjq-run.log")
}
