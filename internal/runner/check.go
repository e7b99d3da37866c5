package runner

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/steveyegge/jjq/internal/style"
)

// heartbeatInterval is how often a liveness line is printed while the
// check command runs.
const heartbeatInterval = 15 * time.Second

// RunCheck executes the configured check command via `sh -c` with the
// working directory set to dir, writing its combined stdout+stderr to
// the run log (truncated first). A sentinel line is appended after the
// child exits regardless of outcome. Returns the child's exit code.
func RunCheck(command, dir, logPath string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return 0, fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return 0, fmt.Errorf("creating log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = dir
	// One pipe carries both streams; cmd.Wait does not close its read end.
	stdout, pw, err := os.Pipe()
	if err != nil {
		return 0, err
	}
	defer stdout.Close()
	cmd.Stdout, cmd.Stderr = pw, pw
	err = cmd.Start()
	pw.Close()
	if err != nil {
		return 0, fmt.Errorf("spawning check command: %w", err)
	}

	// Drain the child's output to the log line by line so tail sees
	// progress while the check runs.
	drained := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			if _, err := fmt.Fprintln(logFile, scanner.Text()); err != nil {
				drained <- err
				return
			}
			if err := logFile.Sync(); err != nil {
				drained <- err
				return
			}
		}
		drained <- scanner.Err()
	}()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	start := time.Now()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	var waitErr error
wait:
	for {
		select {
		case waitErr = <-done:
			break wait
		case <-ticker.C:
			style.Err("still running... (elapsed: %s)", formatElapsed(time.Since(start)))
		}
	}

	if err := <-drained; err != nil {
		return 0, fmt.Errorf("draining check output: %w", err)
	}

	exitCode := 0
	if waitErr != nil {
		ee, ok := waitErr.(*exec.ExitError)
		if !ok {
			return 0, waitErr
		}
		exitCode = ee.ExitCode()
	}

	if _, err := fmt.Fprintln(logFile, SentinelLine(exitCode)); err != nil {
		return 0, fmt.Errorf("writing sentinel line: %w", err)
	}
	return exitCode, nil
}

// formatElapsed renders a duration as "Xs" under a minute and "Nm Xs"
// otherwise.
func formatElapsed(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}
