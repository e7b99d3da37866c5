// Package testutil provides a jj repository fixture for integration
// tests. Tests that need it skip when jj is not installed.
package testutil

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/steveyegge/jjq/internal/jj"
)

// Repo is a throwaway jj repository.
type Repo struct {
	Path string
	JJ   jj.Client
}

// NewRepo creates an empty jj repository in a temp directory, skipping
// the test when the jj binary is unavailable.
func NewRepo(t *testing.T) *Repo {
	t.Helper()
	if _, err := exec.LookPath("jj"); err != nil {
		t.Skip("jj binary not installed")
	}

	// Deterministic author identity regardless of the host's jj config.
	t.Setenv("JJ_USER", "Test User")
	t.Setenv("JJ_EMAIL", "test@example.com")

	dir := t.TempDir()
	r := &Repo{Path: dir, JJ: jj.New().In(dir)}
	r.MustJJ(t, "git", "init", ".")
	return r
}

// NewRepoWithTrunk creates a repository with one described commit and a
// main bookmark pointing at it.
func NewRepoWithTrunk(t *testing.T) *Repo {
	t.Helper()
	r := NewRepo(t)
	r.WriteFile(t, "README.md", "demo project\n")
	r.MustJJ(t, "desc", "-m", "initial")
	r.MustJJ(t, "bookmark", "create", "-r", "@", "main")
	return r
}

// MustJJ runs a jj command in the repository, failing the test on
// error. Returns trimmed stdout.
func (r *Repo) MustJJ(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command("jj", args...)
	cmd.Dir = r.Path
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("jj %v failed: %v\n%s", args, err, stderr.String())
	}
	return strings.TrimSpace(stdout.String())
}

// WriteFile writes a file inside the repository's working copy.
func (r *Repo) WriteFile(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(r.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// NewChange creates a child of base with a description and file
// content, returning to it as the working copy.
func (r *Repo) NewChange(t *testing.T, base, message, file, content string) {
	t.Helper()
	r.MustJJ(t, "new", "-m", message, base)
	r.WriteFile(t, file, content)
}
