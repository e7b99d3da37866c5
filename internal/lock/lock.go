// Package lock implements jjq's advisory-lock protocol over files in
// <repo>/.jj/jjq-locks. Held/free state is the OS flock, never the lock
// file's existence: the kernel releases a flock unconditionally when the
// holder's handle closes, so stale locks are impossible.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Named locks used by jjq.
const (
	// ID serializes sequence-ID read-modify-write.
	ID = "id"
	// Run ensures only one run pipeline executes at a time.
	Run = "run"
	// Config serializes configuration reads and writes.
	Config = "config"
)

// State of a named lock as seen by Probe.
type State int

const (
	Free State = iota
	Held
)

// Manager creates and probes named locks for one repository.
type Manager struct {
	dir string
}

// NewManager returns a manager over <repoRoot>/.jj/jjq-locks.
func NewManager(repoRoot string) *Manager {
	return &Manager{dir: filepath.Join(repoRoot, ".jj", "jjq-locks")}
}

// Guard is a held lock. Release it exactly once; the OS also releases
// it when the process exits.
type Guard struct {
	fl *flock.Flock
}

// Release drops the lock.
func (g *Guard) Release() {
	if g != nil && g.fl != nil {
		_ = g.fl.Unlock()
		g.fl = nil
	}
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+".lock")
}

// Acquire attempts a non-blocking exclusive lock. It returns (nil, nil)
// when the lock is already held by another process.
func (m *Manager) Acquire(name string) (*Guard, error) {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	fl := flock.New(m.path(name))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring %s lock: %w", name, err)
	}
	if !locked {
		return nil, nil
	}
	return &Guard{fl: fl}, nil
}

// Probe reports whether a named lock is currently held, without
// retaining it.
func (m *Manager) Probe(name string) (State, error) {
	if _, err := os.Stat(m.path(name)); os.IsNotExist(err) {
		return Free, nil
	} else if err != nil {
		return Free, err
	}
	fl := flock.New(m.path(name))
	locked, err := fl.TryLock()
	if err != nil {
		return Free, fmt.Errorf("probing %s lock: %w", name, err)
	}
	if !locked {
		return Held, nil
	}
	_ = fl.Unlock()
	return Free, nil
}

// IsHeld is a convenience wrapper around Probe.
func (m *Manager) IsHeld(name string) (bool, error) {
	st, err := m.Probe(name)
	return st == Held, err
}
