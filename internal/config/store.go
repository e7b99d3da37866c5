// Package config manages jjq's persistent state: a logical key/value
// store backed by a dedicated jj branch rooted at root(), with its head
// tracked by the bookmark jjq/_/_. Configuration keys, the sequence
// counter, and hint markers all live there as flat files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/steveyegge/jjq/internal/jj"
)

// MetaBookmark tracks the head of the metadata branch. Bookmarks are
// always three slash-separated components so the jj→git export treats
// them uniformly.
const MetaBookmark = "jjq/_/_"

// Store reads and writes files on the metadata branch. Mutations go
// through a throwaway workspace attached to the metadata head; the head
// bookmark is advanced afterwards.
type Store struct {
	JJ jj.Client
}

// NewStore returns a store over the repository the client is bound to.
func NewStore(c jj.Client) *Store {
	return &Store{JJ: c}
}

// IsInitialized reports whether the metadata bookmark exists.
func (s *Store) IsInitialized() (bool, error) {
	return s.JJ.BookmarkExists(MetaBookmark)
}

// Initialize creates the metadata branch: a commit parented to root()
// holding last_id = 0, published as jjq/_/_. Fails if already
// initialized.
func (s *Store) Initialize() error {
	initialized, err := s.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		return fmt.Errorf("jjq is already initialized")
	}

	changeID, err := s.JJ.NewHeadless("root()")
	if err != nil {
		return fmt.Errorf("creating metadata commit: %w", err)
	}
	if err := s.JJ.BookmarkCreate(MetaBookmark, changeID); err != nil {
		return err
	}

	return s.inWorkspace(func(ws jj.Client, dir string) error {
		if err := os.WriteFile(filepath.Join(dir, "last_id"), []byte("0"), 0644); err != nil {
			return err
		}
		if err := ws.Describe("@", "init jjq"); err != nil {
			return err
		}
		// Fold the working copy into the bookmarked commit so the branch
		// head is a single commit carrying last_id.
		return ws.Squash()
	})
}

// Read fetches a named file from the metadata head without mutating it.
func (s *Store) Read(key string) (value string, ok bool, err error) {
	out, err := s.JJ.FileShow(key, MetaBookmark)
	if err != nil {
		// jj file show fails for absent paths; absent means unset.
		return "", false, nil
	}
	return strings.TrimSpace(out), true, nil
}

// Write replaces a file on the metadata branch and advances jjq/_/_.
// Writing a value identical to the current one is a no-op: metadata
// writes must never grow the branch with empty commits.
func (s *Store) Write(key, value, message string) error {
	if current, ok, err := s.Read(key); err != nil {
		return err
	} else if ok && current == strings.TrimSpace(value) {
		return nil
	}

	return s.inWorkspace(func(ws jj.Client, dir string) error {
		path := filepath.Join(dir, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(value), 0644); err != nil {
			return err
		}
		if err := ws.Describe("@", message); err != nil {
			return err
		}
		return ws.BookmarkSetHere(MetaBookmark)
	})
}

// inWorkspace runs fn with a throwaway workspace attached at the
// metadata head. The workspace is forgotten and its directory removed
// on both success and error paths.
func (s *Store) inWorkspace(fn func(ws jj.Client, dir string) error) error {
	dir, err := os.MkdirTemp("", "jjq-meta-*")
	if err != nil {
		return err
	}
	name := "jjq-meta-" + uuid.NewString()[:8]

	if err := s.JJ.WorkspaceAdd(dir, name, MetaBookmark); err != nil {
		_ = os.RemoveAll(dir)
		return err
	}
	defer func() {
		_ = s.JJ.WorkspaceForget(name)
		_ = os.RemoveAll(dir)
	}()

	return fn(s.JJ.In(dir), dir)
}
