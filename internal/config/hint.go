package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// hintMarker records that the one-time log hint was shown.
const hintMarker = "log_hint_shown"

// MaybeShowLogHint prints a one-time hint suggesting a jj log filter
// that hides jjq metadata. Shown only when stdout is a TTY, the filter
// is not already configured, and the hint was never shown before.
func (s *Store) MaybeShowLogHint() error {
	force := os.Getenv("JJQTEST_FORCE_HINT") != ""
	if !force && !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}

	if current, ok, err := s.JJ.ConfigGet("revsets.log"); err == nil && ok &&
		strings.Contains(current, MetaBookmark) {
		return nil
	}

	if _, shown, err := s.Read(hintMarker); err != nil {
		return err
	} else if shown {
		return nil
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "hint: To hide jjq metadata from 'jj log', run:")
	fmt.Fprintf(os.Stderr, "  jj config set --repo revsets.log '~ ::%s'\n", MetaBookmark)
	fmt.Fprintln(os.Stderr)

	return s.Write(hintMarker, "1", "record log hint shown")
}

// SetupLogFilter configures jj's revsets.log to exclude jjq metadata
// from `jj log`, composing with any existing filter value.
func (s *Store) SetupLogFilter() (changed bool, err error) {
	exclude := fmt.Sprintf("~ ::%s", MetaBookmark)

	value := exclude
	if current, ok, err := s.JJ.ConfigGet("revsets.log"); err == nil && ok {
		if strings.Contains(current, MetaBookmark) {
			return false, nil
		}
		value = fmt.Sprintf("(%s) %s", current, exclude)
	}

	if err := s.JJ.ConfigSetRepo("revsets.log", value); err != nil {
		return false, err
	}
	return true, nil
}
