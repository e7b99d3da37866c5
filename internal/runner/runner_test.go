package runner

import (
	"strings"
	"testing"

	"github.com/steveyegge/jjq/internal/config"
	"github.com/steveyegge/jjq/internal/jj"
	"github.com/steveyegge/jjq/internal/trailer"
)

func TestFailureDescription(t *testing.T) {
	candidate := jj.Rev{ChangeID: "xopxuxzw", CommitID: "2f6dc5ab"}
	desc := failureDescription(7, "conflicts", candidate, "91ab23cd", "/tmp/jjq-run-7", config.StrategyMerge)

	if !strings.HasPrefix(desc, "Failed: merge 7 (conflicts)\n\n") {
		t.Errorf("unexpected header: %q", desc)
	}

	got := trailer.Parse(desc)
	want := map[string]string{
		trailer.Candidate:       "xopxuxzw",
		trailer.CandidateCommit: "2f6dc5ab",
		trailer.Trunk:           "91ab23cd",
		trailer.Workspace:       "/tmp/jjq-run-7",
		trailer.Failure:         "conflicts",
		trailer.Strategy:        "merge",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("trailer %q = %q, want %q", k, got[k], v)
		}
	}
}

func TestFailureDescriptionCheckReason(t *testing.T) {
	desc := failureDescription(1, "check", jj.Rev{ChangeID: "a", CommitID: "b"}, "c", "/tmp/x", config.StrategyRebase)
	got := trailer.Parse(desc)
	if got[trailer.Failure] != "check" {
		t.Errorf("failure = %q, want check", got[trailer.Failure])
	}
	if got[trailer.Strategy] != "rebase" {
		t.Errorf("strategy = %q, want rebase", got[trailer.Strategy])
	}
}

func TestIsJJQWorkspace(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"jjq-run-000001", true},
		{"jjq-meta-a1b2c3d4", true},
		{"jjq-check-deadbeef", true},
		{"default", false},
		{"feature", false},
		{"jjqx", false},
	}
	for _, tt := range tests {
		if got := IsJJQWorkspace(tt.name); got != tt.want {
			t.Errorf("IsJJQWorkspace(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
