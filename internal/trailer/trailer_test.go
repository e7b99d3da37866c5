package trailer

import "testing"

func TestParse(t *testing.T) {
	desc := "Failed: merge 3 (check)\n" +
		"\n" +
		"jjq-candidate: xopxuxzw\n" +
		"jjq-candidate-commit: 2f6dc5ab\n" +
		"jjq-trunk: 91ab23cd\n" +
		"jjq-workspace: /tmp/jjq-run-123\n" +
		"jjq-failure: check\n" +
		"jjq-strategy: merge\n"

	got := Parse(desc)
	want := map[string]string{
		Candidate:       "xopxuxzw",
		CandidateCommit: "2f6dc5ab",
		Trunk:           "91ab23cd",
		Workspace:       "/tmp/jjq-run-123",
		Failure:         "check",
		Strategy:        "merge",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("trailer %q = %q, want %q", k, got[k], v)
		}
	}
	if len(got) != len(want) {
		t.Errorf("parsed %d trailers, want %d", len(got), len(want))
	}
}

func TestParseIgnoresNonTrailers(t *testing.T) {
	desc := "add feature\n\nthis line mentions jjq-candidate but not as a trailer because\nno colon-space follows the prefix word here: jjq-\n"
	got := Parse(desc)
	if len(got) != 0 {
		t.Errorf("expected no trailers, got %v", got)
	}
}

func TestParseTrimsValues(t *testing.T) {
	got := Parse("jjq-failure: conflicts  \n")
	if got[Failure] != "conflicts" {
		t.Errorf("value not trimmed: %q", got[Failure])
	}
}

func TestParseSplitsOnFirstSeparator(t *testing.T) {
	got := Parse("jjq-workspace: /tmp/dir with: colon\n")
	if got[Workspace] != "/tmp/dir with: colon" {
		t.Errorf("split on wrong separator: %q", got[Workspace])
	}
}

func TestLine(t *testing.T) {
	if got := Line(Failure, "check"); got != "jjq-failure: check" {
		t.Errorf("Line = %q", got)
	}
	if Parse(Line(Candidate, "abc"))[Candidate] != "abc" {
		t.Error("Line output must parse back")
	}
}
