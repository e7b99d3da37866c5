package jj

import (
	"reflect"
	"testing"
)

func TestSplitResolved(t *testing.T) {
	t.Run("valid line", func(t *testing.T) {
		rev, ok := splitResolved("xopxuxzw 2f6dc5ab1234")
		if !ok {
			t.Fatal("expected line to parse")
		}
		if rev.ChangeID != "xopxuxzw" || rev.CommitID != "2f6dc5ab1234" {
			t.Errorf("got %+v", rev)
		}
	})

	t.Run("missing separator", func(t *testing.T) {
		if _, ok := splitResolved("xopxuxzw"); ok {
			t.Error("expected parse failure without separator")
		}
	})

	t.Run("empty fields", func(t *testing.T) {
		if _, ok := splitResolved(" 2f6dc5ab"); ok {
			t.Error("expected parse failure with empty change ID")
		}
	})
}

func TestParseCreatedChange(t *testing.T) {
	stderr := "Working copy  (@) now at: ...\nCreated new commit xopxuxzw 2f6dc5ab (empty) (no description set)\n"
	id, ok := parseCreatedChange(stderr)
	if !ok {
		t.Fatal("expected to find created commit line")
	}
	if id != "xopxuxzw" {
		t.Errorf("change ID = %q, want xopxuxzw", id)
	}

	if _, ok := parseCreatedChange("Nothing changed.\n"); ok {
		t.Error("expected no match for unrelated output")
	}
}

func TestParseDuplicates(t *testing.T) {
	stderr := "Duplicated 2443ea76b0b1 as znkkpsqq 2f6dc5ab add feature\n" +
		"Duplicated 8811aa22bb33 as wqnwkozp 91ab23cd fix tests\n"
	got := parseDuplicates(stderr)
	want := []string{"znkkpsqq", "wqnwkozp"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseDuplicates = %v, want %v", got, want)
	}

	if got := parseDuplicates("Rebased 1 commits\n"); got != nil {
		t.Errorf("expected nil for unrelated output, got %v", got)
	}
}

func TestParseWorkspaces(t *testing.T) {
	out := "default: /home/user/repo\n" +
		"jjq-run-000003: /tmp/jjq-run-1234 (no working copy)\n"
	got := parseWorkspaces(out)
	want := []Workspace{
		{Name: "default", Path: "/home/user/repo"},
		{Name: "jjq-run-000003", Path: "/tmp/jjq-run-1234"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseWorkspaces = %v, want %v", got, want)
	}
}

func TestBookmarkRevset(t *testing.T) {
	if got := BookmarkRevset("jjq/queue/000001"); got != "bookmarks(exact:jjq/queue/000001)" {
		t.Errorf("BookmarkRevset = %q", got)
	}
}
