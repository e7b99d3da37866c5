// Package trailer encodes and parses the jjq-<key>: <value> lines that
// carry failure metadata in a failed item's commit description.
package trailer

import "strings"

// Trailer keys written to failed-item descriptions.
const (
	Candidate       = "candidate"
	CandidateCommit = "candidate-commit"
	Trunk           = "trunk"
	Workspace       = "workspace"
	Failure         = "failure"
	Strategy        = "strategy"
)

const prefix = "jjq-"

// Parse extracts all jjq-* trailers from a commit description.
// Each trailer is one "jjq-key: value" line; the jjq- prefix is
// stripped and the value trimmed.
func Parse(description string) map[string]string {
	trailers := make(map[string]string)
	for _, line := range strings.Split(description, "\n") {
		rest, found := strings.CutPrefix(line, prefix)
		if !found {
			continue
		}
		key, value, found := strings.Cut(rest, ": ")
		if !found {
			continue
		}
		trailers[key] = strings.TrimSpace(value)
	}
	return trailers
}

// Line renders a single trailer line.
func Line(key, value string) string {
	return prefix + key + ": " + value
}
