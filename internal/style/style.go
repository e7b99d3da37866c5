// Package style provides shared lipgloss styles for jjq terminal output.
package style

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Bold is for emphasis in normal output.
	Bold = lipgloss.NewStyle().Bold(true)

	// Dim is for secondary information (paths, hints, counts).
	Dim = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Success renders positive outcomes.
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	// Warning renders recoverable problems.
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	// Error renders failures.
	Error = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Out prints a "jjq: " prefixed line to stdout.
func Out(format string, args ...any) {
	fmt.Printf("jjq: %s\n", fmt.Sprintf(format, args...))
}

// Err prints a "jjq: " prefixed line to stderr.
func Err(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "jjq: %s\n", fmt.Sprintf(format, args...))
}

// PrintWarning prints a formatted warning line to stderr.
func PrintWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", Warning.Render("⚠"), fmt.Sprintf(format, args...))
}
