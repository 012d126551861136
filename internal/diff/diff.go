// Package diff renders unified diffs between original and optimized code.
package diff

import (
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns a unified diff of a and b with three lines of context.
// Identical inputs give an empty string.
func Unified(a, b, fromName, toName string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(ensureNewline(a)),
		B:        difflib.SplitLines(ensureNewline(b)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// Colorize highlights a unified diff for terminals. Color is dropped
// automatically when output is not a TTY (see color.NoColor).
func Colorize(d string) string {
	header := color.New(color.Bold).SprintFunc()
	hunk := color.New(color.FgCyan).SprintFunc()
	added := color.New(color.FgGreen).SprintFunc()
	removed := color.New(color.FgRed).SprintFunc()

	lines := strings.SplitAfter(d, "\n")
	var b strings.Builder
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(header(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(hunk(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(added(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(removed(line))
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}
