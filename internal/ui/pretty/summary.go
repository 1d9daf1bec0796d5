package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/mdblocks/pkg/blocks"
)

// FormatScanSummary formats span counts as a single line.
// Example: "4 blocks (2 admonition, 1 quote, 1 codefence) in notes.md".
func (s *Styles) FormatScanSummary(path string, spans []blocks.Span) string {
	if len(spans) == 0 {
		return s.Dim.Render("No blocks in ") + s.FilePath.Render(path) + "\n"
	}

	counts := make(map[blocks.Kind]int)
	for _, span := range spans {
		counts[span.Kind]++
	}

	var parts []string
	for _, k := range blocks.AllKinds() {
		if n := counts[k]; n > 0 {
			parts = append(parts, s.Kind(k).Render(fmt.Sprintf("%d %s", n, k)))
		}
	}

	word := "blocks"
	if len(spans) == 1 {
		word = "block"
	}
	return fmt.Sprintf("%s (%s) in %s\n",
		s.SummaryTitle.Render(fmt.Sprintf("%d %s", len(spans), word)),
		strings.Join(parts, ", "),
		s.FilePath.Render(path),
	)
}

// FormatEditResult reports the outcome of an edit.
func (s *Styles) FormatEditResult(path string, index int, changed, dryRun bool) string {
	switch {
	case !changed:
		return s.Dim.Render(fmt.Sprintf("Block %d unchanged in %s", index, path)) + "\n"
	case dryRun:
		return s.Warning.Render("Dry run:") + fmt.Sprintf(" block %d in %s would change\n", index, path)
	default:
		return s.Success.Render("Updated") + fmt.Sprintf(" block %d in %s\n", index, path)
	}
}

// FormatRunTotal formats the grand total of a multi-file scan.
// Example: "6 blocks in 3 files".
func (s *Styles) FormatRunTotal(blockCount, fileCount int) string {
	return fmt.Sprintf("%s in %s\n",
		s.SummaryTitle.Render(plural(blockCount, "block")),
		plural(fileCount, "file"),
	)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
