package pretty

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines shown around a change.
const diffContext = 2

// FormatDiff renders a line diff between before and after in unified style.
// It returns "" when the texts are equal.
func (s *Styles) FormatDiff(path, before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	type diffLine struct {
		op   diffmatchpatch.Operation
		text string
	}
	var all []diffLine
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			all = append(all, diffLine{op: d.Type, text: line})
		}
	}

	var builder strings.Builder
	builder.WriteString(s.DiffHeader.Render("--- "+path) + "\n")
	builder.WriteString(s.DiffHeader.Render("+++ "+path) + "\n")

	oldLine, newLine := 1, 1
	for i := 0; i < len(all); {
		if all[i].op == diffmatchpatch.DiffEqual {
			i++
			oldLine++
			newLine++
			continue
		}

		// Collect a hunk: changes plus surrounding context.
		start := max(0, i-diffContext)
		end := i
		for end < len(all) {
			if all[end].op != diffmatchpatch.DiffEqual {
				end++
				continue
			}
			run := end
			for run < len(all) && all[run].op == diffmatchpatch.DiffEqual {
				run++
			}
			if run == len(all) || run-end > 2*diffContext {
				end = min(end+diffContext, len(all))
				break
			}
			end = run
		}

		oldStart, newStart := oldLine-(i-start), newLine-(i-start)
		var oldCount, newCount int
		var body strings.Builder
		for _, l := range all[start:end] {
			switch l.op {
			case diffmatchpatch.DiffEqual:
				oldCount++
				newCount++
				body.WriteString(s.DiffContext.Render(" "+l.text) + "\n")
			case diffmatchpatch.DiffDelete:
				oldCount++
				body.WriteString(s.DiffRemove.Render("-"+l.text) + "\n")
			case diffmatchpatch.DiffInsert:
				newCount++
				body.WriteString(s.DiffAdd.Render("+"+l.text) + "\n")
			}
		}
		builder.WriteString(s.DiffHunk.Render(
			fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldCount, newStart, newCount)) + "\n")
		builder.WriteString(body.String())

		for _, l := range all[i:end] {
			if l.op != diffmatchpatch.DiffInsert {
				oldLine++
			}
			if l.op != diffmatchpatch.DiffDelete {
				newLine++
			}
		}
		i = end
	}

	return builder.String()
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
