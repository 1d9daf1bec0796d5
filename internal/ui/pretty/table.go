package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/langdetect"
)

// Table formatting constants.
const (
	tablePadding    = 2
	minLabelWidth   = 8
	minSummaryWidth = 20
	heavySeparator  = "="
	ellipsis        = "..."
)

// TableRow represents a single row in the block table.
type TableRow struct {
	Index   int
	Kind    blocks.Kind
	Lines   string
	Label   string
	Summary string
}

// BlockToTableRow builds the row for the index-th span (0-based).
func BlockToTableRow(index int, span blocks.Span) TableRow {
	row := TableRow{
		Index: index,
		Kind:  span.Kind,
		Lines: fmt.Sprintf("%d-%d", span.StartLine, span.EndLine),
	}
	if span.StartLine == span.EndLine {
		row.Lines = strconv.Itoa(span.StartLine)
	}

	switch span.Kind {
	case blocks.KindAdmonition:
		row.Label = span.Tag
		row.Summary = span.Header
	case blocks.KindCodeFence:
		row.Label = langdetect.Label(span.Language, span.Body)
	}
	if row.Summary == "" {
		row.Summary = firstLine(span.Body)
	}
	return row
}

// TableFormatter formats block spans as a styled table.
type TableFormatter struct {
	styles    *Styles
	termWidth int
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(styles *Styles, termWidth int) *TableFormatter {
	if termWidth <= 0 {
		termWidth = DefaultWidth
	}
	return &TableFormatter{styles: styles, termWidth: termWidth}
}

type columnWidths struct {
	index, kind, lines, label, summary int
}

// FormatTable formats spans as a table with a header and a separator.
func (t *TableFormatter) FormatTable(spans []blocks.Span) string {
	if len(spans) == 0 {
		return ""
	}

	rows := make([]TableRow, len(spans))
	for i, span := range spans {
		rows[i] = BlockToTableRow(i, span)
	}
	widths := t.calculateColumnWidths(rows)

	var builder strings.Builder
	builder.WriteString(t.formatHeader(widths))
	builder.WriteString("\n")
	builder.WriteString(t.formatSeparator(widths))
	builder.WriteString("\n")
	for _, row := range rows {
		builder.WriteString(t.formatRow(row, widths))
		builder.WriteString("\n")
	}
	return builder.String()
}

func (t *TableFormatter) calculateColumnWidths(rows []TableRow) columnWidths {
	w := columnWidths{index: len("#"), kind: len("KIND"), lines: len("LINES"), label: len("LABEL")}
	for _, r := range rows {
		w.index = max(w.index, len(strconv.Itoa(r.Index)))
		w.kind = max(w.kind, len(r.Kind.String()))
		w.lines = max(w.lines, len(r.Lines))
		w.label = max(w.label, len(r.Label))
	}
	w.label = max(minLabelWidth, min(w.label, 16))

	used := w.index + w.kind + w.lines + w.label + 4*tablePadding
	w.summary = max(minSummaryWidth, t.termWidth-used)
	return w
}

func (t *TableFormatter) formatHeader(w columnWidths) string {
	cells := []string{
		pad("#", w.index), pad("KIND", w.kind), pad("LINES", w.lines),
		pad("LABEL", w.label), "SUMMARY",
	}
	return t.styles.TableHeader.Render(strings.Join(cells, strings.Repeat(" ", tablePadding)))
}

func (t *TableFormatter) formatSeparator(w columnWidths) string {
	total := w.index + w.kind + w.lines + w.label + w.summary + 4*tablePadding
	return t.styles.TableSeparator.Render(strings.Repeat(heavySeparator, min(total, t.termWidth)))
}

func (t *TableFormatter) formatRow(r TableRow, w columnWidths) string {
	cells := []string{
		t.styles.Index.Render(pad(strconv.Itoa(r.Index), w.index)),
		t.styles.Kind(r.Kind).Render(pad(r.Kind.String(), w.kind)),
		t.styles.Location.Render(pad(r.Lines, w.lines)),
		t.styles.Label.Render(pad(truncateString(r.Label, w.label), w.label)),
		truncateString(r.Summary, w.summary),
	}
	return strings.TrimRight(strings.Join(cells, strings.Repeat(" ", tablePadding)), " ")
}

func pad(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// truncateString shortens str to maxLen columns, marking the cut.
func truncateString(str string, maxLen int) string {
	if lipgloss.Width(str) <= maxLen {
		return str
	}
	if maxLen <= len(ellipsis) {
		return str[:maxLen]
	}
	runes := []rune(str)
	for lipgloss.Width(string(runes))+len(ellipsis) > maxLen {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ellipsis
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
