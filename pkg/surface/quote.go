package surface

import "strings"

// Quote renders a block quotation.
type Quote struct {
	base
}

// Click places the caret at the end of the quote, revealing its source.
func (q *Quote) Click() bool {
	return q.moveCaret(q.span.To)
}

// Render draws the unwrapped body beside a quote bar.
func (q *Quote) Render(width int) string {
	box := q.deps.Styles.QuoteBox
	if inner := width - box.GetHorizontalFrameSize(); inner > 0 {
		box = box.Width(inner + box.GetHorizontalPadding())
	}
	body := q.span.Body
	if body == "" {
		body = " "
	}
	return box.Render(body)
}

// PageBreak renders a horizontal divider with no content.
type PageBreak struct {
	base
}

const minDividerWidth = 3

// Render draws a rule across width.
func (p *PageBreak) Render(width int) string {
	return p.deps.Styles.Divider.Render(strings.Repeat("─", max(width, minDividerWidth)))
}
