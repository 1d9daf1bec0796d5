package surface

import (
	"strings"

	"github.com/yaklabco/mdblocks/pkg/blocks"
)

// nestedDirectiveMarker identifies directive lines inside an admonition body.
const nestedDirectiveMarker = "> [!"

// Admonition renders a callout box whose body is a nested editable view.
type Admonition struct {
	base

	nested    Editor
	nestedErr error
	onBody    func(body string)
}

// Label returns the header text, or the tag when the header is empty.
func (a *Admonition) Label() string {
	if a.span.Header != "" {
		return a.span.Header
	}
	return a.span.Tag
}

// Editable reports whether the widget offers an edit affordance. Nested
// hosts never do.
func (a *Admonition) Editable() bool {
	return a.deps.Host != nil && !a.deps.Host.IsNested()
}

// Edit reveals the source by placing the caret at the end of the span.
func (a *Admonition) Edit() bool {
	if !a.Editable() {
		return false
	}
	return a.moveCaret(a.span.To)
}

// OnBodyChange sets the handler receiving edits made in the nested view.
func (a *Admonition) OnBodyChange(fn func(body string)) {
	a.onBody = fn
}

// Nested returns the nested view, creating it on first use.
//
//nolint:ireturn // the nested view is supplied by the host's factory
func (a *Admonition) Nested() (Editor, error) {
	if a.nested != nil || a.nestedErr != nil || a.destroyed {
		return a.nested, a.nestedErr
	}
	if a.deps.Factory == nil {
		return nil, nil
	}

	a.nested, a.nestedErr = a.deps.Factory.NewNested(a.span.Body, a.bodyChanged)
	if a.nestedErr != nil {
		a.deps.Logger.Debug("nested view unavailable", "tag", a.span.Tag, "error", a.nestedErr)
	}
	return a.nested, a.nestedErr
}

func (a *Admonition) bodyChanged(body string) {
	if a.destroyed || a.onBody == nil {
		return
	}
	a.onBody(body)
}

// Matches compares span's body with the nested view's text once the view
// exists, since edits made in it reach the parent only after a rebuild.
func (a *Admonition) Matches(span blocks.Span) bool {
	if a.nested == nil {
		return a.base.Matches(span)
	}
	return span.Kind == a.span.Kind &&
		span.Tag == a.span.Tag &&
		span.Header == a.span.Header &&
		a.nested.Text() == span.Body
}

// Render draws the callout. The nested view is built on first render.
func (a *Admonition) Render(width int) string {
	box, header := a.deps.Styles.Callout(a.span.Tag)

	head := header.Render(a.Label())
	if a.Editable() {
		head += " " + a.deps.Styles.EditHint.Render("[edit]")
	}

	inner := width - box.GetHorizontalFrameSize()
	body := a.span.Body
	if nested, err := a.Nested(); err == nil && nested != nil {
		body = nested.Render(inner)
	}

	content := head
	if body != "" {
		content += "\n" + body
	}
	if inner > 0 {
		box = box.Width(inner + box.GetHorizontalPadding())
	}
	return box.Render(content)
}

// EstimatedHeight sizes top-level callouts from their body, with extra room
// for each nested directive.
func (a *Admonition) EstimatedHeight() (int, bool) {
	if a.deps.Host != nil && a.deps.Host.IsNested() {
		return 0, false
	}

	lines := strings.Split(a.span.Body, "\n")
	directives := 0
	for _, l := range lines {
		if strings.Contains(l, nestedDirectiveMarker) {
			directives++
		}
	}

	h := (len(lines)+2+directives)*a.deps.LineHeight + directives*75
	if directives == 0 {
		h += 40
	}
	return h, true
}

// Destroy closes the nested view.
func (a *Admonition) Destroy() {
	if a.destroyed {
		return
	}
	a.base.Destroy()
	if a.nested != nil {
		a.nested.Close()
		a.nested = nil
	}
}
