// Package surface materializes the visual form of block spans: callout
// boxes with nested editable bodies, quotes, highlighted code panels, and
// page dividers.
//
// Widgets are owned by one engine view and used from its goroutine only.
// Asynchronous highlight results are delivered through the view's Executor.
package surface

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/schedule"
)

// DefaultLineHeight is the line height used by height estimates.
const DefaultLineHeight = 20

// Host is the view a widget is mounted in.
type Host interface {
	// MoveCaret places a collapsed caret at pos in the host document.
	MoveCaret(pos int)

	// IsNested reports whether the host is itself a nested view.
	IsNested() bool

	// Invalidate reports that a widget's rendering changed outside a rebuild.
	Invalidate()
}

// Editor is a nested editable view owned by an admonition widget.
type Editor interface {
	Text() string
	Render(width int) string
	Close()
}

// Factory builds nested views. The host engine implements it so nested
// views carry the same extension set as their parent.
type Factory interface {
	NewNested(body string, onChange func(body string)) (Editor, error)
}

// Highlighter renders code for display.
type Highlighter interface {
	Highlight(ctx context.Context, code, language string) (string, error)
}

// Clipboard receives copied code.
type Clipboard interface {
	Write(text string) error
}

// Deps are the collaborators shared by every widget of a view.
type Deps struct {
	Host        Host
	Factory     Factory
	Highlighter Highlighter
	Clipboard   Clipboard

	// Executor delivers highlight results. When nil, highlighting runs
	// synchronously during Render.
	Executor schedule.Executor

	Styles     *Styles
	LineHeight int
	Logger     *log.Logger
}

func (d *Deps) normalize() {
	if d.Styles == nil {
		d.Styles = NewStyles(false)
	}
	if d.LineHeight <= 0 {
		d.LineHeight = DefaultLineHeight
	}
	if d.Logger == nil {
		d.Logger = log.New(io.Discard)
	}
}

// Widget is the replaced visual element for one span.
type Widget interface {
	Kind() blocks.Kind

	// Span returns the span the widget was last bound to.
	Span() blocks.Span

	// Matches reports whether the widget can display span without
	// rebuilding its content.
	Matches(span blocks.Span) bool

	// Rebind moves the widget to span, which must match it.
	Rebind(span blocks.Span)

	Render(width int) string

	// EstimatedHeight returns a layout hint in pixels, if the widget has one.
	EstimatedHeight() (int, bool)

	Destroy()
	Destroyed() bool
}

// Build creates the widget for span. It returns nil for unknown kinds.
//
//nolint:ireturn // widgets are polymorphic by kind
func Build(span blocks.Span, deps Deps) Widget {
	deps.normalize()
	b := base{span: span, deps: &deps}

	switch span.Kind {
	case blocks.KindAdmonition:
		return &Admonition{base: b}
	case blocks.KindCodeFence:
		return newCodeFence(b)
	case blocks.KindQuote:
		return &Quote{base: b}
	case blocks.KindPageBreak:
		return &PageBreak{base: b}
	default:
		return nil
	}
}

type base struct {
	span      blocks.Span
	deps      *Deps
	destroyed bool
}

func (b *base) Kind() blocks.Kind {
	return b.span.Kind
}

func (b *base) Span() blocks.Span {
	return b.span
}

func (b *base) Matches(span blocks.Span) bool {
	return span.Kind == b.span.Kind &&
		span.Tag == b.span.Tag &&
		span.Header == b.span.Header &&
		span.Language == b.span.Language &&
		span.Body == b.span.Body
}

func (b *base) Rebind(span blocks.Span) {
	b.span = span
}

func (b *base) EstimatedHeight() (int, bool) {
	return 0, false
}

func (b *base) Destroy() {
	b.destroyed = true
}

func (b *base) Destroyed() bool {
	return b.destroyed
}

func (b *base) moveCaret(pos int) bool {
	if b.destroyed || b.deps.Host == nil {
		return false
	}
	b.deps.Host.MoveCaret(pos)
	return true
}
