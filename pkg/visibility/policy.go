// Package visibility decides whether a block span shows its rendered form or
// its raw source.
package visibility

import (
	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

// Gate reports whether a selection gesture is in progress.
type Gate interface {
	IsSelectingNow() bool
}

// Mode is the visual form of a span.
type Mode uint8

const (
	// Rendered replaces the span with its widget.
	Rendered Mode = iota
	// Revealed shows the raw source for editing.
	Revealed
)

func (m Mode) String() string {
	if m == Revealed {
		return "revealed"
	}
	return "rendered"
}

// Decision pairs a span with its mode.
type Decision struct {
	Span blocks.Span
	Mode Mode
}

// Policy applies one rule to every kind: reveal a span when no gesture is in
// progress and the selection touches it. A non-empty range touches a span it
// intersects; a caret touches a span it lies within, end inclusive.
type Policy struct {
	gate Gate
}

// New creates a policy reading gesture state from gate. A nil gate is never
// selecting.
func New(gate Gate) *Policy {
	return &Policy{gate: gate}
}

// Selecting reports the gate state.
func (p *Policy) Selecting() bool {
	return p.gate != nil && p.gate.IsSelectingNow()
}

// Reveal reports whether span shows its raw source under sel.
func (p *Policy) Reveal(span blocks.Span, sel textdoc.Selection) bool {
	if p.Selecting() {
		return false
	}
	return Touches(span, sel)
}

// Decide classifies every span, reading the gate once.
func (p *Policy) Decide(spans []blocks.Span, sel textdoc.Selection) []Decision {
	selecting := p.Selecting()

	out := make([]Decision, 0, len(spans))
	for _, span := range spans {
		mode := Rendered
		if !selecting && Touches(span, sel) {
			mode = Revealed
		}
		out = append(out, Decision{Span: span, Mode: mode})
	}
	return out
}

// Touches reports whether any range of sel touches span.
func Touches(span blocks.Span, sel textdoc.Selection) bool {
	for _, r := range sel.Ranges {
		if r.Empty() {
			if span.Touches(r.Head) {
				return true
			}
			continue
		}
		if span.Intersects(r.From(), r.To()) {
			return true
		}
	}
	return false
}
