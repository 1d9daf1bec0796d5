package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/surface"
	"github.com/yaklabco/mdblocks/pkg/syncbridge"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
	"github.com/yaklabco/mdblocks/pkg/visibility"
)

// Decoration is the visual form chosen for one span.
type Decoration struct {
	Span blocks.Span
	Mode visibility.Mode

	// Widget is set for rendered spans.
	Widget surface.Widget
}

// Overlay is the set of decorations built for one document snapshot.
// Between a text change and the next rebuild, decorations are mapped
// through the change and Doc is the newer snapshot.
type Overlay struct {
	Doc         *textdoc.Document
	Decorations []Decoration
}

// Rendered returns the decorations shown as widgets.
func (o Overlay) Rendered() []Decoration {
	var out []Decoration
	for _, d := range o.Decorations {
		if d.Mode == visibility.Rendered {
			out = append(out, d)
		}
	}
	return out
}

// mapped moves decorations through cs, dropping any that collapse.
func (o Overlay) mapped(doc *textdoc.Document, cs textdoc.ChangeSet) Overlay {
	out := Overlay{Doc: doc, Decorations: make([]Decoration, 0, len(o.Decorations))}
	for _, d := range o.Decorations {
		from := cs.MapPos(d.Span.From, textdoc.AssocAfter)
		to := cs.MapPos(d.Span.To, textdoc.AssocBefore)
		if to <= from {
			continue
		}
		d.Span.From, d.Span.To = from, to
		out.Decorations = append(out.Decorations, d)
	}
	return out
}

// Overlay returns the current decorations.
func (v *View) Overlay() Overlay {
	return v.overlay
}

// Spans returns the blocks of the current document.
func (v *View) Spans() []blocks.Span {
	return v.cache.Get(v.state.Doc)
}

// Rebuild rescans the document, decides every span's mode, and reconciles
// widgets: a rendered span reuses the previous widget whose key matches it
// and whose content is unchanged; other widgets are destroyed.
func (v *View) Rebuild() {
	if v.closed {
		return
	}

	doc := v.state.Doc
	var spans []blocks.Span
	for _, s := range v.cache.Get(doc) {
		if v.kinds[s.Kind] {
			spans = append(spans, s)
		}
	}
	decisions := v.policy.Decide(spans, v.state.Selection)
	v.settleSelection(spans)

	prev := v.mounted
	keys := make([]*syncbridge.Mount, len(prev))
	for i, m := range prev {
		keys[i] = m.key
	}
	taken := make([]bool, len(prev))

	next := make([]*mounted, 0, len(decisions))
	decorations := make([]Decoration, 0, len(decisions))
	for _, d := range decisions {
		dec := Decoration{Span: d.Span, Mode: d.Mode}
		if d.Mode == visibility.Rendered {
			m := v.reuse(prev, keys, taken, d.Span)
			if m == nil {
				m = v.mount(d.Span)
			}
			if m != nil {
				next = append(next, m)
				dec.Widget = m.widget
			}
		}
		decorations = append(decorations, dec)
	}

	for i, m := range prev {
		if !taken[i] {
			m.widget.Destroy()
			v.bridge.Unmount(m.key)
		}
	}

	v.mounted = next
	v.overlay = Overlay{Doc: doc, Decorations: decorations}
	v.rebuilds++

	stats := v.cache.Stats()
	v.logger.Debug("rebuilt overlay",
		"nested", v.opts.nested,
		"spans", len(spans),
		"widgets", len(next),
		"cache_hits", stats.Hits,
		"cache_misses", stats.Misses,
	)
	v.notify(Update{Prev: v.state, State: v.state, Redraw: true})
}

// settleSelection schedules one more rebuild for when the selection tail
// runs out, so a block under a resting caret reveals without further input.
func (v *View) settleSelection(spans []blocks.Span) {
	wait := v.tracker.SettlesIn()
	if wait <= 0 {
		return
	}
	for _, s := range spans {
		if visibility.Touches(s, v.state.Selection) {
			v.sched.SettleAfter(wait)
			return
		}
	}
}

func (v *View) reuse(prev []*mounted, keys []*syncbridge.Mount, taken []bool, span blocks.Span) *mounted {
	i := syncbridge.Match(keys, span, func(i int) bool {
		return !taken[i] && prev[i].widget.Matches(span)
	})
	if i < 0 {
		return nil
	}
	taken[i] = true
	m := prev[i]
	m.widget.Rebind(span)
	v.bridge.Remount(m.key, span)
	return m
}

func (v *View) mount(span blocks.Span) *mounted {
	w := surface.Build(span, v.deps)
	if w == nil {
		return nil
	}
	m := &mounted{widget: w, key: v.bridge.Mount(span)}
	if adm, ok := w.(*surface.Admonition); ok {
		adm.OnBodyChange(func(body string) { v.writeBack(m.key, body) })
	}
	return m
}

// writeBack routes a nested edit into this view's document. Stale edits are
// dropped.
func (v *View) writeBack(key *syncbridge.Mount, body string) {
	if v.closed {
		return
	}
	cs, err := v.bridge.WriteBody(v.state.Doc, key, body)
	if err != nil {
		v.logger.Debug("write-back dropped", "error", err)
		return
	}
	if cs.Empty() {
		return
	}
	if err := v.Dispatch(Transaction{Changes: cs}); err != nil {
		v.logger.Debug("write-back dispatch failed", "error", err)
	}
}

// ErrNoBlock is returned when a block index is out of range.
var ErrNoBlock = errors.New("no such block")

// EditBody replaces the body of the index-th block (0-based, in document
// order). Rendered admonitions are edited through their nested view, which
// writes back through the bridge; other blocks are written directly.
func (v *View) EditBody(index int, body string) error {
	if v.closed {
		return ErrClosed
	}
	spans := v.Spans()
	if index < 0 || index >= len(spans) {
		return fmt.Errorf("block %d of %d: %w", index, len(spans), ErrNoBlock)
	}
	span := spans[index]

	for _, d := range v.overlay.Decorations {
		if d.Widget == nil || d.Span.From != span.From || d.Span.Kind != span.Kind {
			continue
		}
		adm, ok := d.Widget.(*surface.Admonition)
		if !ok {
			break
		}
		nested, err := adm.Nested()
		if err != nil {
			return fmt.Errorf("open nested view: %w", err)
		}
		if child, ok := nested.(*View); ok {
			return child.ReplaceAll(body)
		}
	}

	key := v.bridge.Mount(span)
	defer v.bridge.Unmount(key)

	cs, err := v.bridge.WriteBody(v.state.Doc, key, body)
	if err != nil {
		return fmt.Errorf("edit block %d: %w", index, err)
	}
	return v.Dispatch(Transaction{Changes: cs})
}

// NewNested builds a nested view over body with this view's collaborators
// and extensions. The child shares the gesture tracker so a gesture settles
// in every surface at once.
//
//nolint:ireturn // the widget only needs the editor surface
func (v *View) NewNested(body string, onChange func(body string)) (surface.Editor, error) {
	if v.closed {
		return nil, ErrClosed
	}
	o := v.opts
	nestedOpts := []Option{
		WithTracker(v.tracker),
		WithClock(o.clock),
		WithExecutor(o.executor),
		WithHighlighter(o.highlighter),
		WithClipboard(o.clipboard),
		WithStyles(o.styles),
		WithLogger(o.logger),
		WithExtensions(o.extensions...),
		WithDebounce(o.debounce),
		WithLineHeight(o.lineHeight),
		WithWriteBack(o.scope),
		AsNested(onChange),
	}
	if o.syncHighlight {
		nestedOpts = append(nestedOpts, WithSyncHighlight())
	}
	return New(body, nestedOpts...), nil
}

// Render draws the document with rendered spans replaced by their widgets.
func (v *View) Render(width int) string {
	doc := v.overlay.Doc
	if doc == nil {
		doc = v.state.Doc
	}

	var b strings.Builder
	pos := 0
	for _, d := range v.overlay.Decorations {
		if d.Mode != visibility.Rendered || d.Widget == nil || d.Span.From < pos {
			continue
		}
		b.WriteString(doc.Slice(pos, d.Span.From))
		b.WriteString(d.Widget.Render(width))
		pos = d.Span.To
	}
	b.WriteString(doc.Slice(pos, doc.Len()))
	return b.String()
}
