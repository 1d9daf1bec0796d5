// Package syncbridge writes edits made inside a nested surface back into the
// parent document.
//
// Offsets captured when a widget was mounted go stale as soon as the parent
// is edited elsewhere. Each mounted widget therefore carries a structural
// key, its kind plus an anchor range mapped through every change applied to
// the parent, and a write-back re-resolves that key against a fresh scan of
// the current document before touching any text.
package syncbridge

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

// ErrStale is returned when a write-back no longer resolves to a block.
var ErrStale = errors.New("stale write-back: block no longer present")

// ErrNoBody is returned for kinds without an editable body.
var ErrNoBody = errors.New("block kind has no body")

// Scope selects how much of an admonition a write-back replaces.
type Scope uint8

const (
	// ScopeBody replaces only the body lines and leaves the header alone.
	ScopeBody Scope = iota
	// ScopeSpan re-emits the header line and replaces the whole span.
	ScopeSpan
)

func (s Scope) String() string {
	if s == ScopeSpan {
		return "span"
	}
	return "body"
}

// ParseScope parses "body" or "span".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "body":
		return ScopeBody, nil
	case "span":
		return ScopeSpan, nil
	default:
		return ScopeBody, fmt.Errorf("unknown write-back scope %q (want body or span)", s)
	}
}

// Mount is the structural key of a mounted widget.
type Mount struct {
	Kind blocks.Kind
	From int
	To   int

	mounted bool
}

// Mounted reports whether the key is still live.
func (m *Mount) Mounted() bool {
	return m != nil && m.mounted
}

// Bridge tracks mounted keys for one parent view.
type Bridge struct {
	cache  *blocks.Cache
	scope  Scope
	logger *log.Logger
	mounts []*Mount
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithScope sets the admonition write-back scope.
func WithScope(s Scope) Option {
	return func(b *Bridge) { b.scope = s }
}

// WithLogger sets the logger used for dropped write-backs.
func WithLogger(l *log.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a bridge that resolves spans through cache, which should be
// the parent view's own cache.
func New(cache *blocks.Cache, opts ...Option) *Bridge {
	b := &Bridge{
		cache:  cache,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Scope returns the configured write-back scope.
func (b *Bridge) Scope() Scope {
	return b.scope
}

// Mount registers a key for span.
func (b *Bridge) Mount(span blocks.Span) *Mount {
	m := &Mount{Kind: span.Kind, From: span.From, To: span.To, mounted: true}
	b.mounts = append(b.mounts, m)
	return m
}

// Remount moves a live key onto span after a rebuild matched it.
func (b *Bridge) Remount(m *Mount, span blocks.Span) {
	if !m.Mounted() {
		return
	}
	m.From, m.To = span.From, span.To
}

// Unmount retires a key. Later write-backs through it are stale.
func (b *Bridge) Unmount(m *Mount) {
	if !m.Mounted() {
		return
	}
	m.mounted = false
	for i, x := range b.mounts {
		if x == m {
			b.mounts = append(b.mounts[:i], b.mounts[i+1:]...)
			return
		}
	}
}

// Mounts returns the number of live keys.
func (b *Bridge) Mounts() int {
	return len(b.mounts)
}

// Map moves every key through a change applied to the parent. A key's start
// follows text inserted at it and its end stays before text inserted at it.
// A key whose whole range is replaced by new text moves onto that text; one
// whose range is deleted collapses and goes stale.
func (b *Bridge) Map(cs textdoc.ChangeSet) {
	if cs.Empty() {
		return
	}
	for _, m := range b.mounts {
		from := cs.MapPos(m.From, textdoc.AssocAfter)
		to := cs.MapPos(m.To, textdoc.AssocBefore)
		if to <= from {
			from, to = replacedRange(cs, m.From, m.To, from)
		}
		m.From, m.To = from, max(from, to)
	}
}

// replacedRange returns the inserted range of the change covering
// [from, to), or an empty range at fallback when no non-empty insertion
// covers it.
func replacedRange(cs textdoc.ChangeSet, from, to, fallback int) (int, int) {
	newFrom, newTo := fallback, fallback
	cs.Each(func(fromA, toA, fromB, toB int, insert string) {
		if fromA <= from && toA >= to && fromA < toA && insert != "" {
			newFrom, newTo = fromB, toB
		}
	})
	return newFrom, newTo
}

// Resolve finds the span in doc that m currently denotes. Keys are mounted
// on non-empty spans, so a key whose range collapsed had its block deleted
// and only ever resolves to ErrStale; otherwise the span must share at least
// one byte with the key's range.
func (b *Bridge) Resolve(doc *textdoc.Document, m *Mount) (blocks.Span, error) {
	if !m.Mounted() || m.To <= m.From {
		return blocks.Span{}, ErrStale
	}
	spans := b.cache.Get(doc)
	idx := blocks.Find(spans, m.Kind, m.From, m.To)
	if idx < 0 || spans[idx].Overlap(m.From, m.To) == 0 {
		return blocks.Span{}, ErrStale
	}
	return spans[idx], nil
}

// WriteBody builds the change that makes the block keyed by m hold body.
// The change is empty when the block already holds body.
func (b *Bridge) WriteBody(doc *textdoc.Document, m *Mount, body string) (textdoc.ChangeSet, error) {
	span, err := b.Resolve(doc, m)
	if err != nil {
		b.logger.Debug("dropping write-back", "kind", m.Kind, "from", m.From, "to", m.To)
		return textdoc.ChangeSet{}, err
	}

	from, to, insert, err := b.replacement(span, body, LineEnding(doc, span))
	if err != nil {
		return textdoc.ChangeSet{}, err
	}
	if doc.Slice(from, to) == insert {
		return textdoc.ChangeSet{}, nil
	}

	cs, err := textdoc.Replace(doc, from, to, insert)
	if err != nil {
		return textdoc.ChangeSet{}, fmt.Errorf("write %s body: %w", span.Kind, err)
	}
	return cs, nil
}

func (b *Bridge) replacement(span blocks.Span, body, nl string) (int, int, string, error) {
	switch span.Kind {
	case blocks.KindAdmonition:
		if b.scope == ScopeSpan {
			text := HeaderLine(span.Tag, span.Header)
			if body != "" {
				text += nl + PrefixLines(body, nl)
			}
			return span.From, span.To, text, nil
		}
		if body == "" {
			// Drop the body lines, keeping the header line intact.
			return span.HeaderTo, span.To, "", nil
		}
		if span.BodyFrom == span.BodyTo && span.BodyTo == span.HeaderTo {
			return span.HeaderTo, span.HeaderTo, nl + PrefixLines(body, nl), nil
		}
		return span.BodyFrom, span.BodyTo, PrefixLines(body, nl), nil

	case blocks.KindQuote:
		return span.BodyFrom, span.BodyTo, PrefixLines(body, nl), nil

	case blocks.KindCodeFence:
		body = strings.ReplaceAll(body, "\r\n", "\n")
		if body != "" && !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		return span.BodyFrom, span.BodyTo, strings.ReplaceAll(body, "\n", nl), nil

	default:
		return 0, 0, "", fmt.Errorf("write %s: %w", span.Kind, ErrNoBody)
	}
}

// Prefix quote-prefixes every line of body. Empty lines become a bare ">".
func Prefix(body string) string {
	return PrefixLines(body, "\n")
}

// PrefixLines is Prefix with the lines joined by nl. Body lines may end in
// either LF or CRLF.
func PrefixLines(body, nl string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = ">"
			continue
		}
		lines[i] = "> " + l
	}
	return strings.Join(lines, nl)
}

// LineEnding returns the line break that ends the first line of span in doc,
// "\r\n" for CRLF documents and "\n" otherwise.
func LineEnding(doc *textdoc.Document, span blocks.Span) string {
	info, ok := doc.LineInfo(span.StartLine)
	if ok && info.EndOffset-info.NewlineStart == 2 {
		return "\r\n"
	}
	return "\n"
}

// HeaderLine formats an admonition header line.
func HeaderLine(tag, header string) string {
	if header == "" {
		return "> [!" + tag + "]"
	}
	return "> [!" + tag + "] " + header
}

// Match returns the index of the key that best denotes span: a live key of
// the same kind whose range overlaps it, preferring the largest overlap and
// then the nearest start. accept may veto candidates. It returns -1 when no
// key qualifies.
func Match(keys []*Mount, span blocks.Span, accept func(i int) bool) int {
	best, bestOverlap, bestDist := -1, 0, 0
	for i, k := range keys {
		if !k.Mounted() || k.Kind != span.Kind {
			continue
		}
		overlap := span.Overlap(k.From, k.To)
		if overlap <= 0 {
			continue
		}
		if accept != nil && !accept(i) {
			continue
		}
		dist := abs(k.From - span.From)
		if overlap > bestOverlap || (overlap == bestOverlap && dist < bestDist) {
			best, bestOverlap, bestDist = i, overlap, dist
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
