// Package blocks recovers block-level constructs (admonitions, quotes,
// fenced code, page breaks) from plain text.
package blocks

import "strings"

// Kind classifies a block span.
type Kind uint8

// Block kinds, in the order a scan pass tries them on a line.
const (
	KindCodeFence Kind = iota + 1
	KindAdmonition
	KindQuote
	KindPageBreak
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindAdmonition:
		return "admonition"
	case KindQuote:
		return "quote"
	case KindCodeFence:
		return "codefence"
	case KindPageBreak:
		return "pagebreak"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for _, k := range AllKinds() {
		if strings.EqualFold(k.String(), s) {
			return k, true
		}
	}
	return 0, false
}

// AllKinds returns every block kind.
func AllKinds() []Kind {
	return []Kind{KindAdmonition, KindQuote, KindCodeFence, KindPageBreak}
}

// Span is one block construct recovered by a scan pass.
//
// Offsets are byte offsets into the scanned document. [From, To) covers the
// whole construct from the first byte of its opening line to the end of its
// last line, excluding that line's line break.
type Span struct {
	Kind Kind

	From int
	To   int

	// HeaderFrom/HeaderTo cover the opening line for admonitions and fences.
	// Quotes have an empty header at From; page breaks use the full range.
	HeaderFrom int
	HeaderTo   int

	// BodyFrom/BodyTo cover the continuation lines. For fences the range
	// runs up to the start of the closing line so its text equals Body.
	BodyFrom int
	BodyTo   int

	// StartLine and EndLine are the 1-based first and last lines.
	StartLine int
	EndLine   int

	// Tag is the directive name of an admonition ("NOTE", "WARNING").
	Tag string

	// Header is the trimmed text after an admonition directive.
	Header string

	// Language is the fence info token; empty when the fence has none.
	Language string

	// Body is the content with quote prefixes stripped, newline-joined.
	// Fence bodies keep a trailing newline after every code line.
	Body string
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	return s.To - s.From
}

// Lines returns the number of source lines the span covers.
func (s Span) Lines() int {
	return s.EndLine - s.StartLine + 1
}

// HasSeparateBody reports whether header and body are distinct ranges.
func (s Span) HasSeparateBody() bool {
	return s.Kind == KindAdmonition || s.Kind == KindCodeFence
}

// Overlap returns the number of bytes shared by the span and [from, to).
// Empty ranges touching the span count as an overlap of zero but are
// reported through Touches.
func (s Span) Overlap(from, to int) int {
	return max(0, min(s.To, to)-max(s.From, from))
}

// Touches reports whether pos lies within [From, To], end inclusive.
func (s Span) Touches(pos int) bool {
	return pos >= s.From && pos <= s.To
}

// Intersects reports whether the non-empty range [from, to) shares at
// least one byte with the span.
func (s Span) Intersects(from, to int) bool {
	return from < s.To && s.From < to
}
