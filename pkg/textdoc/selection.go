package textdoc

// Range is a selection range. Anchor is where the selection started and
// Head is where it currently ends; Head may precede Anchor.
type Range struct {
	Anchor int
	Head   int
}

// Cursor returns a collapsed range at pos.
func Cursor(pos int) Range {
	return Range{Anchor: pos, Head: pos}
}

// From returns the lower bound.
func (r Range) From() int {
	return min(r.Anchor, r.Head)
}

// To returns the upper bound.
func (r Range) To() int {
	return max(r.Anchor, r.Head)
}

// Empty reports whether the range is a caret.
func (r Range) Empty() bool {
	return r.Anchor == r.Head
}

// Map maps both ends through a change set.
func (r Range) Map(cs ChangeSet) Range {
	return Range{
		Anchor: cs.MapPos(r.Anchor, AssocAfter),
		Head:   cs.MapPos(r.Head, AssocAfter),
	}
}

// Selection is an ordered set of ranges with one main range.
type Selection struct {
	Ranges    []Range
	MainIndex int
}

// Single returns a selection holding one range.
func Single(r Range) Selection {
	return Selection{Ranges: []Range{r}}
}

// Main returns the primary range. An empty selection reports a caret at 0.
func (s Selection) Main() Range {
	if len(s.Ranges) == 0 {
		return Cursor(0)
	}
	if s.MainIndex < 0 || s.MainIndex >= len(s.Ranges) {
		return s.Ranges[0]
	}
	return s.Ranges[s.MainIndex]
}

// Map maps every range through a change set.
func (s Selection) Map(cs ChangeSet) Selection {
	out := Selection{Ranges: make([]Range, len(s.Ranges)), MainIndex: s.MainIndex}
	for i, r := range s.Ranges {
		out.Ranges[i] = r.Map(cs)
	}
	return out
}

// Clamp limits every range to [0, n].
func (s Selection) Clamp(n int) Selection {
	out := Selection{Ranges: make([]Range, len(s.Ranges)), MainIndex: s.MainIndex}
	for i, r := range s.Ranges {
		out.Ranges[i] = Range{
			Anchor: max(0, min(r.Anchor, n)),
			Head:   max(0, min(r.Head, n)),
		}
	}
	return out
}

// Equal reports whether two selections hold the same ranges.
func (s Selection) Equal(o Selection) bool {
	if len(s.Ranges) != len(o.Ranges) || s.Main() != o.Main() {
		return false
	}
	for i := range s.Ranges {
		if s.Ranges[i] != o.Ranges[i] {
			return false
		}
	}
	return true
}
