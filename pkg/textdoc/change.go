package textdoc

import (
	"fmt"
	"sort"
	"strings"
)

// Change replaces the bytes [From, To) of a base document with Insert.
type Change struct {
	From   int
	To     int
	Insert string
}

// Assoc selects which side of an insertion a mapped position sticks to.
type Assoc int

const (
	// AssocBefore keeps a position before text inserted at it.
	AssocBefore Assoc = -1
	// AssocAfter moves a position past text inserted at it.
	AssocAfter Assoc = 1
)

// RangeError describes a change whose range does not fit the base document.
type RangeError struct {
	Change  Change
	Message string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid change [%d:%d]: %s", e.Change.From, e.Change.To, e.Message)
}

// ConflictError describes two overlapping changes.
type ConflictError struct {
	First  Change
	Second Change
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlapping changes: [%d:%d] and [%d:%d]",
		e.First.From, e.First.To, e.Second.From, e.Second.To)
}

// ChangeSet is a validated, sorted set of non-overlapping changes against a
// base document of a known length. The zero value is an empty set that
// applies to any document.
type ChangeSet struct {
	baseLen int
	changes []Change
}

// NewChangeSet validates, sorts, and checks changes for conflicts.
func NewChangeSet(baseLen int, changes ...Change) (ChangeSet, error) {
	for _, c := range changes {
		switch {
		case c.From < 0:
			return ChangeSet{}, &RangeError{Change: c, Message: "start offset is negative"}
		case c.To < c.From:
			return ChangeSet{}, &RangeError{Change: c, Message: "end offset is before start offset"}
		case c.To > baseLen:
			return ChangeSet{}, &RangeError{
				Change:  c,
				Message: fmt.Sprintf("end offset %d exceeds document length %d", c.To, baseLen),
			}
		}
	}

	sorted := make([]Change, 0, len(changes))
	for _, c := range changes {
		// No-op changes carry nothing and would only confuse conflict checks.
		if c.From == c.To && c.Insert == "" {
			continue
		}
		sorted = append(sorted, c)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].From != sorted[j].From {
			return sorted[i].From < sorted[j].From
		}
		return sorted[i].To < sorted[j].To
	})

	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		if curr.From < prev.To || (curr.From == prev.From && curr.From == curr.To && prev.From == prev.To) {
			return ChangeSet{}, &ConflictError{First: prev, Second: curr}
		}
	}

	return ChangeSet{baseLen: baseLen, changes: sorted}, nil
}

// Replace is shorthand for a change set with a single replacement.
func Replace(doc *Document, from, to int, insert string) (ChangeSet, error) {
	return NewChangeSet(doc.Len(), Change{From: from, To: to, Insert: insert})
}

// Empty reports whether the set changes nothing.
func (cs ChangeSet) Empty() bool {
	return len(cs.changes) == 0
}

// BaseLen returns the length of the document the set applies to.
func (cs ChangeSet) BaseLen() int {
	return cs.baseLen
}

// NewLen returns the length of the document after applying the set.
func (cs ChangeSet) NewLen() int {
	n := cs.baseLen
	for _, c := range cs.changes {
		n += len(c.Insert) - (c.To - c.From)
	}
	return n
}

// Changes returns a copy of the changes in ascending order.
func (cs ChangeSet) Changes() []Change {
	out := make([]Change, len(cs.changes))
	copy(out, cs.changes)
	return out
}

// Each calls fn for every change in ascending order with both the base
// range [fromA, toA) and the resulting range [fromB, toB).
func (cs ChangeSet) Each(fn func(fromA, toA, fromB, toB int, insert string)) {
	delta := 0
	for _, c := range cs.changes {
		fromB := c.From + delta
		fn(c.From, c.To, fromB, fromB+len(c.Insert), c.Insert)
		delta += len(c.Insert) - (c.To - c.From)
	}
}

// Apply produces a new document with the changes applied. The base document
// must have the length the set was built for.
func (cs ChangeSet) Apply(doc *Document) (*Document, error) {
	if cs.Empty() {
		return doc, nil
	}
	if doc.Len() != cs.baseLen {
		return nil, fmt.Errorf("apply changes: document length %d does not match base length %d",
			doc.Len(), cs.baseLen)
	}

	var out strings.Builder
	out.Grow(cs.NewLen())

	text := doc.String()
	cursor := 0
	for _, c := range cs.changes {
		out.WriteString(text[cursor:c.From])
		out.WriteString(c.Insert)
		cursor = c.To
	}
	out.WriteString(text[cursor:])

	return New(out.String()), nil
}

// MapPos maps a position in the base document to the resulting document.
// Positions inside a replaced range collapse to its start (AssocBefore) or
// to the end of the inserted text (AssocAfter).
func (cs ChangeSet) MapPos(pos int, assoc Assoc) int {
	delta := 0
	for _, c := range cs.changes {
		if pos < c.From {
			break
		}
		if pos > c.To || (pos == c.To && c.From < c.To) {
			delta += len(c.Insert) - (c.To - c.From)
			continue
		}
		if assoc == AssocBefore {
			return c.From + delta
		}
		return c.From + delta + len(c.Insert)
	}
	return pos + delta
}

// Touches reports whether any change overlaps or borders [from, to].
func (cs ChangeSet) Touches(from, to int) bool {
	for _, c := range cs.changes {
		if c.From <= to && c.To >= from {
			return true
		}
	}
	return false
}
