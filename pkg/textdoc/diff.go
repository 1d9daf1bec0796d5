package textdoc

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff computes a change set that turns a into b. It is used when a buffer
// is replaced wholesale (for example a file reloaded from disk) so that
// positions anchored in a can still be mapped into b.
func Diff(a, b *Document) ChangeSet {
	if a.String() == b.String() {
		return ChangeSet{baseLen: a.Len()}
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a.String(), b.String(), false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var changes []Change
	pos := 0
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += len(d.Text)
		case diffmatchpatch.DiffDelete:
			changes = appendChange(changes, Change{From: pos, To: pos + len(d.Text)})
			pos += len(d.Text)
		case diffmatchpatch.DiffInsert:
			changes = appendChange(changes, Change{From: pos, To: pos, Insert: d.Text})
		}
	}

	cs, err := NewChangeSet(a.Len(), changes...)
	if err != nil {
		// Fall back to a whole-document replacement; it is always valid.
		cs, _ = NewChangeSet(a.Len(), Change{From: 0, To: a.Len(), Insert: b.String()})
	}
	return cs
}

// appendChange merges a change into the previous one when they touch, so a
// delete followed by an insert at the same spot becomes one replacement.
func appendChange(changes []Change, c Change) []Change {
	if n := len(changes); n > 0 && changes[n-1].To == c.From {
		last := &changes[n-1]
		last.To = c.To
		last.Insert += c.Insert
		return changes
	}
	return append(changes, c)
}
