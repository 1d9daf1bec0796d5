// Package textdoc provides the immutable text document model shared by the
// block engine: snapshots with pointer identity, a line index, change sets
// with atomic range replacement, and selections.
package textdoc

import "sort"

// Document is an immutable snapshot of a text buffer.
//
// Documents are compared by pointer. Every change produces a new *Document,
// so two snapshots with equal text but different history are still distinct;
// callers that memoize per snapshot rely on this.
type Document struct {
	text  string
	lines []LineInfo
}

// LineInfo holds the byte offsets of a single line.
type LineInfo struct {
	// StartOffset is the byte index of the line start.
	StartOffset int

	// NewlineStart is the byte index where newline characters begin.
	// For the last line this equals EndOffset.
	NewlineStart int

	// EndOffset is the byte index just after the newline (or end of text).
	EndOffset int
}

// Line is a resolved line of a document.
type Line struct {
	// Number is 1-based.
	Number int

	// From is the offset of the first byte of the line.
	From int

	// To is the offset just before the line break.
	To int

	// Text is the line content without the line break.
	Text string
}

// Len returns the length of the line content in bytes.
func (l Line) Len() int {
	return l.To - l.From
}

// New creates a document snapshot from text.
func New(text string) *Document {
	return &Document{
		text:  text,
		lines: BuildLines(text),
	}
}

// BuildLines constructs line metadata for text.
// It handles both LF and CRLF line endings. Text always has at least one
// line, and a trailing newline opens a final empty line.
func BuildLines(text string) []LineInfo {
	lines := make([]LineInfo, 0, 16)
	lineStart := 0

	for idx := 0; idx < len(text); idx++ {
		if text[idx] != '\n' {
			continue
		}

		newlineStart := idx
		if idx > 0 && text[idx-1] == '\r' {
			newlineStart = idx - 1
		}

		lines = append(lines, LineInfo{
			StartOffset:  lineStart,
			NewlineStart: newlineStart,
			EndOffset:    idx + 1,
		})
		lineStart = idx + 1
	}

	lines = append(lines, LineInfo{
		StartOffset:  lineStart,
		NewlineStart: len(text),
		EndOffset:    len(text),
	})

	return lines
}

// String returns the full text.
func (d *Document) String() string {
	return d.text
}

// Len returns the document length in bytes.
func (d *Document) Len() int {
	return len(d.text)
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Line returns the 1-based line n. It returns false if n is out of range.
func (d *Document) Line(n int) (Line, bool) {
	if n < 1 || n > len(d.lines) {
		return Line{}, false
	}
	info := d.lines[n-1]
	return Line{
		Number: n,
		From:   info.StartOffset,
		To:     info.NewlineStart,
		Text:   d.text[info.StartOffset:info.NewlineStart],
	}, true
}

// LineInfo returns the raw offsets of the 1-based line n.
func (d *Document) LineInfo(n int) (LineInfo, bool) {
	if n < 1 || n > len(d.lines) {
		return LineInfo{}, false
	}
	return d.lines[n-1], true
}

// LineAt returns the line containing offset. Offsets are clamped to the
// document, so the result is always a valid line.
func (d *Document) LineAt(offset int) Line {
	offset = d.Clamp(offset)

	idx := sort.Search(len(d.lines), func(i int) bool {
		return d.lines[i].EndOffset > offset
	})
	if idx >= len(d.lines) {
		idx = len(d.lines) - 1
	}

	line, _ := d.Line(idx + 1)
	return line
}

// Slice returns the text in [from, to). Bounds are clamped.
func (d *Document) Slice(from, to int) string {
	from = d.Clamp(from)
	to = d.Clamp(to)
	if to < from {
		return ""
	}
	return d.text[from:to]
}

// Clamp limits offset to [0, Len()].
func (d *Document) Clamp(offset int) int {
	return max(0, min(offset, len(d.text)))
}
