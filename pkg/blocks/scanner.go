package blocks

import (
	"regexp"
	"strings"

	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

// Line patterns. Every pattern is matched against a single line without its
// line break.
var (
	// directivePattern matches an admonition header: "> [!NOTE] Title".
	directivePattern = regexp.MustCompile(`^>\s*\[!([A-Z]+)\](.*)$`)

	// quoteLinePattern matches a quote-prefixed line; the group is the content
	// after the marker and at most one whitespace character.
	quoteLinePattern = regexp.MustCompile(`^>\s?(.*)$`)

	// fenceOpenPattern matches an opening fence with an optional info token.
	fenceOpenPattern = regexp.MustCompile("^```([^\\s`]*)\\s*$")

	// fenceClosePattern matches a closing fence.
	fenceClosePattern = regexp.MustCompile("^```\\s*$")

	// pageBreakPattern matches a bare triple dash.
	pageBreakPattern = regexp.MustCompile(`^\s*---\s*$`)
)

// IsDirectiveLine reports whether line opens an admonition.
func IsDirectiveLine(line string) bool {
	return directivePattern.MatchString(line)
}

// StripQuotePrefix removes one quote marker and at most one following
// whitespace character. It returns false if line is not quote-prefixed.
func StripQuotePrefix(line string) (string, bool) {
	m := quoteLinePattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Scan recovers the ordered, non-overlapping block spans of doc in a single
// pass over its lines.
func Scan(doc *textdoc.Document) []Span {
	s := &scanner{doc: doc}
	s.scan()
	return s.spans
}

type scanner struct {
	doc   *textdoc.Document
	spans []Span

	// fenceSearchFailedAt is the line of the last opener whose closing
	// fence search reached the end of the document. No later opener can
	// be closed either, so the search is never repeated.
	fenceSearchFailedAt int
}

func (s *scanner) scan() {
	n := 1
	total := s.doc.LineCount()
	for n <= total {
		line, _ := s.doc.Line(n)

		if m := fenceOpenPattern.FindStringSubmatch(line.Text); m != nil {
			if closeLine := s.findFenceClose(n); closeLine > 0 {
				s.emitFence(line, closeLine, m[1])
				n = closeLine + 1
				continue
			}
		}

		if m := directivePattern.FindStringSubmatch(line.Text); m != nil {
			n = s.consumeAdmonition(line, m[1], strings.TrimSpace(m[2]))
			continue
		}

		if content, ok := StripQuotePrefix(line.Text); ok {
			n = s.consumeQuote(line, content)
			continue
		}

		if pageBreakPattern.MatchString(line.Text) {
			s.spans = append(s.spans, Span{
				Kind:       KindPageBreak,
				From:       line.From,
				To:         line.To,
				HeaderFrom: line.From,
				HeaderTo:   line.To,
				BodyFrom:   line.From,
				BodyTo:     line.To,
				StartLine:  n,
				EndLine:    n,
			})
		}
		n++
	}
}

// findFenceClose returns the line number of the fence closing the opener
// at line n, or 0 if the fence is unterminated.
func (s *scanner) findFenceClose(n int) int {
	if s.fenceSearchFailedAt > 0 && n > s.fenceSearchFailedAt {
		return 0
	}
	for j := n + 1; j <= s.doc.LineCount(); j++ {
		line, _ := s.doc.Line(j)
		if fenceClosePattern.MatchString(line.Text) {
			return j
		}
	}
	s.fenceSearchFailedAt = n
	return 0
}

func (s *scanner) emitFence(open textdoc.Line, closeLine int, lang string) {
	closing, _ := s.doc.Line(closeLine)
	openInfo, _ := s.doc.LineInfo(open.Number)

	var body strings.Builder
	for j := open.Number + 1; j < closeLine; j++ {
		line, _ := s.doc.Line(j)
		body.WriteString(line.Text)
		body.WriteByte('\n')
	}

	s.spans = append(s.spans, Span{
		Kind:       KindCodeFence,
		From:       open.From,
		To:         closing.To,
		HeaderFrom: open.From,
		HeaderTo:   open.To,
		BodyFrom:   openInfo.EndOffset,
		BodyTo:     closing.From,
		StartLine:  open.Number,
		EndLine:    closeLine,
		Language:   lang,
		Body:       body.String(),
	})
}

// consumeAdmonition reads the body of the admonition opened by header and
// returns the next unconsumed line number.
func (s *scanner) consumeAdmonition(header textdoc.Line, tag, title string) int {
	bodyLines, last := s.continuation(header.Number + 1)

	span := Span{
		Kind:       KindAdmonition,
		From:       header.From,
		To:         header.To,
		HeaderFrom: header.From,
		HeaderTo:   header.To,
		BodyFrom:   header.To,
		BodyTo:     header.To,
		StartLine:  header.Number,
		EndLine:    header.Number,
		Tag:        tag,
		Header:     title,
		Body:       strings.Join(bodyLines, "\n"),
	}
	if last > header.Number {
		first, _ := s.doc.Line(header.Number + 1)
		end, _ := s.doc.Line(last)
		span.BodyFrom = first.From
		span.BodyTo = end.To
		span.To = end.To
		span.EndLine = last
	}

	s.spans = append(s.spans, span)
	return span.EndLine + 1
}

// consumeQuote reads a plain quote opened by first and returns the next
// unconsumed line number.
func (s *scanner) consumeQuote(first textdoc.Line, content string) int {
	rest, last := s.continuation(first.Number + 1)
	end, _ := s.doc.Line(last)

	s.spans = append(s.spans, Span{
		Kind:       KindQuote,
		From:       first.From,
		To:         end.To,
		HeaderFrom: first.From,
		HeaderTo:   first.From,
		BodyFrom:   first.From,
		BodyTo:     end.To,
		StartLine:  first.Number,
		EndLine:    last,
		Body:       strings.Join(append([]string{content}, rest...), "\n"),
	})
	return last + 1
}

// continuation collects quote-prefixed lines from line n onward, stopping at
// the first line that is not quote-prefixed or that opens a new admonition.
// It returns the stripped contents and the last consumed line number
// (n-1 when nothing was consumed).
func (s *scanner) continuation(n int) ([]string, int) {
	var contents []string
	last := n - 1
	for j := n; j <= s.doc.LineCount(); j++ {
		line, _ := s.doc.Line(j)
		if IsDirectiveLine(line.Text) {
			break
		}
		content, ok := StripQuotePrefix(line.Text)
		if !ok {
			break
		}
		contents = append(contents, content)
		last = j
	}
	return contents, last
}
