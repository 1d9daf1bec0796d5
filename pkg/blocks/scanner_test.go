package blocks_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

func scan(text string) []blocks.Span {
	return blocks.Scan(textdoc.New(text))
}

func TestScanAdmonition(t *testing.T) {
	t.Parallel()

	text := "> [!NOTE] Title\n> line one\n> line two\n"
	spans := scan(text)
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Equal(t, blocks.KindAdmonition, s.Kind)
	assert.Equal(t, "NOTE", s.Tag)
	assert.Equal(t, "Title", s.Header)
	assert.Equal(t, "line one\nline two", s.Body)
	assert.Equal(t, 0, s.From)
	assert.Equal(t, len(text)-1, s.To)
	assert.Equal(t, "> [!NOTE] Title", text[s.HeaderFrom:s.HeaderTo])
	assert.Equal(t, "> line one\n> line two", text[s.BodyFrom:s.BodyTo])
	assert.Equal(t, 1, s.StartLine)
	assert.Equal(t, 3, s.EndLine)
}

func TestScanCodeFence(t *testing.T) {
	t.Parallel()

	text := "```python\nprint(1)\n```\n"
	spans := scan(text)
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Equal(t, blocks.KindCodeFence, s.Kind)
	assert.Equal(t, "python", s.Language)
	assert.Equal(t, "print(1)\n", s.Body)
	assert.Equal(t, s.Body, text[s.BodyFrom:s.BodyTo])
	assert.Equal(t, "```python", text[s.HeaderFrom:s.HeaderTo])
	assert.Equal(t, len(text)-1, s.To)
}

func TestScanPageBreak(t *testing.T) {
	t.Parallel()

	spans := scan("---\n")
	require.Len(t, spans, 1)
	assert.Equal(t, blocks.Span{
		Kind: blocks.KindPageBreak, From: 0, To: 3,
		HeaderFrom: 0, HeaderTo: 3, BodyFrom: 0, BodyTo: 3,
		StartLine: 1, EndLine: 1,
	}, spans[0])
}

func TestScanTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		kinds []blocks.Kind
	}{
		{"empty document", "", nil},
		{"plain text", "hello\nworld\n", nil},
		{"plain quote", "> a\n> b\n", []blocks.Kind{blocks.KindQuote}},
		{"quote then admonition", "> a\n> [!TIP] x\n> b\n", []blocks.Kind{blocks.KindQuote, blocks.KindAdmonition}},
		{"two admonitions back to back", "> [!NOTE]\n> a\n> [!WARNING] w\n> b", []blocks.Kind{blocks.KindAdmonition, blocks.KindAdmonition}},
		{"unterminated fence", "```go\nfmt.Println()\n", nil},
		{"unterminated fence keeps later blocks", "```go\n> quoted\n---\n", []blocks.Kind{blocks.KindQuote, blocks.KindPageBreak}},
		{"fence hides inner syntax", "```\n> not a quote\n---\n```\n", []blocks.Kind{blocks.KindCodeFence}},
		{"page break with spaces", "  ---  ", []blocks.Kind{blocks.KindPageBreak}},
		{"four dashes is not a page break", "----", nil},
		{"lowercase directive is a quote", "> [!note] x", []blocks.Kind{blocks.KindQuote}},
		{"fence with embedded whitespace is not an opener", "``` go x\ncode\n```\n", nil},
		{"mixed document", "# T\n\n> [!NOTE] n\n> body\n\n```js\nx\n```\n\n---\n> q\n",
			[]blocks.Kind{blocks.KindAdmonition, blocks.KindCodeFence, blocks.KindPageBreak, blocks.KindQuote}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got []blocks.Kind
			for _, s := range scan(tt.text) {
				got = append(got, s.Kind)
			}
			assert.Equal(t, tt.kinds, got)
		})
	}
}

func TestScanPrecedence(t *testing.T) {
	t.Parallel()

	// The directive line also matches the quote pattern; it must open an
	// admonition rather than extend the preceding quote.
	text := "> plain\n> [!WARNING] Careful\n> body\n"
	spans := scan(text)
	require.Len(t, spans, 2)

	assert.Equal(t, blocks.KindQuote, spans[0].Kind)
	assert.Equal(t, "plain", spans[0].Body)
	assert.Equal(t, blocks.KindAdmonition, spans[1].Kind)
	assert.Equal(t, "WARNING", spans[1].Tag)
	assert.Equal(t, "body", spans[1].Body)
}

func TestScanNestedAdmonitionBody(t *testing.T) {
	t.Parallel()

	text := "> [!NOTE] Outer\n> text\n> > [!TIP] Inner\n> > inner body\n"
	spans := scan(text)
	require.Len(t, spans, 1)
	assert.Equal(t, "text\n> [!TIP] Inner\n> inner body", spans[0].Body)

	nested := scan(spans[0].Body)
	require.Len(t, nested, 1)
	assert.Equal(t, blocks.KindAdmonition, nested[0].Kind)
	assert.Equal(t, "Inner", nested[0].Header)
	assert.Equal(t, "inner body", nested[0].Body)
}

func TestScanAdmonitionWithoutBody(t *testing.T) {
	t.Parallel()

	text := "> [!NOTE] Lonely\nafter\n"
	spans := scan(text)
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Equal(t, "", s.Body)
	assert.Equal(t, s.To, s.BodyFrom)
	assert.Equal(t, s.To, s.BodyTo)
	assert.Equal(t, len("> [!NOTE] Lonely"), s.To)
}

func TestScanBareQuoteMarker(t *testing.T) {
	t.Parallel()

	spans := scan("> [!NOTE]\n> a\n>\n> b")
	require.Len(t, spans, 1)
	assert.Equal(t, "a\n\nb", spans[0].Body)
	assert.Equal(t, "", spans[0].Header)
}

func TestStripQuotePrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"> text", "text", true},
		{">text", "text", true},
		{">  two spaces", " two spaces", true},
		{">", "", true},
		{"text", "", false},
		{" > indented", "", false},
	}

	for _, tt := range tests {
		got, ok := blocks.StripQuotePrefix(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

// lineGen draws lines biased towards block syntax.
func lineGen() *rapid.Generator[string] {
	return rapid.SampledFrom([]string{
		"", "text", "> quote", ">", "> [!NOTE] head", "> [!TIP]", "> > nested",
		"```", "```go", "---", " --- ", "fmt.Println()", "> [!x] bad",
	})
}

func TestScanInvariants(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(lineGen(), 0, 40).Draw(t, "lines")
		text := strings.Join(lines, "\n")
		doc := textdoc.New(text)
		spans := blocks.Scan(doc)

		prevTo := -1
		for _, s := range spans {
			if s.From <= prevTo && prevTo >= 0 {
				t.Fatalf("spans overlap or are unordered: %+v", spans)
			}
			if s.To > doc.Len() || s.From > s.To {
				t.Fatalf("span out of bounds: %+v (len %d)", s, doc.Len())
			}
			if s.BodyFrom < s.From || s.BodyTo > s.To || s.BodyFrom > s.BodyTo {
				t.Fatalf("body outside span: %+v", s)
			}
			if s.Kind == blocks.KindQuote {
				for n := s.StartLine; n <= s.EndLine; n++ {
					line, _ := doc.Line(n)
					if blocks.IsDirectiveLine(line.Text) {
						t.Fatalf("directive line %d swallowed by quote", n)
					}
				}
			}
			prevTo = s.To
		}

		// Every directive line outside a fence starts an admonition.
		starts := map[int]bool{}
		inFence := map[int]bool{}
		for _, s := range spans {
			starts[s.StartLine] = s.Kind == blocks.KindAdmonition
			if s.Kind == blocks.KindCodeFence {
				for n := s.StartLine; n <= s.EndLine; n++ {
					inFence[n] = true
				}
			}
		}
		for n := 1; n <= doc.LineCount(); n++ {
			line, _ := doc.Line(n)
			if blocks.IsDirectiveLine(line.Text) && !inFence[n] && !starts[n] {
				t.Fatalf("directive line %d did not open an admonition", n)
			}
		}
	})
}

func TestScanUnterminatedFenceProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		body := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b := 1", "", "--"}), 0, 10).Draw(t, "body")
		text := "```go\n" + strings.Join(body, "\n")
		for _, s := range scan(text) {
			if s.Kind == blocks.KindCodeFence {
				t.Fatalf("unterminated fence produced a span: %+v", s)
			}
		}
	})
}

func TestScanIdempotent(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		text := strings.Join(rapid.SliceOfN(lineGen(), 0, 30).Draw(t, "lines"), "\n")
		doc := textdoc.New(text)
		assert.Equal(t, blocks.Scan(doc), blocks.Scan(doc))
	})
}

func FuzzScan(f *testing.F) {
	f.Add("> [!NOTE] Title\n> body\n")
	f.Add("```go\nx := 1\n```\n")
	f.Add("> quote\n> [!TIP]\n---\r\n```\n")
	f.Add("")

	f.Fuzz(func(t *testing.T, text string) {
		doc := textdoc.New(text)
		prevTo := 0
		for _, s := range blocks.Scan(doc) {
			if s.From < prevTo || s.From > s.To || s.To > doc.Len() {
				t.Fatalf("span out of order or bounds: %+v (len %d)", s, doc.Len())
			}
			if s.BodyFrom < s.From || s.BodyTo > s.To {
				t.Fatalf("body outside span: %+v", s)
			}
			prevTo = s.To
		}
	})
}

func BenchmarkScan(b *testing.B) {
	var sb strings.Builder
	for i := range 200 {
		sb.WriteString("> [!NOTE] Heading\n> body line\n\n")
		sb.WriteString("plain paragraph text\n\n")
		if i%3 == 0 {
			sb.WriteString("```go\nfmt.Println()\n```\n\n---\n\n")
		}
	}
	doc := textdoc.New(sb.String())

	b.ReportAllocs()
	for range b.N {
		blocks.Scan(doc)
	}
}
