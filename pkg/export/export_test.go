package export_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdblocks/pkg/export"
)

type stubHighlighter struct {
	err   error
	langs []string
}

func (s *stubHighlighter) Highlight(_ context.Context, code, language string) (string, error) {
	s.langs = append(s.langs, language)
	if s.err != nil {
		return "", s.err
	}
	return "<pre class=\"hl\">" + strings.ToUpper(code) + "</pre>\n", nil
}

func TestHTMLBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:  "callout",
			input: "> [!WARNING] Careful <now>\n> body *text*\n",
			contains: []string{
				`<div class="callout callout-warning" data-callout="warning">`,
				`<div class="callout-title">Careful &lt;now&gt;</div>`,
				`<div class="callout-body">`,
				"<em>text</em>",
			},
			excludes: []string{"[!WARNING]"},
		},
		{
			name:     "callout without header or body",
			input:    "> [!NOTE]\n",
			contains: []string{`<div class="callout-title">NOTE</div>`},
			excludes: []string{"callout-body"},
		},
		{
			name:     "nested callout",
			input:    "> [!NOTE] Outer\n> > [!TIP] Inner\n> > deep\n",
			contains: []string{"callout-note", "callout-tip", "<p>deep</p>"},
		},
		{
			name:     "quote",
			input:    "> quoted\n> > nested\n",
			contains: []string{"<blockquote>\n<p>quoted</p>\n<blockquote>\n<p>nested</p>"},
		},
		{
			name:     "page break",
			input:    "a\n\n---\n\nb\n",
			contains: []string{"<p>a</p>", `<hr class="page-break">`, "<p>b</p>"},
		},
		{
			name:     "text between blocks",
			input:    "# Title\n\n```go\nx\n```\n\n| a |\n|---|\n| 1 |\n",
			contains: []string{"<h1>Title</h1>", "<table>", `<pre class="hl">X`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := export.New(export.WithHighlighter(&stubHighlighter{}))
			out, err := e.HTML(context.Background(), tt.input)
			require.NoError(t, err)

			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestCodeLabels(t *testing.T) {
	t.Parallel()

	hl := &stubHighlighter{}
	e := export.New(export.WithHighlighter(hl))

	out, err := e.HTML(context.Background(), "```\npackage main\n\nfunc main() {}\n```\n\n```py\nx\n```\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "py"}, hl.langs)
	assert.Contains(t, out, `data-lang="go"`)
}

func TestHighlightFailureFallsBackToPlainCode(t *testing.T) {
	t.Parallel()

	e := export.New(export.WithHighlighter(&stubHighlighter{err: errors.New("boom")}))
	out, err := e.HTML(context.Background(), "```js\na < b\n```\n")
	require.NoError(t, err)

	assert.Contains(t, out, `<pre><code class="language-js">a &lt; b`)
}

func TestNilHighlighter(t *testing.T) {
	t.Parallel()

	out, err := export.New(export.WithHighlighter(nil)).HTML(context.Background(), "```sh\necho\n```\n")
	require.NoError(t, err)
	assert.Contains(t, out, `<pre><code class="language-sh">echo`)
}

func TestDefaultHighlighterEmitsFragment(t *testing.T) {
	t.Parallel()

	out, err := export.New().HTML(context.Background(), "```go\nvar x = 1\n```\n")
	require.NoError(t, err)
	assert.Contains(t, out, "<pre")
	assert.NotContains(t, out, "<html")
}

func TestWithKinds(t *testing.T) {
	t.Parallel()

	e := export.New(export.WithKinds([]string{"pagebreak"}), export.WithHighlighter(nil))
	out, err := e.HTML(context.Background(), "> [!NOTE] T\n> b\n\n---\n")
	require.NoError(t, err)

	assert.NotContains(t, out, "callout")
	assert.Contains(t, out, "<blockquote>")
	assert.Contains(t, out, `<hr class="page-break">`)
}

func TestFlavor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, export.FlavorGFM, export.New().Flavor())
	assert.Equal(t, export.FlavorCommonMark, export.New(export.WithFlavor("bogus")).Flavor())

	out, err := export.New(export.WithFlavor(export.FlavorCommonMark)).HTML(context.Background(), "~~gone~~\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "<del>")
}

func TestWritePage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := export.New().WritePage(context.Background(), &buf, "a & b", "---\n")
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>a &amp; b</title>")
	assert.Contains(t, out, `<hr class="page-break">`)
	assert.True(t, strings.HasSuffix(out, "</html>\n"))
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := export.New().HTML(ctx, "text")
	require.ErrorIs(t, err, context.Canceled)
}
