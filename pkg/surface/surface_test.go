package surface_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/clipboard"
	"github.com/yaklabco/mdblocks/pkg/schedule"
	"github.com/yaklabco/mdblocks/pkg/surface"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

type fakeHost struct {
	nested      bool
	carets      []int
	invalidated int
}

func (h *fakeHost) MoveCaret(pos int) { h.carets = append(h.carets, pos) }
func (h *fakeHost) IsNested() bool    { return h.nested }
func (h *fakeHost) Invalidate()       { h.invalidated++ }

type fakeEditor struct {
	text     string
	onChange func(string)
	closed   bool
}

func (e *fakeEditor) Text() string        { return e.text }
func (e *fakeEditor) Render(int) string   { return "nested:" + e.text }
func (e *fakeEditor) Close()              { e.closed = true }
func (e *fakeEditor) typeBody(body string) { e.text = body; e.onChange(body) }

type fakeFactory struct {
	built []*fakeEditor
	err   error
}

func (f *fakeFactory) NewNested(body string, onChange func(string)) (surface.Editor, error) {
	if f.err != nil {
		return nil, f.err
	}
	e := &fakeEditor{text: body, onChange: onChange}
	f.built = append(f.built, e)
	return e, nil
}

type fakeHighlighter struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
	err   error
}

func (h *fakeHighlighter) Highlight(_ context.Context, code, lang string) (string, error) {
	if h.gate != nil {
		<-h.gate
	}
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	if h.err != nil {
		return "", h.err
	}
	return "<" + lang + ">" + code, nil
}

func scanOne(t *testing.T, text string) blocks.Span {
	t.Helper()

	spans := blocks.Scan(textdoc.New(text))
	require.Len(t, spans, 1)
	return spans[0]
}

func TestBuildKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		kind blocks.Kind
	}{
		{"> [!NOTE] Title\n> body\n", blocks.KindAdmonition},
		{"> quoted\n", blocks.KindQuote},
		{"```go\nx\n```\n", blocks.KindCodeFence},
		{"---\n", blocks.KindPageBreak},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			t.Parallel()

			w := surface.Build(scanOne(t, tt.text), surface.Deps{})
			require.NotNil(t, w)
			assert.Equal(t, tt.kind, w.Kind())
			assert.NotEmpty(t, w.Render(40))
		})
	}

	assert.Nil(t, surface.Build(blocks.Span{}, surface.Deps{}))
}

func TestAdmonitionNestedViewIsLazy(t *testing.T) {
	t.Parallel()

	factory := &fakeFactory{}
	host := &fakeHost{}
	span := scanOne(t, "> [!NOTE] Title\n> line one\n> line two\n")
	w := surface.Build(span, surface.Deps{Host: host, Factory: factory})
	adm, ok := w.(*surface.Admonition)
	require.True(t, ok)

	assert.Empty(t, factory.built)

	out := adm.Render(60)
	require.Len(t, factory.built, 1)
	assert.Equal(t, "line one\nline two", factory.built[0].text)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "[edit]")
	assert.Contains(t, out, "nested:line one")

	adm.Render(60)
	assert.Len(t, factory.built, 1, "nested view is built once")

	var got []string
	adm.OnBodyChange(func(body string) { got = append(got, body) })
	factory.built[0].typeBody("line one\nline three")
	assert.Equal(t, []string{"line one\nline three"}, got)
	assert.False(t, adm.Matches(span), "nested text diverged from the span")
	written := scanOne(t, "> [!NOTE] Title\n> line one\n> line three\n")
	assert.True(t, adm.Matches(written), "the written-back span keeps the nested view")

	adm.Destroy()
	assert.True(t, factory.built[0].closed)
	assert.True(t, adm.Destroyed())

	factory.built[0].typeBody("late")
	assert.Len(t, got, 1, "edits after destroy are dropped")
}

func TestAdmonitionNestedFactoryError(t *testing.T) {
	t.Parallel()

	span := scanOne(t, "> [!TIP]\n> body\n")
	w := surface.Build(span, surface.Deps{Factory: &fakeFactory{err: errors.New("boom")}})
	adm := w.(*surface.Admonition)

	out := adm.Render(40)
	assert.Contains(t, out, "TIP", "empty header falls back to the tag")
	assert.Contains(t, out, "body")
	_, err := adm.Nested()
	require.Error(t, err)
}

func TestAdmonitionEditAffordance(t *testing.T) {
	t.Parallel()

	span := scanOne(t, "> [!NOTE] Title\n> body\n")

	top := &fakeHost{}
	adm := surface.Build(span, surface.Deps{Host: top}).(*surface.Admonition)
	require.True(t, adm.Editable())
	require.True(t, adm.Edit())
	assert.Equal(t, []int{span.To}, top.carets)

	nested := &fakeHost{nested: true}
	inner := surface.Build(span, surface.Deps{Host: nested}).(*surface.Admonition)
	assert.False(t, inner.Editable())
	assert.False(t, inner.Edit())
	assert.NotContains(t, inner.Render(40), "[edit]")
	assert.Empty(t, nested.carets)
}

func TestAdmonitionEstimatedHeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		nested bool
		want   int
		ok     bool
	}{
		{"two body lines", "> [!NOTE] T\n> a\n> b\n", false, (2+2)*10 + 40, true},
		{"nested directive", "> [!NOTE] T\n> a\n> > [!TIP] x\n", false, (2+2+1)*10 + 75, true},
		{"nested host", "> [!NOTE] T\n> a\n", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := surface.Build(scanOne(t, tt.text), surface.Deps{
				Host:       &fakeHost{nested: tt.nested},
				LineHeight: 10,
			})
			h, ok := w.EstimatedHeight()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, h)
		})
	}
}

func TestCodeFenceSyncHighlight(t *testing.T) {
	t.Parallel()

	hl := &fakeHighlighter{}
	span := scanOne(t, "```python\nprint(1)\n```\n")
	w := surface.Build(span, surface.Deps{Highlighter: hl, LineHeight: 10}).(*surface.CodeFence)

	assert.Equal(t, "python", w.Label())
	assert.Equal(t, "print(1)\n", w.Code())

	out := w.Render(40)
	assert.True(t, w.Highlighted())
	assert.Contains(t, out, "<python>print(1)")

	h, ok := w.EstimatedHeight()
	assert.True(t, ok)
	assert.Equal(t, 2*10+10, h)
}

func TestCodeFenceAsyncHighlight(t *testing.T) {
	t.Parallel()

	loop := schedule.NewLoop()
	host := &fakeHost{}
	hl := &fakeHighlighter{}
	span := scanOne(t, "```go\nx := 1\n```\n")
	w := surface.Build(span, surface.Deps{Host: host, Highlighter: hl, Executor: loop}).(*surface.CodeFence)

	first := w.Render(40)
	assert.Contains(t, first, "x := 1")
	assert.NotContains(t, first, "<go>")

	require.Eventually(t, func() bool {
		loop.RunPending()
		return w.Highlighted()
	}, time.Second, time.Millisecond)

	assert.Contains(t, w.Render(40), "<go>x := 1")
	assert.Equal(t, 1, host.invalidated)
}

func TestCodeFenceHighlightAfterDestroyIsDropped(t *testing.T) {
	t.Parallel()

	loop := schedule.NewLoop()
	host := &fakeHost{}
	hl := &fakeHighlighter{gate: make(chan struct{})}
	span := scanOne(t, "```go\nx\n```\n")
	w := surface.Build(span, surface.Deps{Host: host, Highlighter: hl, Executor: loop}).(*surface.CodeFence)

	w.Render(40)
	w.Destroy()
	close(hl.gate)

	require.Eventually(t, func() bool { return loop.RunPending() > 0 }, time.Second, time.Millisecond)
	assert.False(t, w.Highlighted())
	assert.Zero(t, host.invalidated)
}

func TestCodeFenceUntaggedLabel(t *testing.T) {
	t.Parallel()

	guessed := surface.Build(scanOne(t, "```\npackage main\n```\n"), surface.Deps{}).(*surface.CodeFence)
	assert.Equal(t, "go", guessed.Label())

	plain := surface.Build(scanOne(t, "```\nhello\n```\n"), surface.Deps{}).(*surface.CodeFence)
	assert.Equal(t, "text", plain.Label())
}

func TestCodeFenceCopyAndClick(t *testing.T) {
	t.Parallel()

	host := &fakeHost{}
	clip := &clipboard.Memory{}
	span := scanOne(t, "text\n```go\nx := 1\ny := 2\n```\n")
	w := surface.Build(span, surface.Deps{Host: host, Clipboard: clip}).(*surface.CodeFence)

	require.True(t, w.Copy())
	assert.Equal(t, "x := 1\ny := 2\n", clip.Text)

	clip.Err = errors.New("no clipboard")
	assert.False(t, w.Copy(), "failures are swallowed")

	require.True(t, w.ClickBody())
	assert.Equal(t, []int{span.From}, host.carets)
}

func TestQuoteAndPageBreak(t *testing.T) {
	t.Parallel()

	host := &fakeHost{}
	span := scanOne(t, "> first\n> second\n")
	q := surface.Build(span, surface.Deps{Host: host}).(*surface.Quote)

	out := q.Render(30)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.NotContains(t, out, "> ")

	require.True(t, q.Click())
	assert.Equal(t, []int{span.To}, host.carets)

	q.Destroy()
	assert.False(t, q.Click())

	pb := surface.Build(scanOne(t, "---\n"), surface.Deps{})
	assert.Equal(t, strings.Repeat("─", 10), pb.Render(10))
	_, ok := pb.EstimatedHeight()
	assert.False(t, ok)
}

func TestMatchesAndRebind(t *testing.T) {
	t.Parallel()

	a := scanOne(t, "> [!NOTE] T\n> body\n")
	b := scanOne(t, "intro\n\n> [!NOTE] T\n> body\n")
	c := scanOne(t, "> [!NOTE] T\n> other\n")

	w := surface.Build(a, surface.Deps{})
	assert.True(t, w.Matches(b))
	assert.False(t, w.Matches(c))

	w.Rebind(b)
	assert.Equal(t, b.From, w.Span().From)
}

func TestStylesTagColor(t *testing.T) {
	t.Parallel()

	s := surface.NewStyles(true)
	assert.NotEqual(t, s.TagColor("NOTE"), s.TagColor("WARNING"))
	assert.Equal(t, s.TagColor("note"), s.TagColor("NOTE"))
	assert.Equal(t, s.TagColor("CUSTOM"), s.TagColor("OTHER"))
}
