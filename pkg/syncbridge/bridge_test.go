package syncbridge_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/syncbridge"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

const scenarioA = "> [!NOTE] Title\n> line one\n> line two\n"

func mountFirst(t *testing.T, b *syncbridge.Bridge, cache *blocks.Cache, doc *textdoc.Document) *syncbridge.Mount {
	t.Helper()

	spans := cache.Get(doc)
	require.NotEmpty(t, spans)
	return b.Mount(spans[0])
}

func apply(t *testing.T, doc *textdoc.Document, cs textdoc.ChangeSet) *textdoc.Document {
	t.Helper()

	next, err := cs.Apply(doc)
	require.NoError(t, err)
	return next
}

func TestWriteBodyReplacesOnlyBody(t *testing.T) {
	t.Parallel()

	cache := blocks.NewCache()
	b := syncbridge.New(cache)
	doc := textdoc.New(scenarioA)
	m := mountFirst(t, b, cache, doc)

	cs, err := b.WriteBody(doc, m, "line one\nline three")
	require.NoError(t, err)

	changes := cs.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, len("> [!NOTE] Title\n"), changes[0].From, "header is untouched")

	assert.Equal(t, "> [!NOTE] Title\n> line one\n> line three\n", apply(t, doc, cs).String())
}

func TestWriteBodyFollowsEditsElsewhere(t *testing.T) {
	t.Parallel()

	cache := blocks.NewCache()
	b := syncbridge.New(cache)
	doc := textdoc.New("intro\n\n" + scenarioA)
	m := mountFirst(t, b, cache, doc)

	// Grow the text above the block after it was mounted.
	grow, err := textdoc.Replace(doc, 0, 5, "a much longer introduction")
	require.NoError(t, err)
	doc = apply(t, doc, grow)
	b.Map(grow)

	cs, err := b.WriteBody(doc, m, "changed")
	require.NoError(t, err)
	assert.Equal(t, "a much longer introduction\n\n> [!NOTE] Title\n> changed\n", apply(t, doc, cs).String())
}

func TestWriteBodyStale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(t *testing.T, b *syncbridge.Bridge, doc *textdoc.Document, m *syncbridge.Mount) *textdoc.Document
	}{
		{
			name: "block deleted",
			setup: func(t *testing.T, b *syncbridge.Bridge, doc *textdoc.Document, _ *syncbridge.Mount) *textdoc.Document {
				t.Helper()
				cs, err := textdoc.Replace(doc, 0, doc.Len(), "plain text\n")
				require.NoError(t, err)
				b.Map(cs)
				return apply(t, doc, cs)
			},
		},
		{
			name: "unmounted",
			setup: func(_ *testing.T, b *syncbridge.Bridge, doc *textdoc.Document, m *syncbridge.Mount) *textdoc.Document {
				b.Unmount(m)
				return doc
			},
		},
		{
			name: "kind changed",
			setup: func(t *testing.T, b *syncbridge.Bridge, doc *textdoc.Document, _ *syncbridge.Mount) *textdoc.Document {
				t.Helper()
				// Turning the header into a plain quote line leaves a Quote.
				cs, err := textdoc.Replace(doc, 2, 9, "")
				require.NoError(t, err)
				b.Map(cs)
				return apply(t, doc, cs)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cache := blocks.NewCache()
			b := syncbridge.New(cache)
			doc := textdoc.New(scenarioA)
			m := mountFirst(t, b, cache, doc)

			doc = tt.setup(t, b, doc, m)
			_, err := b.WriteBody(doc, m, "x")
			require.ErrorIs(t, err, syncbridge.ErrStale)
		})
	}
}

func TestWriteBodyDeletedBlockLeavesSiblingAlone(t *testing.T) {
	t.Parallel()

	const note = "> [!NOTE] A\n> one\n"
	cache := blocks.NewCache()
	b := syncbridge.New(cache)
	doc := textdoc.New(note + "> [!TIP] B\n> two\n")

	spans := cache.Get(doc)
	require.Len(t, spans, 2)
	noteKey, tipKey := b.Mount(spans[0]), b.Mount(spans[1])

	cs, err := textdoc.Replace(doc, 0, len(note), "")
	require.NoError(t, err)
	doc = apply(t, doc, cs)
	b.Map(cs)

	// The deleted block's key now sits where the sibling starts.
	assert.Equal(t, noteKey.From, noteKey.To)
	_, err = b.WriteBody(doc, noteKey, "hijacked")
	require.ErrorIs(t, err, syncbridge.ErrStale)

	span, err := b.Resolve(doc, tipKey)
	require.NoError(t, err)
	assert.Equal(t, "B", span.Header)
}

func TestLineEnding(t *testing.T) {
	t.Parallel()

	for text, want := range map[string]string{
		"> a\n> b\n":     "\n",
		"> a\r\n> b\r\n": "\r\n",
		"> a":            "\n",
	} {
		cache := blocks.NewCache()
		doc := textdoc.New(text)
		spans := cache.Get(doc)
		require.NotEmpty(t, spans)
		assert.Equal(t, want, syncbridge.LineEnding(doc, spans[0]), "%q", text)
	}
}

func TestWriteBodyEmptyAdmonition(t *testing.T) {
	t.Parallel()

	cache := blocks.NewCache()
	b := syncbridge.New(cache)
	doc := textdoc.New("> [!TIP] Hint\nafter\n")
	m := mountFirst(t, b, cache, doc)

	cs, err := b.WriteBody(doc, m, "first\n\nthird")
	require.NoError(t, err)
	doc = apply(t, doc, cs)
	b.Map(cs)
	assert.Equal(t, "> [!TIP] Hint\n> first\n>\n> third\nafter\n", doc.String())

	cs, err = b.WriteBody(doc, m, "")
	require.NoError(t, err)
	assert.Equal(t, "> [!TIP] Hint\nafter\n", apply(t, doc, cs).String())
}

func TestWriteBodySpanScope(t *testing.T) {
	t.Parallel()

	cache := blocks.NewCache()
	b := syncbridge.New(cache, syncbridge.WithScope(syncbridge.ScopeSpan))
	doc := textdoc.New(scenarioA)
	m := mountFirst(t, b, cache, doc)

	cs, err := b.WriteBody(doc, m, "only")
	require.NoError(t, err)

	changes := cs.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, 0, changes[0].From)
	assert.Equal(t, "> [!NOTE] Title\n> only\n", apply(t, doc, cs).String())
}

func TestSpanScopeWritesTwiceWithoutRemount(t *testing.T) {
	t.Parallel()

	cache := blocks.NewCache()
	b := syncbridge.New(cache, syncbridge.WithScope(syncbridge.ScopeSpan))
	doc := textdoc.New("intro\n" + scenarioA)
	m := mountFirst(t, b, cache, doc)

	for _, body := range []string{"first", "second\nthird"} {
		cs, err := b.WriteBody(doc, m, body)
		require.NoError(t, err)
		doc = apply(t, doc, cs)
		b.Map(cs)
		assert.Less(t, m.From, m.To, "the key moves onto the rewritten block")
	}
	assert.Equal(t, "intro\n> [!NOTE] Title\n> second\n> third\n", doc.String())
}

func TestWriteBodyOtherKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		body string
		want string
	}{
		{"quote", "> a\n> b\n", "c\nd", "> c\n> d\n"},
		{"code fence", "```go\nx\n```\n", "y := 2", "```go\ny := 2\n```\n"},
		{"unchanged", "> a\n", "a", "> a\n"},
		{"crlf admonition", "> [!NOTE] T\r\n> a\r\n", "b\nc", "> [!NOTE] T\r\n> b\r\n> c\r\n"},
		{"crlf quote", "> a\r\n> b\r\n", "c\n\nd", "> c\r\n>\r\n> d\r\n"},
		{"crlf code fence", "```go\r\nx\r\n```\r\n", "y\nz", "```go\r\ny\r\nz\r\n```\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cache := blocks.NewCache()
			b := syncbridge.New(cache)
			doc := textdoc.New(tt.text)
			m := mountFirst(t, b, cache, doc)

			cs, err := b.WriteBody(doc, m, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, apply(t, doc, cs).String())
		})
	}

	cache := blocks.NewCache()
	b := syncbridge.New(cache)
	doc := textdoc.New("---\n")
	_, err := b.WriteBody(doc, mountFirst(t, b, cache, doc), "x")
	require.ErrorIs(t, err, syncbridge.ErrNoBody)
}

func TestMapKeepsKeysOrdered(t *testing.T) {
	t.Parallel()

	b := syncbridge.New(blocks.NewCache())
	m := b.Mount(blocks.Span{Kind: blocks.KindQuote, From: 10, To: 20})

	cs, err := textdoc.NewChangeSet(30,
		textdoc.Change{From: 10, To: 10, Insert: "ab"},
		textdoc.Change{From: 20, To: 20, Insert: "cd"},
	)
	require.NoError(t, err)
	b.Map(cs)
	assert.Equal(t, 12, m.From, "start follows insertions at it")
	assert.Equal(t, 22, m.To, "end stays before insertions at it")

	swallow, err := textdoc.NewChangeSet(34, textdoc.Change{From: 5, To: 30})
	require.NoError(t, err)
	b.Map(swallow)
	assert.Equal(t, m.From, m.To)
	assert.Equal(t, 1, b.Mounts())

	b.Unmount(m)
	b.Unmount(m)
	assert.Zero(t, b.Mounts())
	assert.False(t, m.Mounted())
}

func TestParseScope(t *testing.T) {
	t.Parallel()

	s, err := syncbridge.ParseScope("span")
	require.NoError(t, err)
	assert.Equal(t, syncbridge.ScopeSpan, s)

	s, err = syncbridge.ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, syncbridge.ScopeBody, s)
	assert.Equal(t, "body", s.String())

	_, err = syncbridge.ParseScope("header")
	require.Error(t, err)
}

var directiveLike = regexp.MustCompile(`^\s*\[![A-Z]+\]`)

// Round-trip: the body read back after a write equals the body written.
func TestWriteBodyRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.SampledFrom([]string{"admonition", "quote"}).Draw(t, "kind")
		bodyLines := rapid.SliceOfN(
			rapid.StringMatching(`[a-z >\[\]!#-]{0,12}`).Filter(func(s string) bool {
				return !directiveLike.MatchString(s)
			}),
			1, 6,
		).Draw(t, "body")
		body := strings.Join(bodyLines, "\n")

		before := rapid.SampledFrom([]string{"", "intro\n\n", "---\n"}).Draw(t, "before")
		after := rapid.SampledFrom([]string{"", "\noutro\n", "\n```go\nx\n```\n"}).Draw(t, "after")

		block := "> [!NOTE] Title\n> seed\n"
		if kind == "quote" {
			block = "> seed\n"
		}
		doc := textdoc.New(before + block + after)

		cache := blocks.NewCache()
		b := syncbridge.New(cache)
		idx := blocks.Find(cache.Get(doc), kindOf(kind), len(before), len(before)+1)
		if idx < 0 {
			t.Fatalf("seed block not found in %q", doc.String())
		}
		m := b.Mount(cache.Get(doc)[idx])

		cs, err := b.WriteBody(doc, m, body)
		if err != nil {
			t.Fatalf("write: %v", err)
		}
		next, err := cs.Apply(doc)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		b.Map(cs)

		got, err := b.Resolve(next, m)
		if err != nil {
			t.Fatalf("resolve after write in %q: %v", next.String(), err)
		}
		if got.Body != body {
			t.Fatalf("body %q read back as %q from %q", body, got.Body, next.String())
		}
	})
}

func kindOf(name string) blocks.Kind {
	if name == "quote" {
		return blocks.KindQuote
	}
	return blocks.KindAdmonition
}

func TestMatch(t *testing.T) {
	t.Parallel()

	b := syncbridge.New(blocks.NewCache())
	keys := []*syncbridge.Mount{
		b.Mount(blocks.Span{Kind: blocks.KindQuote, From: 0, To: 10}),
		b.Mount(blocks.Span{Kind: blocks.KindAdmonition, From: 0, To: 10}),
		b.Mount(blocks.Span{Kind: blocks.KindAdmonition, From: 8, To: 30}),
		b.Mount(blocks.Span{Kind: blocks.KindAdmonition, From: 12, To: 17}),
	}

	span := blocks.Span{Kind: blocks.KindAdmonition, From: 5, To: 20}
	assert.Equal(t, 2, syncbridge.Match(keys, span, nil), "largest overlap wins")

	assert.Equal(t, 1, syncbridge.Match(keys, span, func(i int) bool { return i != 2 }),
		"equal overlap prefers the nearest start")

	b.Unmount(keys[2])
	b.Unmount(keys[1])
	b.Unmount(keys[3])
	assert.Equal(t, -1, syncbridge.Match(keys, span, nil))
}
