// Package export renders a document with every block in its rendered form
// as static HTML. Text between blocks goes through goldmark.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/util"

	"github.com/yaklabco/mdblocks/pkg/blocks"
	"github.com/yaklabco/mdblocks/pkg/highlight"
	"github.com/yaklabco/mdblocks/pkg/langdetect"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

// Flavors of the markdown between blocks.
const (
	FlavorCommonMark = "commonmark"
	FlavorGFM        = "gfm"
)

// Highlighter renders code as an HTML fragment.
type Highlighter interface {
	Highlight(ctx context.Context, code, language string) (string, error)
}

// Exporter converts documents to HTML.
type Exporter struct {
	flavor string
	md     goldmark.Markdown
	hl     Highlighter
	kinds  map[blocks.Kind]bool
	logger *log.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithFlavor selects the markdown flavor. Unknown flavors mean CommonMark.
func WithFlavor(flavor string) Option {
	return func(e *Exporter) { e.flavor = flavorOrDefault(flavor) }
}

// WithHighlighter sets the code highlighter. Nil writes code unhighlighted.
func WithHighlighter(h Highlighter) Option {
	return func(e *Exporter) { e.hl = h }
}

// WithKinds limits the blocks rendered as widgets. Other blocks are passed
// to goldmark as ordinary markdown. Empty means all.
func WithKinds(kinds []string) Option {
	return func(e *Exporter) {
		if len(kinds) == 0 {
			e.kinds = nil
			return
		}
		e.kinds = make(map[blocks.Kind]bool, len(kinds))
		for _, name := range kinds {
			if k, ok := blocks.ParseKind(name); ok {
				e.kinds[k] = true
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an exporter. By default code is highlighted with the
// default theme as inline-styled HTML.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		flavor: FlavorGFM,
		hl:     highlight.New(highlight.WithFormat(highlight.FormatHTML)),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.md = newGoldmarkInstance(e.flavor)
	return e
}

// Flavor returns the configured markdown flavor.
func (e *Exporter) Flavor() string {
	return e.flavor
}

// HTML renders text as an HTML fragment.
func (e *Exporter) HTML(ctx context.Context, text string) (string, error) {
	var buf bytes.Buffer
	if err := e.write(ctx, &buf, text); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WritePage writes text as a complete HTML page.
func (e *Exporter) WritePage(ctx context.Context, w io.Writer, title, text string) error {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	buf.Write(util.EscapeHTML([]byte(title)))
	buf.WriteString("</title>\n<style>\n")
	buf.WriteString(pageStyle)
	buf.WriteString("</style>\n</head>\n<body>\n")
	if err := e.write(ctx, &buf, text); err != nil {
		return err
	}
	buf.WriteString("</body>\n</html>\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}

func (e *Exporter) write(ctx context.Context, buf *bytes.Buffer, text string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("export canceled: %w", err)
	}

	doc := textdoc.New(text)
	pos := 0
	for _, span := range blocks.Scan(doc) {
		if e.kinds != nil && !e.kinds[span.Kind] {
			continue
		}
		if err := e.markdown(buf, doc.Slice(pos, span.From)); err != nil {
			return err
		}
		if err := e.block(ctx, buf, span); err != nil {
			return err
		}
		pos = span.To
	}
	return e.markdown(buf, doc.Slice(pos, doc.Len()))
}

func (e *Exporter) markdown(buf *bytes.Buffer, src string) error {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	if err := e.md.Convert([]byte(src), buf); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	return nil
}

func (e *Exporter) block(ctx context.Context, buf *bytes.Buffer, span blocks.Span) error {
	switch span.Kind {
	case blocks.KindAdmonition:
		return e.callout(ctx, buf, span)
	case blocks.KindQuote:
		buf.WriteString("<blockquote>\n")
		if err := e.write(ctx, buf, span.Body); err != nil {
			return err
		}
		buf.WriteString("</blockquote>\n")
	case blocks.KindCodeFence:
		return e.code(ctx, buf, span)
	case blocks.KindPageBreak:
		buf.WriteString("<hr class=\"page-break\">\n")
	}
	return nil
}

func (e *Exporter) callout(ctx context.Context, buf *bytes.Buffer, span blocks.Span) error {
	tag := strings.ToLower(span.Tag)
	label := span.Header
	if label == "" {
		label = span.Tag
	}

	fmt.Fprintf(buf, "<div class=\"callout callout-%s\" data-callout=\"%s\">\n", tag, tag)
	buf.WriteString("<div class=\"callout-title\">")
	buf.Write(util.EscapeHTML([]byte(label)))
	buf.WriteString("</div>\n")
	if span.Body != "" {
		buf.WriteString("<div class=\"callout-body\">\n")
		if err := e.write(ctx, buf, span.Body); err != nil {
			return err
		}
		buf.WriteString("</div>\n")
	}
	buf.WriteString("</div>\n")
	return nil
}

func (e *Exporter) code(ctx context.Context, buf *bytes.Buffer, span blocks.Span) error {
	label := langdetect.Label(span.Language, span.Body)
	fmt.Fprintf(buf, "<figure class=\"code\" data-lang=\"%s\">\n", util.EscapeHTML([]byte(label)))

	if e.hl != nil {
		out, err := e.hl.Highlight(ctx, span.Body, label)
		if err == nil {
			buf.WriteString(out)
			buf.WriteString("</figure>\n")
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("export canceled: %w", ctx.Err())
		}
		e.logger.Debug("highlight failed", "lang", label, "error", err)
	}

	fmt.Fprintf(buf, "<pre><code class=\"language-%s\">", util.EscapeHTML([]byte(label)))
	buf.Write(util.EscapeHTML([]byte(span.Body)))
	buf.WriteString("</code></pre>\n</figure>\n")
	return nil
}

func flavorOrDefault(flavor string) string {
	switch flavor {
	case FlavorCommonMark, FlavorGFM:
		return flavor
	default:
		return FlavorCommonMark
	}
}

//nolint:ireturn // goldmark.Markdown is an external interface type
func newGoldmarkInstance(flavor string) goldmark.Markdown {
	var opts []goldmark.Option
	if flavor == FlavorGFM {
		opts = append(opts, goldmark.WithExtensions(extension.GFM))
	}
	return goldmark.New(opts...)
}

const pageStyle = `body { max-width: 48rem; margin: 2rem auto; font-family: sans-serif; line-height: 1.5; }
.callout { border-left: 4px solid #89b4fa; padding: 0.25rem 1rem; margin: 1rem 0; }
.callout-title { font-weight: bold; }
.callout-warning, .callout-caution { border-color: #f38ba8; }
.callout-tip { border-color: #a6e3a1; }
.callout-important { border-color: #cba6f7; }
blockquote { border-left: 4px solid #9399b2; margin: 1rem 0; padding: 0 1rem; }
figure.code { margin: 1rem 0; }
figure.code pre { padding: 0.75rem; overflow-x: auto; }
hr.page-break { border: 0; border-top: 1px dashed #9399b2; }
`
