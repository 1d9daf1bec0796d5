// Package highlight renders code with chroma and memoizes the results.
package highlight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultTheme is the chroma style used when none is configured.
	DefaultTheme = "catppuccin-mocha"

	// FormatTerminal emits 24-bit ANSI escapes.
	FormatTerminal = "terminal16m"

	// FormatHTML emits an inline-styled HTML fragment.
	FormatHTML = "html"

	// FormatPlain emits the code unchanged.
	FormatPlain = "noop"

	// DefaultExpiration is how long a memoized result lives.
	DefaultExpiration = 10 * time.Minute

	// DefaultCleanupInterval is how often expired results are purged.
	DefaultCleanupInterval = 30 * time.Minute
)

// Highlighter renders code for one theme and output format.
// It is safe for concurrent use.
type Highlighter struct {
	theme  string
	format string
	cache  *gocache.Cache
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithTheme selects a chroma style by name.
func WithTheme(name string) Option {
	return func(h *Highlighter) {
		if name != "" {
			h.theme = name
		}
	}
}

// WithFormat selects a chroma formatter by name.
func WithFormat(name string) Option {
	return func(h *Highlighter) {
		if name != "" {
			h.format = name
		}
	}
}

// New creates a highlighter with an empty memo.
func New(opts ...Option) *Highlighter {
	h := &Highlighter{
		theme:  DefaultTheme,
		format: FormatTerminal,
		cache:  gocache.New(DefaultExpiration, DefaultCleanupInterval),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Theme returns the configured style name.
func (h *Highlighter) Theme() string {
	return h.theme
}

// Highlight renders code as language. Unknown languages are rendered with
// the plain-text lexer. The trailing newline of code is preserved.
func (h *Highlighter) Highlight(ctx context.Context, code, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("highlight %s: %w", language, err)
	}

	key := h.format + "\x00" + h.theme + "\x00" + language + "\x00" + code
	if v, ok := h.cache.Get(key); ok {
		if s, ok := v.(string); ok {
			return s, nil
		}
	}

	out, err := h.render(code, language)
	if err != nil {
		return "", err
	}

	h.cache.SetDefault(key, out)
	return out, nil
}

// Cached returns the number of memoized results.
func (h *Highlighter) Cached() int {
	return h.cache.ItemCount()
}

// Reset drops every memoized result.
func (h *Highlighter) Reset() {
	h.cache.Flush()
}

func (h *Highlighter) render(code, language string) (string, error) {
	lexer := Lexer(language)

	style := styles.Get(h.theme)
	formatter := Formatter(h.format)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", language, err)
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, it); err != nil {
		return "", fmt.Errorf("format %s: %w", language, err)
	}

	out := buf.String()
	if h.format == FormatTerminal {
		// Keep line structure identical to the input.
		out = strings.TrimRight(out, "\n")
		if strings.HasSuffix(code, "\n") {
			out += "\n"
		}
	}
	return out, nil
}

// Formatter returns the chroma formatter for name. FormatHTML yields an
// embeddable fragment rather than chroma's standalone page.
//
//nolint:ireturn // chroma exposes formatters only as an interface
func Formatter(name string) chroma.Formatter {
	if name == FormatHTML {
		return html.New(html.WithClasses(false), html.TabWidth(4))
	}
	if f := formatters.Get(name); f != nil {
		return f
	}
	return formatters.Fallback
}

// Lexer returns the coalesced lexer for language, falling back to plain text.
//
//nolint:ireturn // chroma exposes lexers only as an interface
func Lexer(language string) chroma.Lexer {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// Known reports whether chroma has a lexer for language.
func Known(language string) bool {
	return language != "" && lexers.Get(language) != nil
}

// Themes lists the available style names.
func Themes() []string {
	return styles.Names()
}

// HasTheme reports whether name is a registered style.
func HasTheme(name string) bool {
	for _, s := range styles.Names() {
		if s == name {
			return true
		}
	}
	return false
}
