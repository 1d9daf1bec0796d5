package config

import (
	"bytes"
	"fmt"
	"strings"
)

// commentWrapWidth is the maximum width for wrapped comments in templates.
const commentWrapWidth = 70

// templateField documents one configuration key.
type templateField struct {
	key   string
	doc   string
	value func(*Config) string
}

// templateFields lists keys in the order they appear in templates.
//
//nolint:gochecknoglobals // read-only lookup table
var templateFields = []templateField{
	{"debounce", "Quiet delay after a text change before blocks are re-scanned.",
		func(c *Config) string { return c.Debounce.String() }},
	{"tail_window", "How long a selection gesture keeps blocks rendered after its last selection change.",
		func(c *Config) string { return c.TailWindow.String() }},
	{"line_height", "Line height in pixels used to estimate rendered block heights.",
		func(c *Config) string { return fmt.Sprint(c.LineHeight) }},
	{"theme", "Chroma style used to highlight code fences.",
		func(c *Config) string { return c.Theme }},
	{"highlight", "Highlight code fences.",
		func(c *Config) string { return fmt.Sprint(c.HighlightEnabled()) }},
	{"write_back", "How nested callout edits are written back: body rewrites only the body lines, span rewrites the whole callout including its header.",
		func(c *Config) string { return string(c.WriteBack) }},
	{"color", "Color output: auto, always or never.",
		func(c *Config) string { return c.Color }},
	{"log_level", "Log level: debug, info, warn or error.",
		func(c *Config) string { return c.LogLevel }},
}

// GenerateTemplate creates a commented configuration file holding cfg's
// values, or the defaults when cfg is nil.
func GenerateTemplate(cfg *Config) []byte {
	if cfg == nil {
		cfg = NewConfig()
	}

	var buf bytes.Buffer
	buf.WriteString("# mdblocks configuration\n")
	buf.WriteString("# Place this file at .mdblocks.yml in your project or at\n")
	buf.WriteString("# $XDG_CONFIG_HOME/mdblocks/config.yaml.\n")

	for _, f := range templateFields {
		buf.WriteByte('\n')
		for _, line := range wrapComment(f.doc, commentWrapWidth) {
			buf.WriteString("# " + line + "\n")
		}
		fmt.Fprintf(&buf, "%s: %s\n", f.key, f.value(cfg))
	}

	buf.WriteString("\n# Block kinds to render (codefence, admonition, quote, pagebreak).\n")
	if len(cfg.Kinds) == 0 {
		buf.WriteString("# kinds: [admonition, quote, codefence, pagebreak]\n")
	} else {
		fmt.Fprintf(&buf, "kinds: [%s]\n", strings.Join(cfg.Kinds, ", "))
	}

	return buf.Bytes()
}

// wrapComment splits text into lines no wider than width.
func wrapComment(text string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
