// Package config defines core configuration types for mdblocks.
// These types are pure data structures with no dependency on how they are loaded.
package config

import "time"

// WriteBack selects how much of an admonition a nested edit rewrites.
type WriteBack string

const (
	// WriteBackBody replaces only the body lines.
	WriteBackBody WriteBack = "body"
	// WriteBackSpan re-emits the header line and replaces the whole block.
	WriteBackSpan WriteBack = "span"
)

// IsValid returns true if the write-back scope is known.
func (w WriteBack) IsValid() bool {
	switch w {
	case WriteBackBody, WriteBackSpan:
		return true
	default:
		return false
	}
}

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Defaults.
const (
	DefaultDebounce   = 10 * time.Millisecond
	DefaultTailWindow = 140 * time.Millisecond
	DefaultLineHeight = 20
	DefaultTheme      = "catppuccin-mocha"
	DefaultLogLevel   = "info"
)

// Config is the root configuration structure for mdblocks.
type Config struct {
	// Debounce is the quiet delay after a text change before rebuilding.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`

	// TailWindow keeps a gesture selecting briefly after its last selection change.
	TailWindow time.Duration `mapstructure:"tail_window" yaml:"tail_window"`

	// LineHeight is the pixel line height used for height estimates.
	LineHeight int `mapstructure:"line_height" yaml:"line_height"`

	// Theme is the chroma style used for code fences.
	Theme string `mapstructure:"theme" yaml:"theme"`

	// Highlight enables syntax highlighting of code fences.
	Highlight *bool `mapstructure:"highlight" yaml:"highlight,omitempty"`

	// WriteBack is the admonition write-back scope.
	WriteBack WriteBack `mapstructure:"write_back" yaml:"write_back"`

	// Kinds lists the block kinds rendered. Empty means all.
	Kinds []string `mapstructure:"kinds" yaml:"kinds,omitempty"`

	// Color is the color mode: auto, always or never.
	Color string `mapstructure:"color" yaml:"color"`

	// LogLevel is the default log level.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// CLI-level options (not persisted to config files).

	// Format specifies the output format.
	Format OutputFormat `mapstructure:"-" yaml:"-"`

	// Width is the render width in columns. Zero means the terminal width.
	Width int `mapstructure:"-" yaml:"-"`

	// DryRun shows what an edit would change without writing it.
	DryRun bool `mapstructure:"-" yaml:"-"`
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	highlight := true
	return &Config{
		Debounce:   DefaultDebounce,
		TailWindow: DefaultTailWindow,
		LineHeight: DefaultLineHeight,
		Theme:      DefaultTheme,
		Highlight:  &highlight,
		WriteBack:  WriteBackBody,
		Color:      ColorAuto,
		LogLevel:   DefaultLogLevel,
		Format:     FormatText,
	}
}

// HighlightEnabled reports whether highlighting is on. Unset means on.
func (c *Config) HighlightEnabled() bool {
	return c.Highlight == nil || *c.Highlight
}
