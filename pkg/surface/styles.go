package surface

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used to draw widgets.
type Styles struct {
	// Admonition
	CalloutBox    lipgloss.Style
	CalloutHeader lipgloss.Style
	EditHint      lipgloss.Style

	// Quote
	QuoteBox lipgloss.Style

	// Code fence
	CodePanel lipgloss.Style
	CodeLabel lipgloss.Style
	CodeBody  lipgloss.Style

	// Page break
	Divider lipgloss.Style

	tagColors map[string]lipgloss.Color
	color     bool
}

// tagPalette maps admonition tags to ANSI 256 colors.
//
//nolint:gochecknoglobals // read-only lookup table
var tagPalette = map[string]lipgloss.Color{
	"NOTE":      lipgloss.Color("12"),
	"INFO":      lipgloss.Color("12"),
	"TIP":       lipgloss.Color("10"),
	"SUCCESS":   lipgloss.Color("10"),
	"IMPORTANT": lipgloss.Color("13"),
	"WARNING":   lipgloss.Color("11"),
	"CAUTION":   lipgloss.Color("9"),
	"DANGER":    lipgloss.Color("9"),
}

const defaultTagColor = lipgloss.Color("8")

// NewStyles creates widget styles with or without color.
func NewStyles(colorEnabled bool) *Styles {
	left := lipgloss.Border{Left: "┃"}
	bar := lipgloss.Border{Left: "│"}

	s := &Styles{
		CalloutBox: lipgloss.NewStyle().
			Border(left, false, false, false, true).
			PaddingLeft(1),
		CalloutHeader: lipgloss.NewStyle().Bold(true),
		EditHint:      lipgloss.NewStyle(),
		QuoteBox: lipgloss.NewStyle().
			Border(bar, false, false, false, true).
			PaddingLeft(1),
		CodePanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			PaddingLeft(1).
			PaddingRight(1),
		CodeLabel: lipgloss.NewStyle(),
		CodeBody:  lipgloss.NewStyle(),
		Divider:   lipgloss.NewStyle(),
		color:     colorEnabled,
	}

	if !colorEnabled {
		return s
	}

	s.tagColors = tagPalette
	s.EditHint = s.EditHint.Foreground(lipgloss.Color("8"))
	s.QuoteBox = s.QuoteBox.BorderForeground(lipgloss.Color("8")).Italic(true)
	s.CodePanel = s.CodePanel.BorderForeground(lipgloss.Color("8"))
	s.CodeLabel = s.CodeLabel.Foreground(lipgloss.Color("8")).Italic(true)
	s.Divider = s.Divider.Foreground(lipgloss.Color("8"))
	return s
}

// TagColor returns the accent color for an admonition tag.
func (s *Styles) TagColor(tag string) lipgloss.Color {
	if c, ok := s.tagColors[strings.ToUpper(tag)]; ok {
		return c
	}
	return defaultTagColor
}

// Callout returns the box and header styles for tag.
func (s *Styles) Callout(tag string) (lipgloss.Style, lipgloss.Style) {
	if !s.color {
		return s.CalloutBox, s.CalloutHeader
	}
	c := s.TagColor(tag)
	return s.CalloutBox.BorderForeground(c), s.CalloutHeader.Foreground(c)
}
