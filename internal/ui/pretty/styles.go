// Package pretty provides Lipgloss-based styled output utilities.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/yaklabco/mdblocks/pkg/blocks"
)

// DefaultWidth is the output width used when the writer is not a terminal.
const DefaultWidth = 100

// Styles contains all styled renderers for CLI output.
type Styles struct {
	// Block kinds
	Admonition lipgloss.Style
	Quote      lipgloss.Style
	CodeFence  lipgloss.Style
	PageBreak  lipgloss.Style

	// Listing components
	FilePath lipgloss.Style
	Index    lipgloss.Style
	Location lipgloss.Style
	Label    lipgloss.Style

	// Diff styles
	DiffHeader  lipgloss.Style
	DiffHunk    lipgloss.Style
	DiffAdd     lipgloss.Style
	DiffRemove  lipgloss.Style
	DiffContext lipgloss.Style

	// Summary styles
	SummaryTitle lipgloss.Style
	Success      lipgloss.Style
	Failure      lipgloss.Style
	Warning      lipgloss.Style

	// Table styles
	TableHeader    lipgloss.Style
	TableSeparator lipgloss.Style

	// Misc
	Dim  lipgloss.Style
	Bold lipgloss.Style
}

// NewStyles creates a new Styles with the given color mode.
func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		return newNoColorStyles()
	}
	return newColorStyles()
}

// newColorStyles creates styles with ANSI 256 colors.
func newColorStyles() *Styles {
	return &Styles{
		Admonition: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		Quote:      lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		CodeFence:  lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		PageBreak:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),

		FilePath: lipgloss.NewStyle().Bold(true),
		Index:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Location: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Label:    lipgloss.NewStyle(),

		DiffHeader:  lipgloss.NewStyle().Bold(true),
		DiffHunk:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		DiffAdd:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		DiffRemove:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		DiffContext: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),

		SummaryTitle: lipgloss.NewStyle().Bold(true),
		Success:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Failure:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),

		TableHeader:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")),
		TableSeparator: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),

		Dim:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Bold: lipgloss.NewStyle().Bold(true),
	}
}

// newNoColorStyles creates styles with no color formatting.
func newNoColorStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Admonition:     plain,
		Quote:          plain,
		CodeFence:      plain,
		PageBreak:      plain,
		FilePath:       plain,
		Index:          plain,
		Location:       plain,
		Label:          plain,
		DiffHeader:     plain,
		DiffHunk:       plain,
		DiffAdd:        plain,
		DiffRemove:     plain,
		DiffContext:    plain,
		SummaryTitle:   plain,
		Success:        plain,
		Failure:        plain,
		Warning:        plain,
		TableHeader:    plain,
		TableSeparator: plain,
		Dim:            plain,
		Bold:           plain,
	}
}

// Kind returns the style for a block kind.
func (s *Styles) Kind(k blocks.Kind) lipgloss.Style {
	switch k {
	case blocks.KindAdmonition:
		return s.Admonition
	case blocks.KindQuote:
		return s.Quote
	case blocks.KindCodeFence:
		return s.CodeFence
	case blocks.KindPageBreak:
		return s.PageBreak
	default:
		return s.Dim
	}
}

// IsColorEnabled determines if color should be enabled based on mode and writer.
// Mode values: "auto" (default), "always", "never".
// In auto mode, color is enabled only if the writer is a TTY and NO_COLOR is not set.
func IsColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		// Check NO_COLOR environment variable (https://no-color.org/)
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		if f, ok := writer.(*os.File); ok {
			return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		return false
	}
}

// Width returns the column width of writer when it is a terminal, and
// DefaultWidth otherwise.
func Width(writer io.Writer) int {
	if !IsTerminal(writer) {
		return DefaultWidth
	}
	f, _ := writer.(*os.File)
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// IsTerminal reports whether writer is a terminal.
func IsTerminal(writer io.Writer) bool {
	f, ok := writer.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
