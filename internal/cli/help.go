package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yaklabco/mdblocks/internal/configloader"
	"github.com/yaklabco/mdblocks/internal/ui/pretty"
	"github.com/yaklabco/mdblocks/pkg/blocks"
)

// Command groups shown in root help.
const (
	groupInspect = "inspect"
	groupChange  = "change"
	groupSetup   = "setup"
)

func commandGroups() []*cobra.Group {
	return []*cobra.Group{
		{ID: groupInspect, Title: "Inspect documents:"},
		{ID: groupChange, Title: "Change documents:"},
		{ID: groupSetup, Title: "Setup:"},
	}
}

// blockSyntax describes how each block kind is written in a document.
var blockSyntax = map[blocks.Kind]struct{ marker, about string }{
	blocks.KindAdmonition: {"> [!NOTE] Title", "callout; the body is edited in a nested view"},
	blocks.KindQuote:      {"> quoted text", "plain blockquote"},
	blocks.KindCodeFence:  {"```go", "fenced code, highlighted by language"},
	blocks.KindPageBreak:  {"---", "thematic break drawn as a page rule"},
}

// HelpStyles holds the lipgloss styles used by command help.
type HelpStyles struct {
	Heading lipgloss.Style
	Command lipgloss.Style
	Flag    lipgloss.Style
	Marker  lipgloss.Style
	Dim     lipgloss.Style
}

// NewHelpStyles returns help styles, plain when color is off.
func NewHelpStyles(colorEnabled bool) HelpStyles {
	fg := func(c string) lipgloss.Style {
		if !colorEnabled {
			return lipgloss.NewStyle()
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return HelpStyles{
		Heading: fg("11").Bold(colorEnabled),
		Command: fg("10"),
		Flag:    fg("12"),
		Marker:  fg("13"),
		Dim:     fg("8"),
	}
}

// HelpFormatter writes grouped, styled help for the command tree.
type HelpFormatter struct {
	styles HelpStyles
}

// NewHelpFormatter creates a formatter for colorMode as seen on writer.
func NewHelpFormatter(colorMode string, writer io.Writer) *HelpFormatter {
	return &HelpFormatter{styles: NewHelpStyles(pretty.IsColorEnabled(colorMode, writer))}
}

// ApplyToCommand installs the formatter on cmd. Subcommands inherit it.
func (h *HelpFormatter) ApplyToCommand(cmd *cobra.Command) {
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		if err := h.writeHelp(c.OutOrStdout(), c); err != nil {
			c.PrintErrln(err)
		}
	})
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		return h.writeUsage(c.OutOrStderr(), c)
	})
}

func (h *HelpFormatter) writeHelp(w io.Writer, cmd *cobra.Command) error {
	var b, u strings.Builder
	b.WriteString(h.styles.Command.Render(cmd.CommandPath()))
	if cmd.Version != "" {
		b.WriteString(" " + h.styles.Dim.Render(cmd.Version))
	}
	b.WriteString("\n\n")
	if text := strings.TrimSpace(cmd.Long); text != "" {
		b.WriteString(text + "\n\n")
	} else if cmd.Short != "" {
		b.WriteString(cmd.Short + "\n\n")
	}
	h.usage(&u, cmd)

	if _, err := io.WriteString(w, b.String()+u.String()); err != nil {
		return fmt.Errorf("write help: %w", err)
	}
	return nil
}

func (h *HelpFormatter) writeUsage(w io.Writer, cmd *cobra.Command) error {
	var b strings.Builder
	h.usage(&b, cmd)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write usage: %w", err)
	}
	return nil
}

// usage writes the sections shared by help and usage output.
func (h *HelpFormatter) usage(b *strings.Builder, cmd *cobra.Command) {
	h.heading(b, "Usage:")
	if cmd.Runnable() {
		b.WriteString("  " + h.styles.Command.Render(cmd.UseLine()) + "\n")
	}
	if cmd.HasAvailableSubCommands() {
		b.WriteString("  " + h.styles.Command.Render(cmd.CommandPath()+" [command]") + "\n")
	}

	if len(cmd.Aliases) > 0 {
		h.heading(b, "Aliases:")
		b.WriteString("  " + h.styles.Dim.Render(strings.Join(cmd.Aliases, ", ")) + "\n")
	}

	if cmd.HasExample() {
		h.heading(b, "Examples:")
		b.WriteString(h.styles.Dim.Render(cmd.Example) + "\n")
	}

	if cmd.HasAvailableSubCommands() {
		h.subcommands(b, cmd)
	}

	if cmd.HasAvailableLocalFlags() {
		h.heading(b, "Flags:")
		h.flags(b, cmd.LocalFlags())
	}
	if cmd.HasAvailableInheritedFlags() {
		h.heading(b, "Global Flags:")
		h.flags(b, cmd.InheritedFlags())
	}

	if !cmd.HasParent() {
		h.heading(b, "Block syntax:")
		h.syntax(b)
		h.heading(b, "Environment:")
		h.environment(b)
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(b, "\nUse %q for more information about a command.\n", cmd.CommandPath()+" [command] --help")
	}
}

func (h *HelpFormatter) heading(b *strings.Builder, title string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(h.styles.Heading.Render(title) + "\n")
}

// subcommands lists available subcommands under their group titles, with
// ungrouped commands last.
func (h *HelpFormatter) subcommands(b *strings.Builder, cmd *cobra.Command) {
	width := 0
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() || c.Name() == "help" {
			width = max(width, len(c.Name()))
		}
	}

	list := func(groupID string) {
		for _, c := range cmd.Commands() {
			if c.GroupID != groupID || !(c.IsAvailableCommand() || c.Name() == "help") {
				continue
			}
			b.WriteString("  " + h.styles.Command.Render(pad(c.Name(), width)) + "   " + c.Short + "\n")
		}
	}

	for _, g := range cmd.Groups() {
		h.heading(b, g.Title)
		list(g.ID)
	}
	if !cmd.AllChildCommandsHaveGroup() {
		title := "Available Commands:"
		if len(cmd.Groups()) > 0 {
			title = "Additional Commands:"
		}
		h.heading(b, title)
		list("")
	}
}

// flags lists visible flags with names and value types aligned.
func (h *HelpFormatter) flags(b *strings.Builder, fs *pflag.FlagSet) {
	type row struct{ short, long, varname, usage string }
	var rows []row
	width := 0
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		r := row{long: "--" + f.Name}
		if f.Shorthand != "" && f.ShorthandDeprecated == "" {
			r.short = "-" + f.Shorthand + ","
		}
		r.varname, r.usage = pflag.UnquoteUsage(f)
		if def := flagDefault(f, r.usage); def != "" {
			r.usage += " (default " + def + ")"
		}
		width = max(width, len(flagLabel(r.short, r.long, r.varname)))
		rows = append(rows, r)
	})

	for _, r := range rows {
		label := "   "
		if r.short != "" {
			label = h.styles.Flag.Render(r.short)
		}
		label += " " + h.styles.Flag.Render(r.long)
		if r.varname != "" {
			label += " " + h.styles.Dim.Render(r.varname)
		}
		gap := strings.Repeat(" ", width-len(flagLabel(r.short, r.long, r.varname)))
		b.WriteString("  " + label + gap + "   " + r.usage + "\n")
	}
}

// flagLabel is the unstyled text of a flag's name column.
func flagLabel(short, long, varname string) string {
	if short == "" {
		short = "   "
	}
	label := short + " " + long
	if varname != "" {
		label += " " + varname
	}
	return label
}

// flagDefault returns the default worth showing for f, or "" when the
// value is zero or the usage text already describes it.
func flagDefault(f *pflag.Flag, usage string) string {
	if strings.Contains(usage, "default") || strings.Contains(usage, "required") {
		return ""
	}
	switch f.DefValue {
	case "", "0", "0s", "false", "[]":
		return ""
	}
	if f.Value.Type() == "string" {
		return fmt.Sprintf("%q", f.DefValue)
	}
	return f.DefValue
}

// syntax lists each block kind with the marker that opens it.
func (h *HelpFormatter) syntax(b *strings.Builder) {
	kinds := blocks.AllKinds()
	kindWidth, markerWidth := 0, 0
	for _, k := range kinds {
		kindWidth = max(kindWidth, len(k.String()))
		markerWidth = max(markerWidth, len(blockSyntax[k].marker))
	}
	for _, k := range kinds {
		s := blockSyntax[k]
		b.WriteString("  " + h.styles.Command.Render(pad(k.String(), kindWidth)) +
			"   " + h.styles.Marker.Render(pad(s.marker, markerWidth)) +
			"   " + h.styles.Dim.Render(s.about) + "\n")
	}
}

// environment lists the configuration environment variables.
func (h *HelpFormatter) environment(b *strings.Builder) {
	vars := configloader.ListEnvVars()
	width := 0
	for _, v := range vars {
		width = max(width, len(v.Name))
	}
	for _, v := range vars {
		b.WriteString("  " + h.styles.Flag.Render(pad(v.Name, width)) + "   " + v.Description + "\n")
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
