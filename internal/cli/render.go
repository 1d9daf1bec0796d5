package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdblocks/internal/logging"
	"github.com/yaklabco/mdblocks/pkg/config"
	"github.com/yaklabco/mdblocks/pkg/engine"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

// viewFlags are shared by the commands that render documents.
type viewFlags struct {
	width       int
	theme       string
	kinds       []string
	noHighlight bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.width, "width", "w", 0, "Render width in columns (default: terminal width)")
	cmd.Flags().StringVar(&f.theme, "theme", "", "Chroma style for code fences (see 'mdblocks themes')")
	cmd.Flags().StringSliceVar(&f.kinds, "kinds", nil, "Block kinds to render (default: all)")
	cmd.Flags().BoolVar(&f.noHighlight, "no-highlight", false, "Disable syntax highlighting")
}

// config converts the flags to a CLI configuration layer.
func (f *viewFlags) config() *config.Config {
	cfg := &config.Config{
		Width: f.width,
		Theme: f.theme,
		Kinds: f.kinds,
	}
	if f.noHighlight {
		off := false
		cfg.Highlight = &off
	}
	return cfg
}

// renderFlags holds the flags for the render command.
type renderFlags struct {
	viewFlags

	cursor int
	line   int
}

func newRenderCommand(global *globalFlags) *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a document to the terminal",
		Long: `Render a Markdown document with its blocks drawn as widgets: callouts as
colored boxes with their body rendered recursively, blockquotes with a bar,
fenced code highlighted, and page breaks as rules.

Without --cursor or --line every block is rendered. With a cursor, the
block under it is shown as source, the way an editor reveals the block
being edited.`,
		Example: `  mdblocks render notes.md
  mdblocks render --line 12 notes.md
  mdblocks render --width 80 --theme dracula notes.md`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, global, flags, args[0])
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&flags.cursor, "cursor", -1, "Byte offset of the cursor (default: no cursor)")
	cmd.Flags().IntVar(&flags.line, "line", 0, "Place the cursor at the start of this 1-based line")
	cmd.MarkFlagsMutuallyExclusive("cursor", "line")

	return cmd
}

func runRender(cmd *cobra.Command, global *globalFlags, flags *renderFlags, path string) error {
	if flags.width < 0 {
		return usageErrorf("invalid width %d: must be >= 0", flags.width)
	}

	sess, err := newSession(cmd, global, flags.config())
	if err != nil {
		return err
	}

	content, _, err := readDocument(cmd.Context(), cmd, path)
	if err != nil {
		return err
	}

	view, err := sess.newView(string(content), engine.WithSyncHighlight())
	if err != nil {
		return err
	}
	defer view.Close()

	cursor, err := resolveCursor(view.Doc(), flags.cursor, flags.line)
	if err != nil {
		return err
	}
	if cursor >= 0 {
		if err := view.SetSelection(textdoc.Single(textdoc.Cursor(cursor))); err != nil {
			return fmt.Errorf("place cursor: %w", err)
		}
	}

	width := sess.width()
	sess.logger.Debug("rendering document",
		logging.FieldPath, displayPath(path),
		logging.FieldWidth, width,
		logging.FieldCursor, cursor,
		logging.FieldBlocks, len(view.Overlay().Rendered()),
	)

	out := view.Render(width)
	fmt.Fprint(sess.out, out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Fprintln(sess.out)
	}
	return nil
}

// resolveCursor turns --cursor or --line into an offset; -1 means none.
func resolveCursor(doc *textdoc.Document, cursor, line int) (int, error) {
	switch {
	case line > 0:
		l, ok := doc.Line(line)
		if !ok {
			return 0, usageErrorf("line %d out of range: document has %d lines", line, doc.LineCount())
		}
		return l.From, nil
	case line < 0:
		return 0, usageErrorf("invalid line %d: must be >= 1", line)
	case cursor > doc.Len():
		return 0, usageErrorf("cursor %d out of range: document has %d bytes", cursor, doc.Len())
	case cursor < -1:
		return 0, usageErrorf("invalid cursor %d", cursor)
	default:
		return cursor, nil
	}
}
