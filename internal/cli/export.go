package cli

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdblocks/internal/logging"
	"github.com/yaklabco/mdblocks/pkg/config"
	"github.com/yaklabco/mdblocks/pkg/export"
	"github.com/yaklabco/mdblocks/pkg/fsutil"
	"github.com/yaklabco/mdblocks/pkg/highlight"
)

// exportFlags holds the flags for the export command.
type exportFlags struct {
	output      string
	fragment    bool
	flavor      string
	title       string
	theme       string
	kinds       []string
	noHighlight bool
}

func newExportCommand(global *globalFlags) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a document as HTML",
		Long: `Export a Markdown document as static HTML with every block in its
rendered form: callouts as titled boxes with their body exported
recursively, blockquotes, highlighted code and page breaks. Text between
blocks is converted with goldmark.

By default a complete page is written. Use --fragment for the body only.`,
		Example: `  mdblocks export notes.md -o notes.html
  mdblocks export --fragment --flavor commonmark notes.md`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, global, flags, args[0])
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&flags.fragment, "fragment", false, "Write an HTML fragment instead of a full page")
	cmd.Flags().StringVar(&flags.flavor, "flavor", export.FlavorGFM, "Markdown flavor between blocks: gfm or commonmark")
	cmd.Flags().StringVar(&flags.title, "title", "", "Page title (default: file name)")
	cmd.Flags().StringVar(&flags.theme, "theme", "", "Chroma style for code blocks")
	cmd.Flags().StringSliceVar(&flags.kinds, "kinds", nil, "Block kinds to render (default: all)")
	cmd.Flags().BoolVar(&flags.noHighlight, "no-highlight", false, "Disable syntax highlighting")

	return cmd
}

func runExport(cmd *cobra.Command, global *globalFlags, flags *exportFlags, path string) error {
	if flags.flavor != export.FlavorGFM && flags.flavor != export.FlavorCommonMark {
		return usageErrorf("invalid flavor %q: must be gfm or commonmark", flags.flavor)
	}

	cliCfg := &config.Config{Theme: flags.theme, Kinds: flags.kinds, Format: config.FormatHTML}
	if flags.noHighlight {
		off := false
		cliCfg.Highlight = &off
	}
	sess, err := newSession(cmd, global, cliCfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	content, _, err := readDocument(ctx, cmd, path)
	if err != nil {
		return err
	}

	opts := []export.Option{
		export.WithFlavor(flags.flavor),
		export.WithKinds(sess.cfg.Kinds),
		export.WithLogger(sess.logger),
		export.WithHighlighter(nil),
	}
	if sess.cfg.HighlightEnabled() {
		opts = append(opts, export.WithHighlighter(highlight.New(
			highlight.WithTheme(sess.cfg.Theme),
			highlight.WithFormat(highlight.FormatHTML),
		)))
	}
	exporter := export.New(opts...)

	var buf bytes.Buffer
	if flags.fragment {
		html, err := exporter.HTML(ctx, string(content))
		if err != nil {
			return err
		}
		buf.WriteString(html)
	} else {
		title := flags.title
		if title == "" {
			title = pageTitle(path)
		}
		if err := exporter.WritePage(ctx, &buf, title, string(content)); err != nil {
			return err
		}
	}

	sess.logger.Debug("exported document",
		logging.FieldPath, displayPath(path),
		logging.FieldBytes, buf.Len(),
	)

	if flags.output == "" {
		if _, err := sess.out.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}

	if err := fsutil.WriteAtomic(ctx, flags.output, buf.Bytes(), fsutil.DefaultFileMode); err != nil {
		return err
	}
	sess.logger.Info("wrote export", logging.FieldPath, flags.output)
	return nil
}

// pageTitle derives a page title from a document path.
func pageTitle(path string) string {
	if path == stdinPath {
		return "mdblocks"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
