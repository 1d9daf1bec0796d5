package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yaklabco/mdblocks/internal/configloader"
	"github.com/yaklabco/mdblocks/internal/logging"
	"github.com/yaklabco/mdblocks/internal/ui/pretty"
	"github.com/yaklabco/mdblocks/pkg/config"
	"github.com/yaklabco/mdblocks/pkg/engine"
	"github.com/yaklabco/mdblocks/pkg/fsutil"
	"github.com/yaklabco/mdblocks/pkg/highlight"
	"github.com/yaklabco/mdblocks/pkg/surface"
	"github.com/yaklabco/mdblocks/pkg/textdoc"
)

// stdinPath names standard input as a document argument.
const stdinPath = "-"

// globalFlags holds the persistent flags and injected collaborators.
type globalFlags struct {
	debug      bool
	configPath string
	color      string

	clipboard surface.Clipboard
}

// session is the resolved environment of one command invocation.
type session struct {
	cfg       *config.Config
	logger    *log.Logger
	out       io.Writer
	color     bool
	styles    *pretty.Styles
	clipboard surface.Clipboard
}

// newSession loads configuration with cliCfg layered on top, and sets up
// logging and output styles. Unset cliCfg fields leave lower layers alone.
func newSession(cmd *cobra.Command, flags *globalFlags, cliCfg *config.Config) (*session, error) {
	if cliCfg == nil {
		cliCfg = &config.Config{}
	}
	if f := cmd.Flag("color"); f != nil && f.Changed {
		cliCfg.Color = flags.color
	}

	ctx := cmd.Context()
	result, err := configloader.Load(ctx, configloader.LoadOptions{
		ExplicitPath: flags.configPath,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	cfg := result.Config

	level := cfg.LogLevel
	if flags.debug {
		level = "debug"
	}
	logger := logging.NewWriter(cmd.ErrOrStderr(), level)
	cmd.SetContext(logging.WithLogger(ctx, logger))

	for _, path := range result.LoadedFrom {
		logger.Debug("loaded config", logging.FieldConfig, path)
	}
	for _, w := range result.Warnings {
		logger.Warn("config warning", logging.FieldError, w)
	}

	out := cmd.OutOrStdout()
	color := pretty.IsColorEnabled(cfg.Color, out)
	return &session{
		cfg:       cfg,
		logger:    logger,
		out:       out,
		color:     color,
		styles:    pretty.NewStyles(color),
		clipboard: flags.clipboard,
	}, nil
}

// width returns the configured render width or the terminal width.
func (s *session) width() int {
	if s.cfg.Width > 0 {
		return s.cfg.Width
	}
	return pretty.Width(s.out)
}

// highlighter builds the code highlighter for terminal output, or nil when
// highlighting is disabled.
func (s *session) highlighter() *highlight.Highlighter {
	if !s.cfg.HighlightEnabled() {
		return nil
	}
	format := highlight.FormatTerminal
	if !s.color {
		format = highlight.FormatPlain
	}
	return highlight.New(highlight.WithTheme(s.cfg.Theme), highlight.WithFormat(format))
}

// newView creates an engine view over text configured from the session.
// The view starts without a caret, so every block is rendered. Commands have
// no pointer gestures to wait out, so selections settle at once.
func (s *session) newView(text string, extra ...engine.Option) (*engine.View, error) {
	opts := engine.OptionsFromConfig(s.cfg)
	opts = append(opts,
		engine.WithTailWindow(0),
		engine.WithLogger(s.logger),
		engine.WithStyles(surface.NewStyles(s.color)),
	)
	if s.clipboard != nil {
		opts = append(opts, engine.WithClipboard(s.clipboard))
	}
	if hl := s.highlighter(); hl != nil {
		opts = append(opts, engine.WithHighlighter(hl))
	}
	opts = append(opts, extra...)

	view := engine.New(text, opts...)
	if err := view.SetSelection(textdoc.Selection{}); err != nil {
		view.Close()
		return nil, fmt.Errorf("clear selection: %w", err)
	}
	return view, nil
}

// readDocument reads path, or standard input for "-". The FileInfo is nil
// for standard input.
func readDocument(ctx context.Context, cmd *cobra.Command, path string) ([]byte, *fsutil.FileInfo, error) {
	if path == stdinPath {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, nil, fmt.Errorf("read stdin: %w", err)
		}
		return content, nil, nil
	}
	content, info, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return content, info, nil
}

// displayPath names a document argument in output.
func displayPath(path string) string {
	if path == stdinPath {
		return "<stdin>"
	}
	return path
}

// exactArgs is cobra.ExactArgs reporting a UsageError.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// noArgs is cobra.NoArgs reporting a UsageError.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}
