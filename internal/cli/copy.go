package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdblocks/internal/logging"
	"github.com/yaklabco/mdblocks/pkg/config"
	"github.com/yaklabco/mdblocks/pkg/engine"
	"github.com/yaklabco/mdblocks/pkg/surface"
)

// errCopyFailed is returned when the clipboard rejects the code.
var errCopyFailed = errors.New("copy to clipboard failed")

func newCopyCommand(global *globalFlags) *cobra.Command {
	var block int

	cmd := &cobra.Command{
		Use:   "copy <file>",
		Short: "Copy the code of a fenced block to the clipboard",
		Long: `Copy the body of a fenced code block to the system clipboard, as the copy
button of a rendered code block does.`,
		Example: `  mdblocks copy notes.md --block 3`,
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, global, block, args[0])
		},
	}

	cmd.Flags().IntVarP(&block, "block", "b", -1, "Index of the code block (required)")

	return cmd
}

func runCopy(cmd *cobra.Command, global *globalFlags, block int, path string) error {
	if block < 0 {
		return usageErrorf("--block is required and must be >= 0")
	}

	off := false
	sess, err := newSession(cmd, global, &config.Config{Highlight: &off})
	if err != nil {
		return err
	}

	content, _, err := readDocument(cmd.Context(), cmd, path)
	if err != nil {
		return err
	}

	view, err := sess.newView(string(content))
	if err != nil {
		return err
	}
	defer view.Close()

	code, err := codeWidget(view, block)
	if err != nil {
		return err
	}
	if !code.Copy() {
		return errCopyFailed
	}

	sess.logger.Debug("copied code",
		logging.FieldPath, displayPath(path),
		logging.FieldBlock, block,
		logging.FieldBytes, len(code.Code()),
	)
	fmt.Fprintf(sess.out, "%s %s code from block %d\n",
		sess.styles.Success.Render("Copied"), code.Label(), block)
	return nil
}

// codeWidget finds the rendered code widget of the index-th block.
func codeWidget(view *engine.View, index int) (*surface.CodeFence, error) {
	spans := view.Spans()
	if index >= len(spans) {
		return nil, fmt.Errorf("block %d of %d: %w", index, len(spans), engine.ErrNoBlock)
	}
	span := spans[index]

	for _, d := range view.Overlay().Rendered() {
		if d.Span.From != span.From || d.Span.Kind != span.Kind {
			continue
		}
		if code, ok := d.Widget.(*surface.CodeFence); ok {
			return code, nil
		}
	}
	return nil, usageErrorf("block %d is a %s, not a rendered codefence", index, span.Kind)
}
