package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdblocks/internal/logging"
	"github.com/yaklabco/mdblocks/pkg/config"
	"github.com/yaklabco/mdblocks/pkg/fsutil"
)

// editFlags holds the flags for the edit command.
type editFlags struct {
	block    int
	body     string
	bodyFile string
	scope    string
	dryRun   bool
	backup   bool
}

func newEditCommand(global *globalFlags) *cobra.Command {
	flags := &editFlags{}

	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Replace the body of a block",
		Long: `Replace the body of one block, addressed by its index from 'mdblocks scan'.

Callout bodies are edited through the callout's nested view and written
back with every line's quote prefix restored, exactly as an edit made
inside the rendered callout would be. Other blocks have their body range
replaced directly.

The file is rewritten atomically, and only if it has not changed on disk
since it was read.`,
		Example: `  mdblocks edit notes.md --block 0 --body "New callout text"
  mdblocks edit notes.md --block 2 --body-file snippet.go
  echo "piped body" | mdblocks edit notes.md --block 1 --body-file -
  mdblocks edit notes.md --block 0 --body "x" --dry-run`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, global, flags, args[0])
		},
	}

	cmd.Flags().IntVarP(&flags.block, "block", "b", -1, "Index of the block to edit (required)")
	cmd.Flags().StringVar(&flags.body, "body", "", "New body text")
	cmd.Flags().StringVar(&flags.bodyFile, "body-file", "", `Read the new body from a file ("-" for stdin)`)
	cmd.Flags().StringVar(&flags.scope, "scope", "", "Callout write-back scope: body or span")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Show the diff without writing")
	cmd.Flags().BoolVar(&flags.backup, "backup", false, "Keep a "+fsutil.BackupSuffix+" copy of the original")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")

	return cmd
}

func runEdit(cmd *cobra.Command, global *globalFlags, flags *editFlags, path string) error {
	if flags.block < 0 {
		return usageErrorf("--block is required and must be >= 0")
	}
	if path == stdinPath {
		return usageErrorf("edit needs a file path, not standard input")
	}
	if flags.scope != "" && !config.WriteBack(flags.scope).IsValid() {
		return usageErrorf("invalid scope %q: must be body or span", flags.scope)
	}

	body, err := readBody(cmd, flags)
	if err != nil {
		return err
	}

	off := false
	sess, err := newSession(cmd, global, &config.Config{
		WriteBack: config.WriteBack(flags.scope),
		Highlight: &off,
		DryRun:    flags.dryRun,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	content, info, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return err
	}

	view, err := sess.newView(string(content))
	if err != nil {
		return err
	}
	defer view.Close()

	if err := view.EditBody(flags.block, body); err != nil {
		return err
	}

	before, after := string(content), view.Text()
	changed := before != after
	sess.logger.Debug("edited block",
		logging.FieldPath, path,
		logging.FieldBlock, flags.block,
		logging.FieldScope, sess.cfg.WriteBack,
		logging.FieldChanged, changed,
		logging.FieldDryRun, sess.cfg.DryRun,
	)

	if sess.cfg.DryRun {
		if changed {
			fmt.Fprint(sess.out, sess.styles.FormatDiff(path, before, after))
		}
		fmt.Fprint(sess.out, sess.styles.FormatEditResult(path, flags.block, changed, true))
		return nil
	}

	if changed {
		backup := fsutil.BackupConfig{}
		if flags.backup {
			backup = fsutil.SidecarBackup()
		}
		result, err := fsutil.SaveDocument(ctx, info, []byte(after), backup)
		if err != nil {
			return err
		}
		if result.BackupPath != "" {
			sess.logger.Info("created backup", logging.FieldPath, result.BackupPath)
		}
	}

	fmt.Fprint(sess.out, sess.styles.FormatEditResult(path, flags.block, changed, false))
	return nil
}

// readBody returns the new body from --body, --body-file, or stdin. A
// single trailing newline from a file or stdin is dropped.
func readBody(cmd *cobra.Command, flags *editFlags) (string, error) {
	switch {
	case cmd.Flags().Changed("body"):
		return flags.body, nil
	case flags.bodyFile == stdinPath:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read body from stdin: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	case flags.bodyFile != "":
		data, err := os.ReadFile(flags.bodyFile)
		if err != nil {
			return "", fmt.Errorf("read body file: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	default:
		return "", usageErrorf("one of --body or --body-file is required")
	}
}
