// Package cli provides the Cobra command structure for mdblocks.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdblocks/pkg/clipboard"
	"github.com/yaklabco/mdblocks/pkg/surface"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Option customizes the command tree.
type Option func(*globalFlags)

// WithClipboard replaces the system clipboard used by the copy command.
func WithClipboard(c surface.Clipboard) Option {
	return func(g *globalFlags) { g.clipboard = c }
}

// NewRootCommand creates the root mdblocks command with all subcommands.
func NewRootCommand(info BuildInfo, opts ...Option) *cobra.Command {
	flags := &globalFlags{clipboard: clipboard.NewSystem()}
	for _, opt := range opts {
		opt(flags)
	}

	rootCmd := &cobra.Command{
		Use:   "mdblocks",
		Short: "Live block rendering for Markdown documents",
		Long: `mdblocks finds the structural blocks of a Markdown document (callouts,
blockquotes, fenced code and page breaks) and shows each one either as its
raw source or as a rendered widget, depending on where the cursor is.

Callouts render their body in a nested editable view; edits made there are
written back into the document with the quote prefix restored. The same
engine drives the scan, render, edit, export and watch commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flags.color, "color", "auto",
		"colorize output: auto, always, never")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.AddGroup(commandGroups()...)
	addGrouped(rootCmd, groupInspect,
		newScanCommand(flags),
		newRenderCommand(flags),
		newExportCommand(flags),
		newWatchCommand(flags),
	)
	addGrouped(rootCmd, groupChange,
		newEditCommand(flags),
		newCopyCommand(flags),
	)
	addGrouped(rootCmd, groupSetup,
		newInitCommand(flags),
		newThemesCommand(),
		newVersionCommand(info),
	)
	rootCmd.SetHelpCommandGroupID(groupSetup)
	rootCmd.SetCompletionCommandGroupID(groupSetup)

	helpFormatter := NewHelpFormatter(flags.color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}

func addGrouped(parent *cobra.Command, groupID string, cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.GroupID = groupID
		parent.AddCommand(cmd)
	}
}
