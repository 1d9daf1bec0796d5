package cli

import (
	"github.com/spf13/cobra"

	"github.com/yaklabco/mdblocks/internal/logging"
)

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of mdblocks.`,
		Args:  noArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			logger := logging.NewWriter(cmd.OutOrStdout(), "info")
			logger.SetPrefix("")

			logger.Info("mdblocks",
				logging.FieldVersion, info.Version,
				logging.FieldCommit, info.Commit,
				logging.FieldBuilt, info.Date,
			)
		},
	}
}
