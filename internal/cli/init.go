package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdblocks/internal/configloader"
	"github.com/yaklabco/mdblocks/internal/logging"
	"github.com/yaklabco/mdblocks/pkg/config"
	"github.com/yaklabco/mdblocks/pkg/fsutil"
)

// initFlags holds the flags for the init command.
type initFlags struct {
	force  bool
	output string
	stdout bool
}

func newInitCommand(global *globalFlags) *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new mdblocks configuration file",
		Long: `Create a new ` + configloader.ProjectConfigName + ` configuration file in the current
directory with every setting documented and set to its default.`,
		Example: `  mdblocks init                      Create .mdblocks.yml
  mdblocks init --output custom.yml  Write to a custom file path
  mdblocks init --stdout             Print the template instead`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, global, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Overwrite existing configuration file")
	cmd.Flags().StringVarP(&flags.output, "output", "o", configloader.ProjectConfigName, "Output file path")
	cmd.Flags().BoolVar(&flags.stdout, "stdout", false, "Print the template to stdout")

	return cmd
}

func runInit(cmd *cobra.Command, global *globalFlags, flags *initFlags) error {
	level := "info"
	if global.debug {
		level = "debug"
	}
	logger := logging.NewWriter(cmd.ErrOrStderr(), level)

	content := config.GenerateTemplate(nil)
	if flags.stdout {
		if _, err := cmd.OutOrStdout().Write(content); err != nil {
			return fmt.Errorf("write template: %w", err)
		}
		return nil
	}

	err := fsutil.WriteNew(cmd.Context(), flags.output, content, flags.force)
	if errors.Is(err, fsutil.ErrExists) {
		return fmt.Errorf("%w; use --force to overwrite", err)
	}
	if err != nil {
		return err
	}

	logger.Info("created configuration file", logging.FieldPath, flags.output)
	logger.Info("customize your configuration by editing the file")
	logger.Info("run 'mdblocks themes' to see the available code themes")
	return nil
}
