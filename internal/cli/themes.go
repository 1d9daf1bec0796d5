package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdblocks/pkg/config"
	"github.com/yaklabco/mdblocks/pkg/highlight"
)

func newThemesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the code highlighting themes",
		Long: `List the chroma styles accepted by the theme setting and the --theme flag.
The default theme is marked with an asterisk.`,
		Args: noArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, name := range highlight.Themes() {
				marker := " "
				if name == config.DefaultTheme {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, name)
			}
		},
	}
}
