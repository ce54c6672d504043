package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/mason/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [sources...]",
		Short: "Clear the destination and build every source file",
		Long: "Clear the destination and build every source file.\n\n" +
			"Source roots given as arguments replace the configured roots for this build.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")

			_, err := c.app.Build(cmd.Context(), app.BuildOptions{
				Cwd:     dir(cmd),
				Sources: args,
				Verbose: verbose,
			})
			return err
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "Also print skipped files and file starts")
	return cmd
}
