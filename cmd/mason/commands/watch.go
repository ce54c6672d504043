package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/mason/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild whenever a source file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")

			return c.app.Watch(cmd.Context(), app.WatchOptions{
				Cwd:     dir(cmd),
				Verbose: verbose,
			})
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "Also print skipped files and file starts")
	return cmd
}
