package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/mason/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Empty the build destination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifest, _ := cmd.Flags().GetBool("manifest")

			return c.app.Clean(cmd.Context(), app.CleanOptions{
				Cwd:      dir(cmd),
				Manifest: manifest,
			})
		},
	}
	cmd.Flags().BoolP("manifest", "m", false, "Also remove the build manifest")
	return cmd
}
