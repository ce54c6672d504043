package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/mason/internal/app"
)

func (c *CLI) newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [paths...]",
		Short: "List the files a build would process, in build order",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := c.app.Search(cmd.Context(), app.SearchOptions{
				Cwd:   dir(cmd),
				Paths: args,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				if queue == nil {
					queue = []string{}
				}
				return json.NewEncoder(out).Encode(queue)
			}
			for _, p := range queue {
				_, _ = fmt.Fprintln(out, p)
			}
			return nil
		},
	}
	return cmd
}
