package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/matrix/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove cached entries, job logs or all runner state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, _ := cmd.Flags().GetBool("cache")
			logs, _ := cmd.Flags().GetBool("logs")
			all, _ := cmd.Flags().GetBool("all")

			opts := app.CleanOptions{
				File:  workflowFile(cmd),
				Cache: cache,
				Logs:  logs,
				All:   all,
			}
			if !cache && !logs && !all {
				// Default behavior: clean the cache
				opts.Cache = true
			}

			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolP("cache", "c", false, "Remove cache entries")
	cmd.Flags().BoolP("logs", "l", false, "Remove job logs")
	cmd.Flags().BoolP("all", "a", false, "Remove all runner state (cache, logs, kept hosts and history)")

	return cmd
}
