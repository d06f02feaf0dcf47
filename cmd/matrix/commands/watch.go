package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/matrix/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [job-ids...]",
		Short: "Run the workflow on its schedules and on file changes",
		Long: "Watch fires schedule events from the cron expressions of the workflow and,\n" +
			"when the workflow reacts to push, push events for file changes under the workflow root.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}
			opts.Jobs = args
			if !cmd.Flags().Changed("output-mode") && !cmd.Flags().Changed("ci") {
				opts.OutputMode = "linear"
			}
			return c.app.Watch(cmd.Context(), app.WatchOptions{Run: opts})
		},
	}
	addExecutionFlags(cmd)
	return cmd
}
