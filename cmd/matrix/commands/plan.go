package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/matrix/internal/app"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [job-ids...]",
		Short: "Print the jobs the workflow matrix expands to",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Plan(cmd.Context(), app.PlanOptions{
				File: workflowFile(cmd),
				Jobs: args,
			})
		},
	}
}
