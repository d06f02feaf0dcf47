package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/matrix/internal/app"
)

const defaultHistoryLimit = 20

func (c *CLI) newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return c.app.History(cmd.Context(), app.HistoryOptions{
				File:  workflowFile(cmd),
				Limit: limit,
			})
		},
	}
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Maximum number of runs to list")
	return cmd
}
