package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/matrix/internal/app"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [job-ids...]",
		Short: "Fire an event at the workflow and run the jobs it triggers",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}
			opts.Jobs = args

			eventName, _ := cmd.Flags().GetString("event")
			event, err := domain.ParseEventKind(eventName)
			if err != nil {
				return err
			}
			opts.Event = event

			if at, _ := cmd.Flags().GetString("at"); at != "" {
				opts.At, err = time.Parse(time.RFC3339, at)
				if err != nil {
					return zerr.With(zerr.Wrap(err, "invalid --at time, expected RFC3339"), "at", at)
				}
			}
			opts.ReportPath, _ = cmd.Flags().GetString("report")

			_, err = c.app.Run(cmd.Context(), opts)
			return err
		},
	}
	addExecutionFlags(cmd)
	cmd.Flags().StringP("event", "e", string(domain.EventPush), "Event to fire: push, pull_request or schedule")
	cmd.Flags().String("at", "", "Event time in RFC3339 format (default: now)")
	cmd.Flags().String("report", "", "Write a JSON report of the run to this path")
	return cmd
}

// addExecutionFlags registers the flags shared by run and watch.
func addExecutionFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("parallel", "p", 0, "Maximum number of jobs running at once (default: number of CPUs)")
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the actions/cache step")
	cmd.Flags().Bool("any-host", false, "Run jobs for another OS on the local machine")
	cmd.Flags().Bool("keep-hosts", false, "Keep job hosts on disk after the run")
	cmd.Flags().StringP("output-mode", "o", "auto", "Output mode: auto, tui, or linear")
	cmd.Flags().Bool("ci", false, "Use linear output mode (shorthand for --output-mode=linear)")
}

func runOptions(cmd *cobra.Command) (app.RunOptions, error) {
	parallel, _ := cmd.Flags().GetInt("parallel")
	if parallel < 0 {
		return app.RunOptions{}, zerr.With(zerr.New("--parallel must not be negative"), "parallel", parallel)
	}
	noCache, _ := cmd.Flags().GetBool("no-cache")
	anyHost, _ := cmd.Flags().GetBool("any-host")
	keepHosts, _ := cmd.Flags().GetBool("keep-hosts")
	outputMode, _ := cmd.Flags().GetString("output-mode")
	ci, _ := cmd.Flags().GetBool("ci")

	// If --ci is set, override output-mode to "linear"
	if ci {
		outputMode = "linear"
	}

	return app.RunOptions{
		File:       workflowFile(cmd),
		Parallel:   parallel,
		NoCache:    noCache,
		AnyHost:    anyHost,
		KeepHosts:  keepHosts,
		OutputMode: outputMode,
	}, nil
}
