package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.trai.ch/matrix/internal/core/domain"
)

// HistoryOptions configuration for the History method.
type HistoryOptions struct {
	File  string
	Limit int
}

// History prints the most recent runs, newest first.
func (a *App) History(ctx context.Context, opts HistoryOptions) error {
	root, err := a.stateRoot(opts.File)
	if err != nil {
		return err
	}

	runs, err := a.history.List(ctx, root, opts.Limit)
	if err != nil {
		return err
	}

	writeHistory(a.stdout, runs)
	return nil
}

func writeHistory(w io.Writer, runs []domain.RunSummary) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "No runs recorded yet.")
		return
	}

	_, _ = fmt.Fprintf(w, "%-36s  %-19s  %-12s  %6s  %6s  %s\n", "RUN", "STARTED", "EVENT", "PASSED", "FAILED", "DURATION")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%-36s  %-19s  %-12s  %6d  %6d  %s\n",
			r.ID,
			r.Started.Local().Format(time.DateTime),
			r.Event,
			r.Passed,
			r.Failed,
			formatDuration(r.Duration),
		)
	}
}
