package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/engine/matrix"
	"go.trai.ch/matrix/internal/ui/output"
)

// PlanOptions configuration for the Plan method.
type PlanOptions struct {
	File string
	Jobs []string
}

// Plan prints the jobs the workflow expands to without running them.
func (a *App) Plan(_ context.Context, opts PlanOptions) error {
	wf, err := a.loadWorkflow(opts.File)
	if err != nil {
		return err
	}

	jobs, err := matrix.ExpandWorkflow(wf, opts.Jobs)
	if err != nil {
		return err
	}

	writePlan(a.stdout, wf, jobs)
	return nil
}

func writePlan(w io.Writer, wf *domain.Workflow, jobs []*domain.Job) {
	out := output.New(w)

	_, _ = fmt.Fprintf(w, "%s %s\n", out.String("Workflow").Bold(), wf.Name)
	_, _ = fmt.Fprintf(w, "  triggers: %s\n", strings.Join(triggerNames(wf.Triggers), ", "))
	_, _ = fmt.Fprintf(w, "  jobs:     %d\n", len(jobs))

	for _, job := range jobs {
		_, _ = fmt.Fprintf(w, "\n%s\n", out.String(job.Name).Bold())
		_, _ = fmt.Fprintf(w, "  job:     %s\n", job.SpecID)
		_, _ = fmt.Fprintf(w, "  runs-on: %s\n", job.RunsOn)
		if len(job.Matrix) > 0 {
			pairs := make([]string, len(job.Matrix))
			for i, v := range job.Matrix {
				pairs[i] = v.Axis + "=" + v.Value
			}
			_, _ = fmt.Fprintf(w, "  matrix:  %s\n", strings.Join(pairs, ", "))
		}
		_, _ = fmt.Fprintf(w, "  steps:\n")
		for i := range job.Steps {
			_, _ = fmt.Fprintf(w, "    %d. %s\n", i+1, job.Steps[i].DisplayName())
		}
	}
}

func triggerNames(t domain.Triggers) []string {
	var names []string
	for _, s := range t.Schedules {
		names = append(names, "schedule("+s+")")
	}
	if t.Push {
		names = append(names, string(domain.EventPush))
	}
	if t.PullRequest {
		names = append(names, string(domain.EventPullRequest))
	}
	return names
}
