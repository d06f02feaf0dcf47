// Package scheduler runs the jobs of a run in parallel and aggregates their results.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/matrix/internal/engine/runner"
	"golang.org/x/sync/errgroup"
)

// JobRunner runs a single job to completion.
type JobRunner interface {
	RunJob(ctx context.Context, job *domain.Job, opts *runner.Options) domain.JobResult
}

// JobStatus represents the status of a job while the run is in flight.
type JobStatus string

const (
	// StatusPending indicates the job is waiting for a free slot.
	StatusPending JobStatus = "Pending"
	// StatusRunning indicates the job is currently executing.
	StatusRunning JobStatus = "Running"
	// StatusCompleted indicates the job has finished, whatever its outcome.
	StatusCompleted JobStatus = "Completed"
)

// Scheduler manages the execution of the jobs of a run.
type Scheduler struct {
	runner JobRunner
	tracer ports.Tracer
	now    func() time.Time

	mu        sync.RWMutex
	jobStatus map[string]JobStatus
}

// NewScheduler creates a new Scheduler.
func NewScheduler(jobRunner JobRunner, tracer ports.Tracer) *Scheduler {
	return &Scheduler{
		runner:    jobRunner,
		tracer:    tracer,
		now:       time.Now,
		jobStatus: make(map[string]JobStatus),
	}
}

func (s *Scheduler) updateStatus(name string, status JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobStatus[name] = status
}

// Status returns the current status of the named job.
func (s *Scheduler) Status(name string) JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobStatus[name]
}

// Run executes every job with at most parallelism jobs at a time.
// A failing job never stops the others; cancelling ctx marks unfinished jobs
// cancelled. Results keep the order of jobs.
func (s *Scheduler) Run(
	ctx context.Context,
	workflow string,
	event domain.EventKind,
	jobs []*domain.Job,
	opts *runner.Options,
	parallelism int,
) *domain.RunReport {
	report := &domain.RunReport{
		ID:       opts.RunID,
		Workflow: workflow,
		Event:    event,
		Started:  s.now(),
		Jobs:     make([]domain.JobResult, len(jobs)),
	}

	names := make([]string, len(jobs))
	for i, job := range jobs {
		names[i] = job.Name
		s.updateStatus(job.Name, StatusPending)
	}
	s.tracer.EmitPlan(ctx, names)

	if parallelism < 1 {
		parallelism = 1
	}

	var g errgroup.Group
	g.SetLimit(parallelism)

	for i, job := range jobs {
		g.Go(func() error {
			s.updateStatus(job.Name, StatusRunning)
			defer s.updateStatus(job.Name, StatusCompleted)

			report.Jobs[i] = s.runJob(ctx, job, opts)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = s.now().Sub(report.Started)
	return report
}

// runJob turns a panicking job into a failed result.
func (s *Scheduler) runJob(ctx context.Context, job *domain.Job, opts *runner.Options) (res domain.JobResult) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Job panic: %v\n%s", r, debug.Stack())
			res = domain.JobResult{
				Name:   job.Name,
				RunsOn: job.RunsOn,
				Matrix: job.Matrix.Map(),
				Status: domain.StatusFailed,
				Error:  fmt.Sprintf("panic: %v", r),
			}
		}
	}()
	return s.runner.RunJob(ctx, job, opts)
}
