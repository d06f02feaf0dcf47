package scheduler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/matrix/internal/adapters/telemetry"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports/mocks"
	"go.trai.ch/matrix/internal/engine/runner"
	"go.trai.ch/matrix/internal/engine/scheduler"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRunner struct {
	run func(ctx context.Context, job *domain.Job) domain.JobResult
}

func (f *fakeRunner) RunJob(ctx context.Context, job *domain.Job, _ *runner.Options) domain.JobResult {
	return f.run(ctx, job)
}

func jobs(names ...string) []*domain.Job {
	out := make([]*domain.Job, len(names))
	for i, n := range names {
		out[i] = &domain.Job{Name: n, RunsOn: n}
	}
	return out
}

func TestRun_IndependentJobs(t *testing.T) {
	r := &fakeRunner{run: func(_ context.Context, job *domain.Job) domain.JobResult {
		status := domain.StatusPassed
		if job.Name == "3.9, macos-latest" {
			status = domain.StatusFailed
		}
		return domain.JobResult{Name: job.Name, Status: status}
	}}

	s := scheduler.NewScheduler(r, telemetry.NewNoOpTracer())
	report := s.Run(context.Background(), "CI", domain.EventPush,
		jobs("3.9, ubuntu-latest", "3.9, macos-latest", "3.9, windows-latest"),
		&runner.Options{RunID: "r1"}, 3)

	require.Len(t, report.Jobs, 3)
	assert.Equal(t, "r1", report.ID)
	assert.Equal(t, domain.EventPush, report.Event)
	assert.Equal(t, domain.StatusPassed, report.Jobs[0].Status)
	assert.Equal(t, domain.StatusFailed, report.Jobs[1].Status)
	assert.Equal(t, domain.StatusPassed, report.Jobs[2].Status)
	assert.True(t, report.Failed())

	passed, failed := report.Counts()
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, scheduler.StatusCompleted, s.Status("3.9, macos-latest"))
}

func TestRun_EmitsPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"a", "b"})

	r := &fakeRunner{run: func(_ context.Context, job *domain.Job) domain.JobResult {
		return domain.JobResult{Name: job.Name, Status: domain.StatusPassed}
	}}

	report := scheduler.NewScheduler(r, tracer).Run(context.Background(), "CI", domain.EventPush, jobs("a", "b"), &runner.Options{}, 1)
	assert.False(t, report.Failed())
}

func TestRun_RespectsParallelism(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var active, peak atomic.Int32
		r := &fakeRunner{run: func(_ context.Context, job *domain.Job) domain.JobResult {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Second)
			active.Add(-1)
			return domain.JobResult{Name: job.Name, Status: domain.StatusPassed}
		}}

		start := time.Now()
		scheduler.NewScheduler(r, telemetry.NewNoOpTracer()).
			Run(context.Background(), "CI", domain.EventPush, jobs("a", "b", "c", "d", "e"), &runner.Options{}, 2)

		assert.Equal(t, int32(2), peak.Load())
		assert.Equal(t, 3*time.Second, time.Since(start))
	})
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var once sync.Once
	r := &fakeRunner{run: func(ctx context.Context, job *domain.Job) domain.JobResult {
		if ctx.Err() != nil {
			return domain.JobResult{Name: job.Name, Status: domain.StatusCancelled}
		}
		once.Do(cancel)
		return domain.JobResult{Name: job.Name, Status: domain.StatusCancelled}
	}}

	report := scheduler.NewScheduler(r, telemetry.NewNoOpTracer()).
		Run(ctx, "CI", domain.EventSchedule, jobs("a", "b", "c"), &runner.Options{}, 1)

	for _, j := range report.Jobs {
		assert.Equal(t, domain.StatusCancelled, j.Status)
	}
}

func TestRun_PanicFailsJob(t *testing.T) {
	r := &fakeRunner{run: func(_ context.Context, job *domain.Job) domain.JobResult {
		if job.Name == "boom" {
			panic("unexpected")
		}
		return domain.JobResult{Name: job.Name, Status: domain.StatusPassed}
	}}

	report := scheduler.NewScheduler(r, telemetry.NewNoOpTracer()).
		Run(context.Background(), "CI", domain.EventPush, jobs("boom", "fine"), &runner.Options{}, 2)

	assert.Equal(t, domain.StatusFailed, report.Jobs[0].Status)
	assert.Contains(t, report.Jobs[0].Error, "unexpected")
	assert.Equal(t, domain.StatusPassed, report.Jobs[1].Status)
}
