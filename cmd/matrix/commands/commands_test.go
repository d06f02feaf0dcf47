package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/matrix/cmd/matrix/commands"
	"go.trai.ch/matrix/internal/app"
	"go.trai.ch/matrix/internal/build"
	"go.trai.ch/matrix/internal/core/domain"
)

type mockApp struct {
	runFunc     func(ctx context.Context, opts app.RunOptions) (*domain.RunReport, error)
	planFunc    func(ctx context.Context, opts app.PlanOptions) error
	watchFunc   func(ctx context.Context, opts app.WatchOptions) error
	historyFunc func(ctx context.Context, opts app.HistoryOptions) error
	cleanFunc   func(ctx context.Context, opts app.CleanOptions) error
}

func (m *mockApp) Run(ctx context.Context, opts app.RunOptions) (*domain.RunReport, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, opts)
	}
	return &domain.RunReport{}, nil
}

func (m *mockApp) Plan(ctx context.Context, opts app.PlanOptions) error {
	if m.planFunc != nil {
		return m.planFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Watch(ctx context.Context, opts app.WatchOptions) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) History(ctx context.Context, opts app.HistoryOptions) error {
	if m.historyFunc != nil {
		return m.historyFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Clean(ctx context.Context, opts app.CleanOptions) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, opts)
	}
	return nil
}

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Run(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.RunOptions
		called := false

		mock := &mockApp{
			runFunc: func(_ context.Context, opts app.RunOptions) (*domain.RunReport, error) {
				captured = opts
				called = true
				return &domain.RunReport{}, nil
			},
		}

		_, err := execute(t, mock,
			"run", "test", "lint",
			"--file", "ci/matrix.yaml",
			"--event", "schedule",
			"--at", "2026-10-15T08:00:30Z",
			"--parallel", "2",
			"--no-cache",
			"--any-host",
			"--keep-hosts",
			"--report", "report.json",
			"--ci",
		)
		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, app.RunOptions{
			File:       "ci/matrix.yaml",
			Jobs:       []string{"test", "lint"},
			Event:      domain.EventSchedule,
			At:         time.Date(2026, 10, 15, 8, 0, 30, 0, time.UTC),
			Parallel:   2,
			NoCache:    true,
			AnyHost:    true,
			KeepHosts:  true,
			ReportPath: "report.json",
			OutputMode: "linear",
		}, captured)
	})

	t.Run("defaults to a push event", func(t *testing.T) {
		var captured app.RunOptions
		mock := &mockApp{
			runFunc: func(_ context.Context, opts app.RunOptions) (*domain.RunReport, error) {
				captured = opts
				return &domain.RunReport{}, nil
			},
		}

		_, err := execute(t, mock, "run")
		require.NoError(t, err)
		assert.Equal(t, domain.EventPush, captured.Event)
		assert.True(t, captured.At.IsZero())
		assert.Empty(t, captured.Jobs)
		assert.Equal(t, "auto", captured.OutputMode)
	})

	t.Run("rejects an unknown event", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, app.RunOptions) (*domain.RunReport, error) {
				panic("should not be called")
			},
		}

		_, err := execute(t, mock, "run", "--event", "release")
		require.ErrorContains(t, err, domain.ErrUnknownEvent.Error())
	})

	t.Run("rejects an invalid time", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, app.RunOptions) (*domain.RunReport, error) {
				panic("should not be called")
			},
		}

		_, err := execute(t, mock, "run", "--at", "tomorrow")
		require.ErrorContains(t, err, "invalid --at time")
	})

	t.Run("rejects a negative parallelism", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, "run", "--parallel", "-1")
		require.Error(t, err)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, app.RunOptions) (*domain.RunReport, error) {
				return &domain.RunReport{}, domain.ErrJobFailed
			},
		}

		_, err := execute(t, mock, "run")
		require.ErrorIs(t, err, domain.ErrJobFailed)
	})
}

func TestCommands_Plan(t *testing.T) {
	var captured app.PlanOptions
	mock := &mockApp{
		planFunc: func(_ context.Context, opts app.PlanOptions) error {
			captured = opts
			return nil
		},
	}

	_, err := execute(t, mock, "plan", "-f", "matrix.yaml", "test")
	require.NoError(t, err)
	assert.Equal(t, app.PlanOptions{File: "matrix.yaml", Jobs: []string{"test"}}, captured)
}

func TestCommands_Watch(t *testing.T) {
	t.Run("defaults to linear output", func(t *testing.T) {
		var captured app.WatchOptions
		mock := &mockApp{
			watchFunc: func(_ context.Context, opts app.WatchOptions) error {
				captured = opts
				return nil
			},
		}

		_, err := execute(t, mock, "watch", "--no-cache", "--parallel", "1")
		require.NoError(t, err)
		assert.Equal(t, "linear", captured.Run.OutputMode)
		assert.True(t, captured.Run.NoCache)
		assert.Equal(t, 1, captured.Run.Parallel)
	})

	t.Run("keeps an explicit output mode", func(t *testing.T) {
		var captured app.WatchOptions
		mock := &mockApp{
			watchFunc: func(_ context.Context, opts app.WatchOptions) error {
				captured = opts
				return nil
			},
		}

		_, err := execute(t, mock, "watch", "--output-mode", "tui")
		require.NoError(t, err)
		assert.Equal(t, "tui", captured.Run.OutputMode)
	})
}

func TestCommands_History(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		limit int
	}{
		{name: "default limit", args: []string{"history"}, limit: 20},
		{name: "explicit limit", args: []string{"history", "--limit", "3"}, limit: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured app.HistoryOptions
			mock := &mockApp{
				historyFunc: func(_ context.Context, opts app.HistoryOptions) error {
					captured = opts
					return nil
				},
			}

			_, err := execute(t, mock, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.limit, captured.Limit)
		})
	}
}

func TestCommands_Clean(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want app.CleanOptions
	}{
		{name: "defaults to cache", args: []string{"clean"}, want: app.CleanOptions{Cache: true}},
		{name: "logs only", args: []string{"clean", "--logs"}, want: app.CleanOptions{Logs: true}},
		{name: "cache and logs", args: []string{"clean", "-c", "-l"}, want: app.CleanOptions{Cache: true, Logs: true}},
		{name: "all", args: []string{"clean", "--all"}, want: app.CleanOptions{All: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured app.CleanOptions
			mock := &mockApp{
				cleanFunc: func(_ context.Context, opts app.CleanOptions) error {
					captured = opts
					return nil
				},
			}

			_, err := execute(t, mock, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, captured)
		})
	}

	t.Run("propagates errors", func(t *testing.T) {
		mock := &mockApp{
			cleanFunc: func(context.Context, app.CleanOptions) error {
				return errors.New("permission denied")
			},
		}

		_, err := execute(t, mock, "clean")
		require.ErrorContains(t, err, "permission denied")
	})
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "matrix version "+build.Version)

	out, err = execute(t, &mockApp{}, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
	assert.Contains(t, out, "commit: "+build.Commit)
}
