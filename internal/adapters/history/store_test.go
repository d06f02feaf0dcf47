package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/matrix/internal/adapters/history"
	"go.trai.ch/matrix/internal/core/domain"
)

func report(id string, started time.Time, statuses ...domain.Status) *domain.RunReport {
	r := &domain.RunReport{
		ID:       id,
		Workflow: "CI",
		Event:    domain.EventPush,
		Started:  started,
		Duration: 90 * time.Second,
	}
	for _, s := range statuses {
		r.Jobs = append(r.Jobs, domain.JobResult{
			Name:   "3.9, ubuntu-latest",
			RunsOn: "ubuntu-latest",
			Matrix: map[string]string{"os": "ubuntu-latest", "python-version": "3.9"},
			Status: s,
		})
	}
	return r
}

func TestStore_RecordList(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := history.NewStore()

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, root, report("run-1", base, domain.StatusPassed, domain.StatusPassed)))
	require.NoError(t, store.Record(ctx, root, report("run-2", base.Add(time.Hour), domain.StatusPassed, domain.StatusFailed)))
	require.NoError(t, store.Record(ctx, root, report("run-3", base.Add(2*time.Hour), domain.StatusCancelled)))

	runs, err := store.List(ctx, root, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, 1, runs[1].Passed)
	assert.Equal(t, 1, runs[1].Failed)
	assert.Equal(t, domain.EventPush, runs[1].Event)
	assert.Equal(t, base.Add(time.Hour), runs[1].Started)
	assert.Equal(t, 90*time.Second, runs[1].Duration)

	all, err := store.List(ctx, root, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_DuplicateRun(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := history.NewStore()

	r := report("run-1", time.Now(), domain.StatusPassed)
	require.NoError(t, store.Record(ctx, root, r))

	err := store.Record(ctx, root, r)
	require.ErrorContains(t, err, domain.ErrHistoryWriteFailed.Error())
}

func TestStore_ListEmpty(t *testing.T) {
	runs, err := history.NewStore().List(context.Background(), t.TempDir(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
