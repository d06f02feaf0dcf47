package telemetry_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/matrix/internal/adapters/telemetry"
)

type flushRecorder struct {
	mu      sync.Mutex
	flushes [][]byte
}

func (r *flushRecorder) onFlush(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes = append(r.flushes, data)
}

func (r *flushRecorder) all() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.flushes...)
}

func TestBatchProcessor_SizeLimit(t *testing.T) {
	rec := &flushRecorder{}
	bp := telemetry.NewBatchProcessor(4, time.Hour, rec.onFlush)
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Empty(t, rec.all())

	_, err = bp.Write([]byte("cd"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("abcd")}, rec.all())
}

func TestBatchProcessor_TimeLimit(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &flushRecorder{}
		bp := telemetry.NewBatchProcessor(1024, 50*time.Millisecond, rec.onFlush)

		_, err := bp.Write([]byte("tick"))
		require.NoError(t, err)

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, [][]byte{[]byte("tick")}, rec.all())

		require.NoError(t, bp.Close())
	})
}

func TestBatchProcessor_Close(t *testing.T) {
	rec := &flushRecorder{}
	bp := telemetry.NewBatchProcessor(0, 0, rec.onFlush)

	_, err := bp.Write([]byte("tail"))
	require.NoError(t, err)
	require.NoError(t, bp.Close())
	require.NoError(t, bp.Close())

	assert.Equal(t, [][]byte{[]byte("tail")}, rec.all())

	_, err = bp.Write([]byte("late"))
	require.Error(t, err)
}
