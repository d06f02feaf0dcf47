package app_test

import (
	"context"
	"errors"
	"io"
	"iter"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/matrix/internal/app"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.uber.org/mock/gomock"
)

type fakeWatcher struct {
	mu      sync.Mutex
	root    string
	started chan struct{}
	stopped bool
	events  chan ports.WatchEvent
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		started: make(chan struct{}),
		events:  make(chan ports.WatchEvent, 16),
	}
}

func (w *fakeWatcher) Start(_ context.Context, root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.root = root
	close(w.started)
	return nil
}

func (w *fakeWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stopped {
		w.stopped = true
		close(w.events)
	}
	return nil
}

func (w *fakeWatcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for ev := range w.events {
			if !yield(ev) {
				return
			}
		}
	}
}

func (w *fakeWatcher) push(t *testing.T, path string) {
	t.Helper()
	select {
	case <-w.started:
	case <-time.After(5 * time.Second):
		t.Error("watcher was not started")
		return
	}
	w.events <- ports.WatchEvent{Path: path, Operation: ports.OpWrite}
}

func TestApp_Watch_PushRunsWorkflow(t *testing.T) {
	f := newFixture(t)
	wf := f.workflow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	f.loader.EXPECT().Load(f.workflowPath()).Return(wf, nil).Times(2)
	f.expectHosts(t)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.history.EXPECT().Record(gomock.Any(), f.root, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, report *domain.RunReport) error {
			assert.Equal(t, domain.EventPush, report.Event)
			return nil
		})
	f.logger.EXPECT().Info("push: run passed").Do(func(string) { cancel() })
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	a := f.app().WithDebounce(10 * time.Millisecond)

	go f.watcher.push(t, filepath.Join(f.root, "src", "main.py"))

	err := a.Watch(ctx, app.WatchOptions{Run: app.RunOptions{File: f.workflowPath()}})
	require.NoError(t, err)
	assert.Equal(t, f.root, f.watcher.root)
	assert.True(t, f.watcher.stopped)
}

func TestApp_Watch_DropsEventsDuringRun(t *testing.T) {
	f := newFixture(t)
	wf := f.workflow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dropped := make(chan struct{})
	var once sync.Once

	f.loader.EXPECT().Load(f.workflowPath()).Return(wf, nil).Times(2)
	f.expectHosts(t)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *domain.Command, []string, io.Writer, io.Writer) error {
			f.watcher.events <- ports.WatchEvent{Path: filepath.Join(f.root, "README.md"), Operation: ports.OpWrite}
			select {
			case <-dropped:
			case <-time.After(5 * time.Second):
				return errors.New("event was not dropped")
			}
			return nil
		})
	f.history.EXPECT().Record(gomock.Any(), f.root, gomock.Any()).Return(nil)
	f.logger.EXPECT().Info("push: run passed").Do(func(string) { cancel() })
	f.logger.EXPECT().Info(gomock.Any()).Do(func(msg string) {
		if strings.Contains(msg, domain.ErrRunInProgress.Error()) {
			once.Do(func() { close(dropped) })
		}
	}).AnyTimes()

	a := f.app().WithDebounce(10 * time.Millisecond)

	go f.watcher.push(t, filepath.Join(f.root, "src", "main.py"))

	require.NoError(t, a.Watch(ctx, app.WatchOptions{Run: app.RunOptions{File: f.workflowPath()}}))
}

func TestApp_Watch_RequiresPushOrSchedule(t *testing.T) {
	f := newFixture(t)
	wf := f.workflow()
	wf.Triggers = domain.Triggers{PullRequest: true}
	f.loader.EXPECT().Load(f.workflowPath()).Return(wf, nil)

	err := f.app().Watch(context.Background(), app.WatchOptions{Run: app.RunOptions{File: f.workflowPath()}})
	require.ErrorContains(t, err, domain.ErrNotTriggered.Error())
}
