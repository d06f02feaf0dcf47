package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.trai.ch/matrix/internal/adapters/watcher"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/engine/trigger"
	"go.trai.ch/zerr"
)

const defaultDebounce = watcher.DefaultDebounceWindow

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	// Run is applied to every run the loop starts. Event and At are set per event.
	Run RunOptions
}

// Watch runs the workflow every time one of its schedules fires or, when it
// reacts to push, every time files under the workflow root change.
// Runs never overlap: an event arriving while a run is active is dropped.
// Watch returns nil once ctx is cancelled.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	wf, err := a.loadWorkflow(opts.Run.File)
	if err != nil {
		return err
	}
	if !wf.Triggers.Push && len(wf.Triggers.Schedules) == 0 {
		return zerr.With(domain.ErrNotTriggered, "event", "push or schedule")
	}

	runOpts := opts.Run
	runOpts.File = wf.Path
	if runOpts.OutputMode == "" {
		runOpts.OutputMode = "linear"
	}

	events := make(chan domain.Event, 1)
	var running atomic.Bool
	fire := func(kind domain.EventKind) {
		if running.Load() {
			a.logger.Info(fmt.Sprintf("%s ignored: %s", kind, domain.ErrRunInProgress))
			return
		}
		select {
		case events <- domain.Event{Kind: kind, At: a.now()}:
		default:
			a.logger.Info(fmt.Sprintf("%s ignored: a run is already queued", kind))
		}
	}

	if len(wf.Triggers.Schedules) > 0 {
		c := cron.New()
		for _, expr := range wf.Triggers.Schedules {
			sched, err := trigger.Parse(expr)
			if err != nil {
				return err
			}
			c.Schedule(sched, cron.FuncJob(func() { fire(domain.EventSchedule) }))
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	if wf.Triggers.Push {
		if err := a.watcher.Start(ctx, wf.Root); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to watch workflow root"), "root", wf.Root)
		}
		defer func() { _ = a.watcher.Stop() }()

		debouncer := watcher.NewDebouncer(a.debounce, func([]string) { fire(domain.EventPush) })
		go func() {
			for ev := range a.watcher.Events() {
				debouncer.Add(ev.Path)
			}
		}()
	}

	a.logger.Info(fmt.Sprintf("watching %s on %s", wf.Name, strings.Join(triggerNames(wf.Triggers), ", ")))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			running.Store(true)
			a.runEvent(ctx, runOpts, ev)
			running.Store(false)
		}
	}
}

func (a *App) runEvent(ctx context.Context, opts RunOptions, ev domain.Event) {
	opts.Event = ev.Kind
	opts.At = ev.At

	a.logger.Info(fmt.Sprintf("%s: starting run", ev.Kind))
	_, err := a.Run(ctx, opts)
	switch {
	case err == nil:
		a.logger.Info(fmt.Sprintf("%s: run passed", ev.Kind))
	case errors.Is(err, domain.ErrJobFailed):
		a.logger.Warn(fmt.Sprintf("%s: run failed", ev.Kind))
	case ctx.Err() != nil:
	default:
		a.logger.Error(err)
	}
}
