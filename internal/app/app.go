// Package app implements the application layer for matrix.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/matrix/internal/adapters/detector"
	"go.trai.ch/matrix/internal/adapters/linear"
	"go.trai.ch/matrix/internal/adapters/telemetry"
	"go.trai.ch/matrix/internal/adapters/tui"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/matrix/internal/engine/actions"
	"go.trai.ch/matrix/internal/engine/matrix"
	"go.trai.ch/matrix/internal/engine/runner"
	"go.trai.ch/matrix/internal/engine/scheduler"
	"go.trai.ch/matrix/internal/engine/trigger"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	loader   ports.WorkflowLoader
	logger   ports.Logger
	hosts    ports.HostProvider
	executor ports.Executor
	hasher   ports.Hasher
	actions  *actions.Registry
	history  ports.HistoryStore
	watcher  ports.Watcher

	teaOptions     []tea.ProgramOption
	stdout, stderr io.Writer
	debounce       time.Duration
	now            func() time.Time
}

// New creates a new App instance.
func New(
	loader ports.WorkflowLoader,
	log ports.Logger,
	hosts ports.HostProvider,
	executor ports.Executor,
	hasher ports.Hasher,
	registry *actions.Registry,
	history ports.HistoryStore,
	watcher ports.Watcher,
) *App {
	return &App{
		loader:   loader,
		logger:   log,
		hosts:    hosts,
		executor: executor,
		hasher:   hasher,
		actions:  registry,
		history:  history,
		watcher:  watcher,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		debounce: defaultDebounce,
		now:      time.Now,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithOutput redirects the summary, plan and linear renderer output.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// File is the workflow file. Empty discovers it from the working directory.
	File string
	// Jobs selects job ids to run. Empty runs every job.
	Jobs  []string
	Event domain.EventKind
	// At is the event time. Zero means now.
	At         time.Time
	Parallel   int
	NoCache    bool
	AnyHost    bool
	KeepHosts  bool
	ReportPath string
	OutputMode string
}

// Run fires one event at the workflow and runs every job it triggers.
// It returns domain.ErrJobFailed when at least one job did not pass.
func (a *App) Run(ctx context.Context, opts RunOptions) (*domain.RunReport, error) {
	wf, err := a.loadWorkflow(opts.File)
	if err != nil {
		return nil, err
	}

	ev := domain.Event{Kind: opts.Event, At: opts.At}
	if ev.Kind == "" {
		ev.Kind = domain.EventPush
	}
	if ev.At.IsZero() {
		ev.At = a.now()
	}

	ok, err := trigger.Matches(wf.Triggers, ev)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, zerr.With(domain.ErrNotTriggered, "event", string(ev.Kind))
	}

	jobs, err := matrix.ExpandWorkflow(wf, opts.Jobs)
	if err != nil {
		return nil, err
	}

	report, err := a.execute(ctx, wf, ev, jobs, &opts)
	if err != nil {
		return nil, err
	}

	// An interrupted run is still recorded.
	a.finish(context.WithoutCancel(ctx), wf, report, opts.ReportPath)
	if report.Failed() {
		return report, domain.ErrJobFailed
	}
	return report, nil
}

// loadWorkflow discovers, loads and validates the workflow.
func (a *App) loadWorkflow(file string) (*domain.Workflow, error) {
	path, err := a.resolveWorkflowPath(file)
	if err != nil {
		return nil, err
	}

	wf, err := a.loader.Load(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load workflow")
	}

	if err := trigger.Validate(wf.Triggers); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	if err := a.actions.Validate(wf); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return wf, nil
}

func (a *App) resolveWorkflowPath(file string) (string, error) {
	if file != "" {
		abs, err := filepath.Abs(file)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrWorkflowReadFailed.Error()), "path", file)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", zerr.Wrap(err, "failed to get working directory")
	}
	return a.loader.Discover(cwd)
}

// execute runs jobs behind the renderer selected by opts.OutputMode.
func (a *App) execute(
	ctx context.Context,
	wf *domain.Workflow,
	ev domain.Event,
	jobs []*domain.Job,
	opts *RunOptions,
) (*domain.RunReport, error) {
	renderer := a.newRenderer(ctx, opts.OutputMode)

	// Spans reach the renderer through the bridge; span output is streamed
	// by the tracer itself.
	bridge := telemetry.NewBridge(renderer)
	tp := setupOTel(bridge)
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()
	tracer := telemetry.NewOTelTracer("matrix").WithRenderer(renderer)

	runID := uuid.NewString()
	runOpts := &runner.Options{
		RunID:       runID,
		Event:       ev.Kind,
		Root:        wf.Root,
		WorkflowEnv: wf.Env,
		LogDir:      filepath.Join(domain.DefaultLogsPath(wf.Root), runID),
		AnyHost:     opts.AnyHost,
		KeepHosts:   opts.KeepHosts,
		NoCache:     opts.NoCache,
	}
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	sched := scheduler.NewScheduler(
		runner.New(a.hosts, a.executor, a.hasher, a.actions, tracer, a.logger),
		tracer,
	)

	var report *domain.RunReport
	g, gctx := errgroup.WithContext(ctx)

	// Renderer Routine
	g.Go(func() error {
		if err := renderer.Start(gctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	// Scheduler Routine
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = zerr.With(zerr.New("scheduler panicked"), "panic", fmt.Sprint(r))
			}
			_ = renderer.Stop()
		}()

		report = sched.Run(gctx, wf.Name, ev.Kind, jobs, runOpts, parallel)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func (a *App) newRenderer(ctx context.Context, outputMode string) ports.Renderer {
	mode := detector.ResolveMode(detector.DetectEnvironment(), outputMode)
	if mode == detector.ModeTUI {
		model := tui.NewModel(a.stderr)
		optsTea := append([]tea.ProgramOption{tea.WithContext(ctx)}, a.teaOptions...)
		return tui.NewRenderer(&model, optsTea...)
	}
	return linear.NewRenderer(a.stdout, a.stderr)
}

// finish prints the summary and persists the report. Persistence failures
// are logged and never fail the run.
func (a *App) finish(ctx context.Context, wf *domain.Workflow, report *domain.RunReport, reportPath string) {
	printSummary(a.stdout, report)

	if reportPath != "" {
		if err := writeReport(reportPath, report); err != nil {
			a.logger.Error(err)
		}
	}

	if err := a.history.Record(ctx, wf.Root, report); err != nil {
		a.logger.Warn("run history not updated: " + err.Error())
	}
}

// setupOTel configures the OpenTelemetry SDK with the renderer bridge.
func setupOTel(bridge *telemetry.Bridge) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)
	otel.SetTracerProvider(tp)
	return tp
}
