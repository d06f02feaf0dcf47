// Package runner executes the steps of a single job on a freshly provisioned host.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/matrix/internal/engine/actions"
	"go.trai.ch/matrix/internal/engine/expr"
	"go.trai.ch/zerr"
)

// postTimeout bounds the post hooks of a job, which outlive its deadline.
const postTimeout = 10 * time.Minute

// Options holds the settings shared by every job of a run.
type Options struct {
	RunID string
	Event domain.EventKind
	// Root is the workflow root, checked out by actions/checkout.
	Root        string
	WorkflowEnv map[string]string
	// LogDir receives one log file per job. Empty disables job logs.
	LogDir    string
	AnyHost   bool
	KeepHosts bool
	NoCache   bool
}

// Runner runs jobs.
type Runner struct {
	hosts    ports.HostProvider
	executor ports.Executor
	hasher   ports.Hasher
	actions  *actions.Registry
	tracer   ports.Tracer
	logger   ports.Logger
	now      func() time.Time
}

// New creates a new Runner.
func New(
	hosts ports.HostProvider,
	executor ports.Executor,
	hasher ports.Hasher,
	registry *actions.Registry,
	tracer ports.Tracer,
	logger ports.Logger,
) *Runner {
	return &Runner{
		hosts:    hosts,
		executor: executor,
		hasher:   hasher,
		actions:  registry,
		tracer:   tracer,
		logger:   logger,
		now:      time.Now,
	}
}

// jobRun is the state of one job while its steps execute.
type jobRun struct {
	r    *Runner
	opts *Options
	job  *domain.Job
	host *domain.Host

	log  io.Writer
	span ports.Span

	env     map[string]string
	paths   []string
	actEnv  []string
	outputs map[string]map[string]string
	posts   []postHook

	failure error
	result  *domain.JobResult
}

type postHook struct {
	name string
	run  actions.PostFunc
}

// RunJob provisions a host for job, runs its steps in order and tears the
// host down. Failures are reported in the result, never returned.
func (r *Runner) RunJob(ctx context.Context, job *domain.Job, opts *Options) domain.JobResult {
	started := r.now()
	result := domain.JobResult{
		Name:    job.Name,
		RunsOn:  job.RunsOn,
		Matrix:  job.Matrix.Map(),
		Status:  domain.StatusPassed,
		Started: started,
	}

	if ctx.Err() != nil {
		result.Status = domain.StatusCancelled
		result.Steps = skippedSteps(job.Steps)
		return result
	}

	jobCtx, span := r.tracer.Start(ctx, job.Name)
	defer span.End()
	span.SetAttribute("matrix.job", job.Name)
	span.SetAttribute("matrix.runs_on", job.RunsOn)

	if job.Timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, job.Timeout)
		defer cancel()
	}

	j := &jobRun{
		r:       r,
		opts:    opts,
		job:     job,
		span:    span,
		env:     mergeEnv(opts.WorkflowEnv, job.Env),
		outputs: make(map[string]map[string]string),
		result:  &result,
	}

	logFile := j.openLog()
	if logFile != nil {
		defer func() { _ = logFile.Close() }()
	}

	j.run(jobCtx)

	switch {
	case ctx.Err() != nil:
		result.Status = domain.StatusCancelled
		result.Error = ctx.Err().Error()
	case j.failure != nil:
		result.Status = domain.StatusFailed
		result.Error = j.failure.Error()
		span.RecordError(j.failure)
	}
	result.Duration = r.now().Sub(started)
	return result
}

func (j *jobRun) openLog() *os.File {
	j.log = io.Discard
	if j.opts.LogDir == "" {
		return nil
	}

	if err := os.MkdirAll(j.opts.LogDir, domain.DirPerm); err != nil {
		j.r.logger.Warn(fmt.Sprintf("job %s: cannot create log directory: %v", j.job.Name, err))
		return nil
	}
	path := filepath.Join(j.opts.LogDir, j.job.Slug()+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.FilePerm)
	if err != nil {
		j.r.logger.Warn(fmt.Sprintf("job %s: cannot create log file: %v", j.job.Name, err))
		return nil
	}
	j.log = f
	j.result.LogPath = path
	return f
}

func (j *jobRun) run(ctx context.Context) {
	host, err := j.r.hosts.Provision(ctx, domain.HostRequest{
		Root:    j.opts.Root,
		Label:   j.job.RunsOn,
		Name:    j.job.Slug(),
		AnyHost: j.opts.AnyHost,
	})
	if err != nil {
		j.failure = zerr.With(err, "runs_on", j.job.RunsOn)
		_, _ = fmt.Fprintf(j.log, "Error: %v\n", j.failure)
		j.result.Steps = skippedSteps(j.job.Steps)
		return
	}
	j.host = host
	_, _ = fmt.Fprintf(j.log, "Provisioned host %s (%s %s) for %s\n", host.ID, host.OS, host.Arch, j.job.RunsOn)

	defer j.teardown()

	for i := range j.job.Steps {
		j.result.Steps = append(j.result.Steps, j.runStep(ctx, i, &j.job.Steps[i]))
	}
	if err := ctx.Err(); err != nil && j.failure == nil {
		j.failure = zerr.With(zerr.Wrap(err, "job timed out"), "timeout", j.job.Timeout.String())
	}

	j.runPost(ctx)
}

// runPost runs the post hooks in reverse order. They get their own deadline,
// so a job that timed out can still save its cache.
func (j *jobRun) runPost(ctx context.Context) {
	succeeded := j.failure == nil && ctx.Err() == nil

	postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postTimeout)
	defer cancel()

	for i := len(j.posts) - 1; i >= 0; i-- {
		hook := j.posts[i]
		_, span := j.r.tracer.Start(postCtx, hook.name)
		out := io.MultiWriter(j.log, span)
		_, _ = fmt.Fprintf(j.log, "==> %s\n", hook.name)

		if err := hook.run(postCtx, succeeded, out); err != nil {
			_, _ = fmt.Fprintf(out, "Warning: %v\n", err)
			j.r.logger.Warn(fmt.Sprintf("job %s: %s: %v", j.job.Name, hook.name, err))
		}
		span.End()
	}
}

func (j *jobRun) teardown() {
	if j.opts.KeepHosts {
		_, _ = fmt.Fprintf(j.log, "Keeping host %s at %s\n", j.host.ID, j.host.Root)
		return
	}
	if err := j.r.hosts.Teardown(j.host); err != nil {
		j.r.logger.Warn(fmt.Sprintf("job %s: failed to tear down host %s: %v", j.job.Name, j.host.ID, err))
	}
}

func (j *jobRun) status() string {
	if j.failure != nil {
		return "failure"
	}
	return "success"
}

func (j *jobRun) exprContext(env map[string]string) *expr.Context {
	return &expr.Context{
		Matrix: j.job.Matrix.Map(),
		Env:    env,
		Runner: expr.Runner{
			OS:   j.host.OS,
			Arch: j.host.Arch,
			Temp: j.host.Temp,
			Name: j.host.ID,
		},
		Steps:     j.outputs,
		JobStatus: j.status(),
		Workspace: j.host.Workspace,
		Hasher:    j.r.hasher,
	}
}

func (j *jobRun) runStep(ctx context.Context, index int, step *domain.StepSpec) domain.StepResult {
	res := domain.StepResult{Name: step.DisplayName(), Status: domain.StatusSkipped}

	if j.failure != nil || ctx.Err() != nil {
		return res
	}

	exprCtx := j.exprContext(j.env)
	if name, err := exprCtx.Interpolate(res.Name); err == nil {
		res.Name = name
	}

	stepEnv, err := exprCtx.InterpolateMap(step.Env)
	if err != nil {
		return j.fail(res, step, err)
	}
	exprCtx.Env = mergeEnv(j.env, stepEnv)

	ok, err := exprCtx.Condition(step.If)
	if err != nil {
		return j.fail(res, step, err)
	}
	if !ok {
		_, _ = fmt.Fprintf(j.log, "Skipping %s: condition %q is false\n", res.Name, step.If)
		return res
	}

	stepCtx, span := j.r.tracer.Start(ctx, res.Name)
	defer span.End()

	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(stepCtx, step.Timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	out := io.MultiWriter(j.log, span, &buf)
	_, _ = fmt.Fprintf(j.log, "==> %s\n", res.Name)

	start := j.r.now()
	if step.IsAction() {
		err = j.runAction(stepCtx, step, exprCtx, out, &res)
	} else {
		err = j.runScript(stepCtx, index, step, exprCtx, out)
	}
	res.Duration = j.r.now().Sub(start)
	j.result.Log = buf.String()

	if err != nil {
		if errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = zerr.With(zerr.Wrap(err, "step timed out"), "timeout", step.Timeout.String())
		}
		span.RecordError(err)
		return j.fail(res, step, err)
	}

	res.Status = domain.StatusPassed
	return res
}

func (j *jobRun) fail(res domain.StepResult, step *domain.StepSpec, err error) domain.StepResult {
	err = zerr.With(zerr.Wrap(err, domain.ErrStepFailed.Error()), "step", res.Name)
	res.Status = domain.StatusFailed
	res.Error = err.Error()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}

	if j.failure == nil {
		j.failure = err
	}
	_, _ = fmt.Fprintf(j.log, "Error: %v\n", err)
	if step.ID != "" {
		j.outputs[step.ID] = map[string]string{}
	}
	return res
}

func (j *jobRun) runAction(
	ctx context.Context,
	step *domain.StepSpec,
	exprCtx *expr.Context,
	out io.Writer,
	res *domain.StepResult,
) error {
	action, ok := j.r.actions.Lookup(step.Uses)
	if !ok {
		return zerr.With(domain.ErrUnknownAction, "uses", step.Uses)
	}

	inputs, err := exprCtx.InterpolateMap(step.With)
	if err != nil {
		return err
	}

	result, err := action.Run(ctx, &actions.Invocation{
		Root:    j.opts.Root,
		Host:    j.host,
		Inputs:  inputs,
		NoCache: j.opts.NoCache,
		Out:     out,
	})
	if err != nil {
		return err
	}

	j.actEnv = append(j.actEnv, result.Env...)
	res.CacheHit = result.CacheHit
	if step.ID != "" {
		j.outputs[step.ID] = maps.Clone(result.Outputs)
	}
	if result.Post != nil {
		j.posts = append(j.posts, postHook{name: "Post " + res.Name, run: result.Post})
	}
	return nil
}

func (j *jobRun) runScript(
	ctx context.Context,
	index int,
	step *domain.StepSpec,
	exprCtx *expr.Context,
	out io.Writer,
) error {
	script, err := exprCtx.Interpolate(step.Run)
	if err != nil {
		return err
	}

	dir := j.host.Workspace
	if step.WorkingDirectory != "" {
		wd, err := exprCtx.Interpolate(step.WorkingDirectory)
		if err != nil {
			return err
		}
		if dir, err = j.host.ResolvePath(wd); err != nil {
			return err
		}
	}

	scriptPath := filepath.Join(j.host.Temp, "step-"+strconv.Itoa(index+1)+scriptExt(step.Shell))
	if err := os.WriteFile(scriptPath, []byte(script), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write step script"), "path", scriptPath)
	}

	files, err := newCommandFiles(j.host.Temp, index+1)
	if err != nil {
		return err
	}

	environment := j.hostEnv()
	maps.Copy(environment, files.vars())
	maps.Copy(environment, exprCtx.Env)

	cmd := &domain.Command{
		Name:        step.DisplayName(),
		Args:        shellCommand(step.Shell, scriptPath),
		Dir:         dir,
		Environment: environment,
	}
	provisioned := j.provisioned()
	if err := writeLoginProfile(j.host.Home, provisioned); err != nil {
		return err
	}
	runErr := j.r.executor.Execute(ctx, cmd, provisioned, out, out)

	if err := j.collect(step, files); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// collect applies what the step wrote to its command files.
func (j *jobRun) collect(step *domain.StepSpec, files *commandFiles) error {
	exported, err := readKeyValues(files.Env)
	if err != nil {
		return err
	}
	maps.Copy(j.env, exported)

	dirs, err := readPath(files.Path)
	if err != nil {
		return err
	}
	j.paths = append(j.paths, dirs...)

	outputs, err := readKeyValues(files.Output)
	if err != nil {
		return err
	}
	if step.ID != "" {
		j.outputs[step.ID] = outputs
	}
	return nil
}

// hostEnv returns the variables describing the host and the run.
func (j *jobRun) hostEnv() map[string]string {
	return map[string]string{
		"HOME":             j.host.Home,
		"CI":               "true",
		"RUNNER_OS":        j.host.OS,
		"RUNNER_ARCH":      j.host.Arch,
		"RUNNER_TEMP":      j.host.Temp,
		"MATRIX_WORKSPACE": j.host.Workspace,
		"MATRIX_JOB":       j.job.Name,
		"MATRIX_RUN_ID":    j.opts.RunID,
		"MATRIX_EVENT":     string(j.opts.Event),
	}
}

// provisioned returns the action environment followed by one PATH entry per
// directory added through $MATRIX_PATH. Each PATH entry is prepended, so the
// most recent directory wins.
func (j *jobRun) provisioned() []string {
	env := make([]string, 0, len(j.actEnv)+len(j.paths))
	env = append(env, j.actEnv...)
	for _, dir := range j.paths {
		env = append(env, "PATH="+dir)
	}
	return env
}

func skippedSteps(steps []domain.StepSpec) []domain.StepResult {
	out := make([]domain.StepResult, len(steps))
	for i := range steps {
		out[i] = domain.StepResult{Name: steps[i].DisplayName(), Status: domain.StatusSkipped}
	}
	return out
}

func mergeEnv(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}
