// Package config provides the workflow loader for matrix.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.WorkflowLoader = (*Loader)(nil)

// Loader implements ports.WorkflowLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a new Loader reading from the OS filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// Discover walks up from cwd and returns the nearest workflow file.
func (l *Loader) Discover(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.WorkflowFileName)
		if info, err := l.FS.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(domain.ErrWorkflowNotFound, "cwd", cwd)
}

// Load reads and validates the workflow file at path.
func (l *Loader) Load(path string) (*domain.Workflow, error) {
	data, err := l.FS.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrWorkflowReadFailed.Error()), "path", path)
	}

	var file WorkflowFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrWorkflowParseFailed.Error()), "path", path)
	}

	for _, event := range file.On.Ignored {
		l.Logger.Warn(fmt.Sprintf("trigger %q is not supported and will never fire", event))
	}

	wf := &domain.Workflow{
		Name: file.Name,
		Path: path,
		Root: filepath.Dir(path),
		Env:  file.Env,
		Triggers: domain.Triggers{
			Push:        file.On.Push,
			PullRequest: file.On.PullRequest,
		},
	}
	if wf.Name == "" {
		wf.Name = filepath.Base(wf.Root)
	}
	for _, s := range file.On.Schedule {
		wf.Triggers.Schedules = append(wf.Triggers.Schedules, s.Cron)
	}
	if !wf.Triggers.Any() {
		return nil, zerr.With(domain.ErrNoTriggers, "path", path)
	}

	jobs, err := l.loadJobs(&file.Jobs)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	wf.Jobs = jobs

	return wf, nil
}

func (l *Loader) loadJobs(node *yaml.Node) ([]*domain.JobSpec, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) == 0 {
		return nil, domain.ErrNoJobs
	}

	jobs := make([]*domain.JobSpec, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		id := node.Content[i].Value

		var dto JobDTO
		if err := node.Content[i+1].Decode(&dto); err != nil {
			err = zerr.Wrap(err, domain.ErrWorkflowParseFailed.Error())
			return nil, zerr.With(err, "job", id)
		}

		job, err := buildJob(id, &dto)
		if err != nil {
			return nil, zerr.With(err, "job", id)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func buildJob(id string, dto *JobDTO) (*domain.JobSpec, error) {
	if strings.TrimSpace(dto.RunsOn) == "" {
		return nil, domain.ErrMissingRunsOn
	}
	if len(dto.Steps) == 0 {
		return nil, domain.ErrNoSteps
	}

	job := &domain.JobSpec{
		ID:      id,
		Name:    dto.Name,
		RunsOn:  dto.RunsOn,
		Env:     dto.Env,
		Timeout: minutes(dto.TimeoutMinutes),
		Strategy: domain.Strategy{
			Include:  dto.Strategy.Matrix.Include,
			Exclude:  dto.Strategy.Matrix.Exclude,
			FailFast: dto.Strategy.FailFast == nil || *dto.Strategy.FailFast,
		},
	}

	for _, axis := range dto.Strategy.Matrix.Axes {
		if len(axis.Values) == 0 {
			return nil, zerr.With(domain.ErrEmptyAxis, "axis", axis.Name)
		}
		job.Strategy.Axes = append(job.Strategy.Axes, domain.Axis{Name: axis.Name, Values: axis.Values})
	}

	ids := make(map[string]bool, len(dto.Steps))
	for i := range dto.Steps {
		step, err := buildStep(&dto.Steps[i])
		if err != nil {
			return nil, zerr.With(err, "step", i+1)
		}
		if step.ID != "" {
			if ids[step.ID] {
				return nil, zerr.With(domain.ErrDuplicateStepID, "step_id", step.ID)
			}
			ids[step.ID] = true
		}
		job.Steps = append(job.Steps, step)
	}

	return job, nil
}

func buildStep(dto *StepDTO) (domain.StepSpec, error) {
	hasUses := strings.TrimSpace(dto.Uses) != ""
	hasRun := strings.TrimSpace(dto.Run) != ""
	if hasUses == hasRun {
		return domain.StepSpec{}, domain.ErrInvalidStep
	}

	return domain.StepSpec{
		ID:               dto.ID,
		Name:             dto.Name,
		Uses:             strings.TrimSpace(dto.Uses),
		Run:              dto.Run,
		Shell:            dto.Shell,
		If:               dto.If,
		With:             dto.With,
		Env:              dto.Env,
		WorkingDirectory: dto.WorkingDirectory,
		Timeout:          minutes(dto.TimeoutMinutes),
	}, nil
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
