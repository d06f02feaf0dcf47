// Package domain contains the core types of the workflow runner.
package domain

import "time"

// Workflow is a loaded workflow definition.
// Jobs keeps the declaration order of the workflow file.
type Workflow struct {
	Name     string
	Path     string
	Root     string
	Triggers Triggers
	Env      map[string]string
	Jobs     []*JobSpec
}

// Job returns the job definition with the given id.
func (w *Workflow) Job(id string) (*JobSpec, bool) {
	for _, j := range w.Jobs {
		if j.ID == id {
			return j, true
		}
	}
	return nil, false
}

// Triggers lists the events that start a run of the workflow.
type Triggers struct {
	Schedules   []string
	Push        bool
	PullRequest bool
}

// Any reports whether at least one trigger is declared.
func (t Triggers) Any() bool {
	return t.Push || t.PullRequest || len(t.Schedules) > 0
}

// JobSpec is the definition of a job before matrix expansion.
// Name, RunsOn and Env may contain ${{ }} expressions.
type JobSpec struct {
	ID       string
	Name     string
	RunsOn   string
	Env      map[string]string
	Timeout  time.Duration
	Strategy Strategy
	Steps    []StepSpec
}

// Strategy holds the matrix definition of a job.
type Strategy struct {
	Axes     []Axis
	Include  []map[string]string
	Exclude  []map[string]string
	FailFast bool
}

// Axis is one named dimension of the matrix.
type Axis struct {
	Name   string
	Values []string
}

// StepSpec is a single step of a job.
// Exactly one of Uses or Run is set.
type StepSpec struct {
	ID               string
	Name             string
	Uses             string
	Run              string
	Shell            string
	If               string
	With             map[string]string
	Env              map[string]string
	WorkingDirectory string
	Timeout          time.Duration
}

// IsAction reports whether the step references a reusable action.
func (s *StepSpec) IsAction() bool {
	return s.Uses != ""
}

// DisplayName returns the name shown in logs and reports.
func (s *StepSpec) DisplayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Uses != "":
		return "Run " + s.Uses
	default:
		return "Run " + firstLine(s.Run)
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
