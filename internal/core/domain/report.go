package domain

import "time"

// Status is the outcome of a job or a step.
type Status string

const (
	// StatusPassed indicates successful completion.
	StatusPassed Status = "passed"
	// StatusFailed indicates a failure.
	StatusFailed Status = "failed"
	// StatusSkipped indicates a step that did not run.
	StatusSkipped Status = "skipped"
	// StatusCancelled indicates the run was aborted before the job finished.
	StatusCancelled Status = "cancelled"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	ExitCode int           `json:"exit_code,omitzero"`
	Duration time.Duration `json:"duration,omitzero"`
	CacheHit *bool         `json:"cache_hit,omitempty"`
	Error    string        `json:"error,omitzero"`
}

// JobResult is the outcome of one matrix cell.
type JobResult struct {
	Name     string            `json:"name"`
	RunsOn   string            `json:"runs_on"`
	Matrix   map[string]string `json:"matrix,omitempty"`
	Status   Status            `json:"status"`
	Steps    []StepResult      `json:"steps"`
	Log      string            `json:"log,omitzero"`
	LogPath  string            `json:"log_path,omitzero"`
	Error    string            `json:"error,omitzero"`
	Started  time.Time         `json:"started"`
	Duration time.Duration     `json:"duration"`
}

// RunReport aggregates all job results of a single run.
type RunReport struct {
	ID       string        `json:"id"`
	Workflow string        `json:"workflow"`
	Event    EventKind     `json:"event"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Jobs     []JobResult   `json:"jobs"`
}

// Failed reports whether at least one job did not pass.
func (r *RunReport) Failed() bool {
	for _, j := range r.Jobs {
		if j.Status != StatusPassed {
			return true
		}
	}
	return false
}

// Counts returns the number of passed and not-passed jobs.
func (r *RunReport) Counts() (passed, failed int) {
	for _, j := range r.Jobs {
		if j.Status == StatusPassed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// RunSummary is a persisted run as listed by the history command.
type RunSummary struct {
	ID       string
	Workflow string
	Event    EventKind
	Started  time.Time
	Duration time.Duration
	Passed   int
	Failed   int
}
