package telemetry

import "time"

// MsgInitJobs initializes the job list of the TUI.
type MsgInitJobs struct {
	Jobs []string
}

// MsgTaskStart indicates a job or step span has started.
type MsgTaskStart struct {
	SpanID    string
	ParentID  string // Empty for jobs
	Name      string
	StartTime time.Time
}

// MsgTaskComplete indicates a job or step span has finished.
type MsgTaskComplete struct {
	SpanID  string
	EndTime time.Time
	Err     error
}

// MsgTaskLog carries a chunk of step output.
type MsgTaskLog struct {
	SpanID string
	Data   []byte
}
