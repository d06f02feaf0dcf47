package ports

import (
	"context"
	"time"
)

// Renderer is the abstraction for output rendering.
// It decouples telemetry collection from presentation logic,
// allowing the same event stream to drive either a rich TUI or linear CI logs.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting new events and flush output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnPlanEmit is called once the matrix has been expanded.
	OnPlanEmit(jobs []string)

	// OnTaskStart is called when a job or step begins.
	// parentID is empty for jobs and the job's span id for steps.
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskLog is called when a step emits output.
	OnTaskLog(spanID string, data []byte)

	// OnTaskComplete is called when a job or step finishes.
	OnTaskComplete(spanID string, endTime time.Time, err error)
}
