package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span as a child of the span in ctx.
	Start(ctx context.Context, name string) (context.Context, Span)
	// EmitPlan signals which jobs are planned for execution.
	EmitPlan(ctx context.Context, jobNames []string)
}

// Span represents a unit of work (a job or a step).
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}
