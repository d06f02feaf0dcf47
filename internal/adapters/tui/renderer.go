package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/matrix/internal/adapters/telemetry"
	"go.trai.ch/matrix/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer wraps the Bubble Tea model as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

// NewRenderer creates a new TUI renderer.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// Start launches the TUI in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop signals the TUI to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the TUI has terminated.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnPlanEmit initializes the job list.
func (r *Renderer) OnPlanEmit(jobs []string) {
	r.program.Send(telemetry.MsgInitJobs{Jobs: jobs})
}

// OnTaskStart forwards span start events to the TUI.
func (r *Renderer) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	r.program.Send(telemetry.MsgTaskStart{
		SpanID:    spanID,
		ParentID:  parentID,
		Name:      name,
		StartTime: startTime,
	})
}

// OnTaskLog forwards step output to the TUI.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.program.Send(telemetry.MsgTaskLog{SpanID: spanID, Data: data})
}

// OnTaskComplete forwards span completion events to the TUI.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.program.Send(telemetry.MsgTaskComplete{
		SpanID:  spanID,
		EndTime: endTime,
		Err:     err,
	})
}
