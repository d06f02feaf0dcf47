// Package linear provides a line-buffered renderer for CI environments.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/matrix/internal/ui/output"
	"go.trai.ch/matrix/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer for non-interactive environments.
// It prints chronological logs prefixed with the job name.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu      sync.Mutex
	spans   map[string]*spanState
	buffers map[string]*bytes.Buffer
}

type spanState struct {
	name      string
	job       string
	isStep    bool
	startTime time.Time
}

// NewRenderer creates a new Renderer. Nil writers default to the process
// stdout and stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		output:  output.NewWithProfile(stderr, output.ColorProfileANSI),
		spans:   make(map[string]*spanState),
		buffers: make(map[string]*bytes.Buffer),
	}
}

// Start is a no-op.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes all remaining buffers.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spanID := range r.buffers {
		r.flushBufferLocked(spanID)
	}
	return nil
}

// Wait is a no-op.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the planned jobs.
func (r *Renderer) OnPlanEmit(jobs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Running %d job(s)\n", len(jobs))
}

// OnTaskStart prints a start line for jobs and steps.
func (r *Renderer) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := &spanState{name: name, job: name, startTime: startTime}
	if parent, ok := r.spans[parentID]; ok {
		state.job = parent.job
		state.isStep = true
	}
	r.spans[spanID] = state
	r.buffers[spanID] = new(bytes.Buffer)

	prefix := r.output.String(fmt.Sprintf("[%s]", state.job)).Faint().String()
	if state.isStep {
		_, _ = fmt.Fprintf(r.stderr, "%s %s %s\n", prefix, style.Dot, name)
		return
	}
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", prefix)
}

// OnTaskLog buffers output and prints complete lines with the job prefix.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.spans[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	buf.Write(data)

	for {
		line, err := buf.ReadBytes('\n')
		if err != nil {
			if len(line) > 0 {
				rest := new(bytes.Buffer)
				rest.Write(line)
				r.buffers[spanID] = rest
			}
			break
		}
		r.printLineLocked(state.job, line)
	}
}

// OnTaskComplete flushes remaining output and prints the outcome.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.spans[spanID]
	if !ok {
		return
	}

	r.flushBufferLocked(spanID)

	duration := endTime.Sub(state.startTime).Round(time.Millisecond)
	prefix := fmt.Sprintf("[%s]", state.job)
	subject := "Job"
	if state.isStep {
		subject = state.name
	}

	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s %s failed after %v: %v\n", prefix, symbol, subject, duration, err)
	} else {
		symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s %s completed in %v\n", prefix, symbol, subject, duration)
	}

	delete(r.spans, spanID)
	delete(r.buffers, spanID)
}

// flushBufferLocked prints any partial line buffered for spanID.
// Must be called with r.mu held.
func (r *Renderer) flushBufferLocked(spanID string) {
	state, ok := r.spans[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	if buf.Len() > 0 {
		r.printLineLocked(state.job, buf.Bytes())
		buf.Reset()
	}
}

// printLineLocked prints a line with the job name prefix.
// Must be called with r.mu held.
func (r *Renderer) printLineLocked(job string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}

	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", job, line)
}
