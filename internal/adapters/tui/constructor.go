// Package tui provides the interactive terminal interface of a run.
package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/matrix/internal/ui/output"
)

// NewModel creates a new TUI model rendering to w.
func NewModel(w io.Writer) Model {
	if w == nil {
		w = os.Stderr
	}

	out := output.New(w)
	lipgloss.SetColorProfile(out.Profile)

	return Model{
		Jobs:       make([]*JobNode, 0),
		JobMap:     make(map[string]*JobNode),
		SpanMap:    make(map[string]*JobNode),
		FollowMode: true,
	}
}
