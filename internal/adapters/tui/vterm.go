package tui

import (
	"bytes"
	"sync"

	"github.com/vito/midterm"
)

// Vterm renders a job's pty output through a virtual terminal, so spinners,
// carriage returns and cursor movement show up the way they would on a tty.
type Vterm struct {
	vt      *midterm.Terminal
	Offset  int
	Height  int
	Width   int
	viewBuf *bytes.Buffer
	// lineStart is false while the cursor sits after unterminated output.
	lineStart bool
	mu        sync.Mutex
}

// NewVterm creates a new Vterm instance.
func NewVterm() *Vterm {
	return &Vterm{
		vt:        midterm.NewAutoResizingTerminal(),
		viewBuf:   new(bytes.Buffer),
		lineStart: true,
	}
}

// Write implements io.Writer to write output to the virtual terminal.
func (v *Vterm) Write(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.write(p)
}

// AddLine writes a full line of its own, starting a new row if the previous
// output left the cursor mid-line.
func (v *Vterm) AddLine(line string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.lineStart {
		_, _ = v.write([]byte("\r\n"))
	}
	_, _ = v.write([]byte(line + "\r\n"))
}

func (v *Vterm) write(p []byte) (int, error) {
	// Stick to the bottom if we are already there.
	stickToBottom := v.Offset >= v.maxOffset()

	n, err := v.vt.Write(p)
	if len(p) > 0 {
		v.lineStart = p[len(p)-1] == '\n'
	}

	if stickToBottom {
		v.Offset = v.maxOffset()
	}
	return n, err
}

// SetHeight updates the view height and adjusts scrolling.
func (v *Vterm) SetHeight(h int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if h < 1 {
		h = 1
	}

	stickToBottom := v.Offset >= v.maxOffset()
	v.Height = h

	if stickToBottom {
		v.Offset = v.maxOffset()
	}
	v.clamp()
}

// SetWidth updates the terminal width.
func (v *Vterm) SetWidth(w int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if w < 1 {
		w = 1
	}
	v.Width = w
	v.vt.ResizeX(w)
}

// UsedHeight returns the total number of lines in the terminal buffer.
func (v *Vterm) UsedHeight() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vt.UsedHeight()
}

// Scroll moves the view for a navigation key. Unknown keys are ignored.
func (v *Vterm) Scroll(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch key {
	case "pgup":
		v.Offset -= v.Height
	case "pgdown":
		v.Offset += v.Height
	case "home":
		v.Offset = 0
	case "end":
		v.Offset = v.maxOffset()
	}
	v.clamp()
}

// Follow scrolls to the newest output.
func (v *Vterm) Follow() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Offset = v.maxOffset()
}

// View renders the visible rows.
func (v *Vterm) View() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.viewBuf.Reset()
	v.clamp()

	for i := range v.Height {
		row := v.Offset + i
		if row >= v.vt.UsedHeight() {
			break
		}
		if i > 0 {
			_ = v.viewBuf.WriteByte('\n')
		}
		_ = v.vt.RenderLine(v.viewBuf, row)
	}

	return v.viewBuf.String()
}

func (v *Vterm) clamp() {
	if limit := v.maxOffset(); v.Offset > limit {
		v.Offset = limit
	}
	if v.Offset < 0 {
		v.Offset = 0
	}
}

func (v *Vterm) maxOffset() int {
	return max(v.vt.UsedHeight()-v.Height, 0)
}
