package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/matrix/internal/adapters/telemetry"
	"go.trai.ch/matrix/internal/ui/style"
)

const (
	jobListWidthRatio  = 0.3
	logPaneBorderWidth = 4
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	// StatusPending indicates the job is waiting for a slot.
	StatusPending JobStatus = "Pending"
	// StatusRunning indicates the job is executing.
	StatusRunning JobStatus = "Running"
	// StatusDone indicates the job passed.
	StatusDone JobStatus = "Done"
	// StatusError indicates the job failed.
	StatusError JobStatus = "Error"
)

// JobNode is a single job in the list.
type JobNode struct {
	Name        string
	SpanID      string
	Status      JobStatus
	CurrentStep string
	Term        *Vterm
}

// Model is the TUI state.
type Model struct {
	Jobs        []*JobNode
	JobMap      map[string]*JobNode
	SpanMap     map[string]*JobNode
	SelectedIdx int
	ListOffset  int
	ListHeight  int
	LogWidth    int
	LogHeight   int
	FollowMode  bool
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // Message dispatch
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		listWidth := int(float64(msg.Width) * jobListWidthRatio)
		m.LogWidth = msg.Width - listWidth - logPaneBorderWidth

		headerHeight := lipgloss.Height(titleStyle.Render("JOBS") + "\n\n")
		m.ListHeight = msg.Height - headerHeight
		m.LogHeight = msg.Height - headerHeight
		m.ensureVisible()

		for _, node := range m.Jobs {
			m.sizeTerm(node.Term)
		}

	case telemetry.MsgInitJobs:
		m.Jobs = make([]*JobNode, len(msg.Jobs))
		m.JobMap = make(map[string]*JobNode, len(msg.Jobs))
		m.SpanMap = make(map[string]*JobNode)
		for i, name := range msg.Jobs {
			term := NewVterm()
			m.sizeTerm(term)
			m.Jobs[i] = &JobNode{Name: name, Status: StatusPending, Term: term}
			m.JobMap[name] = m.Jobs[i]
		}

	case telemetry.MsgTaskStart:
		m.handleStart(msg)

	case telemetry.MsgTaskLog:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			_, _ = node.Term.Write(msg.Data)
		}

	case telemetry.MsgTaskComplete:
		m.handleComplete(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "k", "up":
		if m.SelectedIdx > 0 {
			m.SelectedIdx--
			m.FollowMode = false
			m.ensureVisible()
		}
	case "j", "down":
		if m.SelectedIdx < len(m.Jobs)-1 {
			m.SelectedIdx++
			m.FollowMode = false
			m.ensureVisible()
		}
	case "esc":
		m.FollowMode = true
		for i, node := range m.Jobs {
			if node.Status == StatusRunning {
				m.SelectedIdx = i
				break
			}
		}
		m.ensureVisible()
		if node := m.selected(); node != nil {
			node.Term.Follow()
		}
	default:
		// Scrolling keys go to the selected job's terminal.
		if node := m.selected(); node != nil {
			node.Term.Scroll(msg.String())
		}
	}
	return nil
}

func (m *Model) handleStart(msg telemetry.MsgTaskStart) {
	if parent, ok := m.SpanMap[msg.ParentID]; ok {
		m.SpanMap[msg.SpanID] = parent
		parent.CurrentStep = msg.Name
		parent.Term.AddLine(style.Dot + " " + msg.Name)
		return
	}

	node, ok := m.JobMap[msg.Name]
	if !ok {
		return
	}
	node.Status = StatusRunning
	node.SpanID = msg.SpanID
	m.SpanMap[msg.SpanID] = node

	if m.FollowMode {
		for i, n := range m.Jobs {
			if n == node {
				m.SelectedIdx = i
				break
			}
		}
		node.Term.Follow()
		m.ensureVisible()
	}
}

func (m *Model) handleComplete(msg telemetry.MsgTaskComplete) {
	node, ok := m.SpanMap[msg.SpanID]
	if !ok {
		return
	}

	if msg.SpanID != node.SpanID {
		if msg.Err != nil {
			node.Term.AddLine(style.Cross + " " + node.CurrentStep + ": " + msg.Err.Error())
		}
		return
	}

	node.CurrentStep = ""
	if msg.Err != nil {
		node.Status = StatusError
	} else {
		node.Status = StatusDone
	}
}

// sizeTerm fits a job terminal below the log pane header.
func (m *Model) sizeTerm(term *Vterm) {
	if m.LogWidth > 0 && m.LogHeight > 0 {
		term.SetWidth(m.LogWidth)
		term.SetHeight(m.LogHeight - 1)
	}
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

func (m *Model) selected() *JobNode {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Jobs) {
		return m.Jobs[m.SelectedIdx]
	}
	return nil
}
