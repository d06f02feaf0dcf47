package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/matrix/internal/ui/style"
)

// View renders the UI.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.jobList(),
		m.logPane(),
	)
}

func (m *Model) jobList() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("JOBS") + "\n\n")

	end := min(m.ListOffset+m.ListHeight, len(m.Jobs))
	start := min(m.ListOffset, end)

	for i := start; i < end; i++ {
		s.WriteString(m.renderJobRow(i, m.Jobs[i]) + "\n")
	}

	return listStyle.Render(s.String())
}

func (m *Model) renderJobRow(index int, node *JobNode) string {
	rowStyle := jobStyle(node)

	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if node.Status != StatusDone && node.Status != StatusError {
			rowStyle = selectedStyle
		}
	}

	row := cursor + rowStyle.Render(fmt.Sprintf("%s %s", jobIcon(node), node.Name))
	if node.CurrentStep != "" {
		row += " " + stepStyle.Render(node.CurrentStep)
	}
	return row
}

func jobIcon(node *JobNode) string {
	switch node.Status {
	case StatusRunning:
		return style.Dot
	case StatusDone:
		return style.Check
	case StatusError:
		return style.Cross
	default:
		return style.Circle
	}
}

func jobStyle(node *JobNode) lipgloss.Style {
	switch node.Status {
	case StatusRunning:
		return jobRunningStyle
	case StatusDone:
		return jobDoneStyle
	case StatusError:
		return jobErrorStyle
	default:
		return jobPendingStyle
	}
}

func (m *Model) logPane() string {
	node := m.selected()
	if node == nil {
		return logStyle.Render(titleStyle.Render("LOGS (Waiting...)"))
	}

	mode := " (Manual)"
	if m.FollowMode {
		mode = " (Following)"
	}
	header := titleStyle.Render("LOGS: " + node.Name + mode)

	return logStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			node.Term.View(),
		),
	)
}
