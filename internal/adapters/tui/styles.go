package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/matrix/internal/ui/style"
)

var (
	jobPendingStyle = lipgloss.NewStyle().
			Foreground(style.Slate)

	jobRunningStyle = lipgloss.NewStyle().
			Foreground(style.Iris).
			Bold(true)

	jobDoneStyle = lipgloss.NewStyle().
			Foreground(style.Green)

	jobErrorStyle = lipgloss.NewStyle().
			Foreground(style.Red)

	selectedStyle = lipgloss.NewStyle().
			Foreground(style.Iris).
			Bold(true)

	stepStyle = lipgloss.NewStyle().
			Foreground(style.Slate).
			Faint(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Iris).
			Foreground(style.White)

	listStyle = lipgloss.NewStyle().
			MarginRight(2)

	logStyle = lipgloss.NewStyle().
			PaddingLeft(1)
)
