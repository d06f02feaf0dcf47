// Package style provides the colors and icons shared by the logger, the
// linear renderer and the TUI.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	White  = lipgloss.Color("#FFFFFF")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Skip    = "-"
	Dot     = "●"
	Circle  = "○"
)

// StatusIcon returns the icon and color used for a job or step status.
func StatusIcon(status string) (string, lipgloss.Color) {
	switch status {
	case "passed":
		return Check, Green
	case "failed":
		return Cross, Red
	case "cancelled":
		return Warning, Yellow
	case "skipped":
		return Skip, Slate
	default:
		return Circle, Slate
	}
}
