package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/ui/style"
	"go.trai.ch/zerr"
)

var (
	nameStyle = lipgloss.NewStyle().Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(style.Slate)
)

// printSummary writes one line per job followed by the totals.
func printSummary(w io.Writer, report *domain.RunReport) {
	width := 0
	for _, j := range report.Jobs {
		width = max(width, lipgloss.Width(j.Name))
	}

	_, _ = fmt.Fprintln(w)
	for _, j := range report.Jobs {
		icon, color := style.StatusIcon(string(j.Status))
		line := fmt.Sprintf("%s %s  %-9s %s",
			lipgloss.NewStyle().Foreground(color).Render(icon),
			nameStyle.Render(j.Name+strings.Repeat(" ", width-lipgloss.Width(j.Name))),
			j.Status,
			dimStyle.Render(formatDuration(j.Duration)),
		)
		_, _ = fmt.Fprintln(w, line)
		if j.LogPath != "" && j.Status != domain.StatusPassed {
			_, _ = fmt.Fprintln(w, dimStyle.Render("    log: "+j.LogPath))
		}
	}

	passed, failed := report.Counts()
	_, _ = fmt.Fprintf(w, "\n%d passed, %d failed in %s\n", passed, failed, formatDuration(report.Duration))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// writeReport writes the JSON report to path.
func writeReport(path string, report *domain.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrReportWriteFailed.Error())
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrReportWriteFailed.Error()), "path", path)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrReportWriteFailed.Error()), "path", path)
	}
	return nil
}
