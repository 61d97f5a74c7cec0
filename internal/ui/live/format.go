package live

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"stepgrade/internal/batch"
)

// formatProblemID returns the display id for an item row.
func formatProblemID(row ItemRow) string {
	if row.ProblemID != "" {
		return row.ProblemID
	}
	return "#" + strconv.Itoa(row.Index+1)
}

// formatStatus renders a status string for a row.
func formatStatus(row ItemRow, noColor bool) string {
	text := string(row.Status)
	if row.Status == batch.ItemRunning && row.Step != "" {
		text += " " + row.Step
	}
	return stylizeStatus(text, row.Status, noColor)
}

// formatScore renders a score with two decimals, or "" when absent.
func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', 2, 64)
}

// formatRowDuration returns elapsed or total time for a row.
func formatRowDuration(row ItemRow, now time.Time) string {
	if !row.FinishedAt.IsZero() && !row.StartedAt.IsZero() {
		return formatDuration(row.FinishedAt.Sub(row.StartedAt))
	}
	if !row.StartedAt.IsZero() {
		return formatDuration(now.Sub(row.StartedAt))
	}
	return ""
}

// formatCount renders a positive counter, or "" for zero.
func formatCount(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// stylizeStatus applies status coloring when enabled.
func stylizeStatus(text string, status batch.ItemEventType, noColor bool) string {
	if noColor {
		return text
	}
	return statusStyle(status).Render(text)
}

// statusStyle selects a style for a given status.
func statusStyle(status batch.ItemEventType) lipgloss.Style {
	color := lipgloss.Color("244")
	switch status {
	case batch.ItemDone:
		color = lipgloss.Color("42")
	case batch.ItemFailed, batch.ItemInvalid:
		color = lipgloss.Color("196")
	case batch.ItemRunning:
		color = lipgloss.Color("33")
	case batch.ItemQueued, batch.ItemSkipped:
		color = lipgloss.Color("246")
	}
	return lipgloss.NewStyle().Foreground(color)
}
