package live

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the run header line.
func renderHeader(state State, now time.Time, noColor bool) string {
	line := "Run " + state.RunID
	if state.Command != "" {
		line += " | " + state.Command
	}
	if !state.StartedAt.IsZero() {
		line += " | Elapsed: " + formatDuration(now.Sub(state.StartedAt))
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderSummary renders the status counts line.
func renderSummary(state State, noColor bool) string {
	counts := state.Counts
	total := max(state.Total, len(state.Rows))
	line := "Progress: " + strconv.Itoa(counts.Finished()) + "/" + strconv.Itoa(total) +
		" Queued: " + strconv.Itoa(counts.Queued) +
		" Running: " + strconv.Itoa(counts.Running) +
		" Done: " + strconv.Itoa(counts.Done) +
		" Skipped: " + strconv.Itoa(counts.Skipped) +
		" Failed: " + strconv.Itoa(counts.Failed) +
		" Invalid: " + strconv.Itoa(counts.Invalid)
	if state.MeanScore != nil {
		line += " Mean: " + formatScore(state.MeanScore)
	}
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderFooter renders the last event line.
func renderFooter(state State, noColor bool) string {
	if state.LastEvent == "" {
		return ""
	}
	return stylize("Last event: "+state.LastEvent, noColor, lipgloss.Color("244"))
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
