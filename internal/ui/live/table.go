package live

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// defaultColumns returns the column layout for an unknown terminal width.
func defaultColumns() []table.Column {
	return columnsForWidth(100)
}

// columnsForWidth sizes the problem and status columns to the terminal.
func columnsForWidth(width int) []table.Column {
	const fixed = 8 + 10 + 8 + 8
	flexible := max(width-fixed-10, 30)
	problem := flexible * 2 / 5
	return []table.Column{
		{Title: "Problem", Width: problem},
		{Title: "Status", Width: flexible - problem},
		{Title: "Steps", Width: 8},
		{Title: "Elapsed", Width: 10},
		{Title: "Score", Width: 8},
		{Title: "Retries", Width: 8},
	}
}

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	styles := table.DefaultStyles()
	if noColor {
		return styles
	}
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

// rowsForState converts UI state into table rows.
func rowsForState(state State, now time.Time, noColor bool) []table.Row {
	rows := make([]table.Row, 0, len(state.Rows))
	for _, row := range state.Rows {
		rows = append(rows, table.Row{
			formatProblemID(row),
			formatStatus(row, noColor),
			formatCount(row.Steps),
			formatRowDuration(row, now),
			formatScore(row.Score),
			formatCount(row.Retries),
		})
	}
	return rows
}
