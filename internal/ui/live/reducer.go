package live

import (
	"fmt"
	"time"

	"stepgrade/internal/batch"
)

// Reduce applies an item event to the UI state.
func Reduce(state State, event batch.ItemEvent) State {
	state = ensureRow(state, event)
	state = applyItemEvent(state, event)
	state.Counts = recount(state.Rows)
	if message := formatLastEvent(event); message != "" {
		state.LastEvent = message
	}
	return state
}

// ensureRow grows the state rows to include the target index.
func ensureRow(state State, event batch.ItemEvent) State {
	if event.Index < 0 || event.Index < len(state.Rows) {
		return state
	}
	rows := make([]ItemRow, event.Index+1)
	copy(rows, state.Rows)
	for i := len(state.Rows); i < len(rows); i++ {
		rows[i] = ItemRow{Index: i, Status: batch.ItemQueued}
	}
	state.Rows = rows
	return state
}

// applyItemEvent updates a row with the given event.
func applyItemEvent(state State, event batch.ItemEvent) State {
	if event.Index < 0 || event.Index >= len(state.Rows) {
		return state
	}
	row := state.Rows[event.Index]
	if event.ProblemID != "" {
		row.ProblemID = event.ProblemID
	}
	switch event.Type {
	case batch.ItemStep:
		row.Steps++
		row.Step = event.Detail
	case batch.ItemRetrying:
		row.Retries++
	default:
		row.Status = event.Type
		if event.Type == batch.ItemRunning {
			row.Worker = event.Worker
			if row.StartedAt.IsZero() {
				row.StartedAt = event.EmittedAt
			}
		}
		if isTerminalStatus(event.Type) {
			row.FinishedAt = event.EmittedAt
			row.Score = event.Score
			row.Error = event.Error
		}
	}
	state.Rows[event.Index] = row
	return state
}

// isTerminalStatus reports whether a status is final.
func isTerminalStatus(status batch.ItemEventType) bool {
	switch status {
	case batch.ItemDone, batch.ItemSkipped, batch.ItemFailed, batch.ItemInvalid:
		return true
	default:
		return false
	}
}

// recount recomputes status counts for the current rows.
func recount(rows []ItemRow) StatusCounts {
	var counts StatusCounts
	for _, row := range rows {
		switch row.Status {
		case batch.ItemQueued:
			counts.Queued++
		case batch.ItemRunning:
			counts.Running++
		case batch.ItemDone:
			counts.Done++
		case batch.ItemSkipped:
			counts.Skipped++
		case batch.ItemFailed:
			counts.Failed++
		case batch.ItemInvalid:
			counts.Invalid++
		}
	}
	return counts
}

// formatLastEvent creates a short footer message for the event.
func formatLastEvent(event batch.ItemEvent) string {
	switch event.Type {
	case batch.ItemRetrying:
		return fmt.Sprintf("%s retrying: %s", event.ProblemID, event.Detail)
	case batch.ItemFailed:
		return fmt.Sprintf("%s failed: %s", event.ProblemID, event.Error)
	case batch.ItemInvalid:
		return fmt.Sprintf("%s invalid: %s", event.ProblemID, event.Error)
	case batch.ItemDone:
		if event.Score != nil {
			return fmt.Sprintf("%s done (score %s)", event.ProblemID, formatScore(event.Score))
		}
		return fmt.Sprintf("%s done", event.ProblemID)
	}
	return ""
}

// formatDuration renders a rounded duration for display.
func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "0s"
	}
	return duration.Round(100 * time.Millisecond).String()
}
