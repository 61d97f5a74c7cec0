package live

import (
	"time"

	"stepgrade/internal/batch"
)

// ItemRow holds UI state for a single problem.
type ItemRow struct {
	Index      int
	ProblemID  string
	Status     batch.ItemEventType
	Worker     int
	Step       string
	Steps      int
	Score      *float64
	Retries    int
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
}

// StatusCounts aggregates counts by status bucket.
type StatusCounts struct {
	Queued  int
	Running int
	Done    int
	Skipped int
	Failed  int
	Invalid int
}

// Finished returns the number of rows in a terminal state.
func (c StatusCounts) Finished() int {
	return c.Done + c.Skipped + c.Failed + c.Invalid
}

// State captures the live UI state for a run.
type State struct {
	RunID     string
	Command   string
	Total     int
	StartedAt time.Time
	LastEvent string
	Rows      []ItemRow
	Counts    StatusCounts
	MeanScore *float64
	Ended     bool
}
