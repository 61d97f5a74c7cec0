package live

import "stepgrade/internal/batch"

// EventKind identifies the type of live UI event.
type EventKind int

const (
	// EventRunStart signals the start of a run.
	EventRunStart EventKind = iota
	// EventItem delivers an item status update.
	EventItem
	// EventRunEnd signals run completion.
	EventRunEnd
)

// Event carries a UI update payload.
type Event struct {
	Kind    EventKind
	RunID   string
	Command string
	Total   int
	Item    batch.ItemEvent
	Summary batch.Summary
}
