package batch

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ItemEventType identifies an item status update for observers.
type ItemEventType string

const (
	// ItemQueued marks an item planned for this run.
	ItemQueued ItemEventType = "queued"
	// ItemRunning marks an item being processed.
	ItemRunning ItemEventType = "running"
	// ItemStep marks one scored step of a running item.
	ItemStep ItemEventType = "step"
	// ItemRetrying marks an oracle retry on another credential.
	ItemRetrying ItemEventType = "retrying"
	// ItemDone marks a written output.
	ItemDone ItemEventType = "done"
	// ItemSkipped marks an item whose output already existed.
	ItemSkipped ItemEventType = "skipped"
	// ItemFailed marks an item abandoned after an error.
	ItemFailed ItemEventType = "failed"
	// ItemInvalid marks a problem record that failed validation.
	ItemInvalid ItemEventType = "invalid"
)

// ItemEvent carries a single status update for an item.
type ItemEvent struct {
	Index     int
	ProblemID string
	Type      ItemEventType
	Worker    int
	Detail    string
	Score     *float64
	Error     string
	Elapsed   time.Duration
	EmittedAt time.Time
}

// Observer receives run lifecycle events for UI or logging.
type Observer interface {
	// OnRunStart signals the start of a run over total items.
	OnRunStart(runID, command string, total int)
	// OnItemEvent delivers an item status update.
	OnItemEvent(event ItemEvent)
	// OnRunEnd signals run completion.
	OnRunEnd(summary Summary)
}

// NoopObserver ignores every event.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(string, string, int) {}
func (NoopObserver) OnItemEvent(ItemEvent)          {}
func (NoopObserver) OnRunEnd(Summary)               {}

// terminalEvent maps an item status to its event type.
func terminalEvent(status Status) ItemEventType {
	switch status {
	case StatusDone:
		return ItemDone
	case StatusSkipped:
		return ItemSkipped
	case StatusInvalid:
		return ItemInvalid
	default:
		return ItemFailed
	}
}

// ProgressPrinter writes one plain line per finished item.
type ProgressPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	total int
	seen  int
}

// NewProgressPrinter writes progress lines to w.
func NewProgressPrinter(w io.Writer) *ProgressPrinter {
	return &ProgressPrinter{w: w}
}

// OnRunStart prints the run header.
func (p *ProgressPrinter) OnRunStart(runID, command string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.seen = 0
	fmt.Fprintf(p.w, "%s run %s: %d items\n", command, runID, total)
}

// OnItemEvent prints finished items.
func (p *ProgressPrinter) OnItemEvent(event ItemEvent) {
	switch event.Type {
	case ItemDone, ItemSkipped, ItemFailed, ItemInvalid:
	default:
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen++
	line := fmt.Sprintf("[%d/%d] %s %s", p.seen, p.total, event.ProblemID, event.Type)
	if event.Score != nil {
		line += fmt.Sprintf(" score=%.2f", *event.Score)
	}
	if event.Error != "" {
		line += ": " + event.Error
	}
	fmt.Fprintln(p.w, line)
}

// OnRunEnd prints the counts.
func (p *ProgressPrinter) OnRunEnd(summary Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := summary.Counts
	fmt.Fprintf(p.w, "done=%d skipped=%d failed=%d invalid=%d\n", c.Done, c.Skipped, c.Failed, c.Invalid)
}
