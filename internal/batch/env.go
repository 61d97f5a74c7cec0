package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"stepgrade/internal/stats"
	"stepgrade/internal/store"
	"stepgrade/internal/verbose"
)

// Command names recorded in summaries, metrics and the store.
const (
	CommandScore   = "score"
	CommandAnswers = "answers"
	CommandFormat  = "format"
	CommandWatch   = "watch"
)

// Sink persists run results, e.g. into the results database.
type Sink interface {
	RecordRun(ctx context.Context, run store.Run) error
	RecordProblemScore(ctx context.Context, score store.ProblemScore) error
	RecordAnswerCheck(ctx context.Context, check store.AnswerCheck) error
}

// Recorder receives item and sub-question outcomes, e.g. for metrics.
type Recorder interface {
	ObserveItem(command, status string)
	ObserveSubQuestion(command, difficulty string, score float64, correct bool)
}

// Env holds everything the drivers share.
type Env struct {
	Layout    Layout
	Artifacts Artifacts
	// OutputDir receives one directory per run holding summary.json.
	OutputDir string
	Logger    *verbose.Logger
	Observer  Observer
	Sink      Sink
	Metrics   Recorder
	NewRunID  func() (string, error)
	Now       func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) observer() Observer {
	if e.Observer == nil {
		return NoopObserver{}
	}
	return e.Observer
}

// runState collects item results of one run. Safe for concurrent use.
type runState struct {
	env       *Env
	runID     string
	command   string
	collector *stats.Collector

	mu      sync.Mutex
	summary Summary
}

// begin starts a run: skipped items are recorded at once, pending ones queued.
func (e *Env) begin(ctx context.Context, command string, pending, skipped []Item) (*runState, error) {
	generate := e.NewRunID
	if generate == nil {
		generate = NewRunID
	}
	runID, err := generate()
	if err != nil {
		return nil, err
	}
	run := &runState{
		env:       e,
		runID:     runID,
		command:   command,
		collector: stats.New(),
		summary: Summary{
			RunID:     runID,
			Command:   command,
			Root:      e.Layout.Root,
			StartedAt: e.now().UTC(),
			Items:     []ItemResult{},
		},
	}
	e.observer().OnRunStart(runID, command, len(pending)+len(skipped))
	e.Logger.Logf(verbose.StyleTask, "%s run %s: %d pending, %d skipped", command, runID, len(pending), len(skipped))
	if e.Sink != nil {
		if err := e.Sink.RecordRun(ctx, store.Run{
			ID:        runID,
			Command:   command,
			Root:      e.Layout.Root,
			Model:     e.Artifacts.ModelName,
			StartedAt: run.summary.StartedAt,
		}); err != nil {
			e.Logger.Errorf("record run %s: %v", runID, err)
		}
	}
	for i, item := range pending {
		run.emit(ItemEvent{Index: i, ProblemID: item.ProblemID, Type: ItemQueued})
	}
	for i, item := range skipped {
		run.finish(len(pending)+i, ItemResult{ProblemID: item.ProblemID, Status: StatusSkipped})
	}
	return run, nil
}

func (r *runState) emit(event ItemEvent) {
	if event.EmittedAt.IsZero() {
		event.EmittedAt = r.env.now()
	}
	r.env.observer().OnItemEvent(event)
}

// finish records an item result and reports it.
func (r *runState) finish(index int, result ItemResult) {
	r.mu.Lock()
	r.summary.Items = append(r.summary.Items, result)
	r.mu.Unlock()
	if r.env.Metrics != nil {
		r.env.Metrics.ObserveItem(r.command, string(result.Status))
	}
	switch result.Status {
	case StatusFailed, StatusInvalid:
		r.env.Logger.Errorf("%s %s: %s", result.ProblemID, result.Status, result.Error)
	case StatusDone:
		r.env.Logger.Logf(verbose.StyleMetrics, "%s done in %dms", result.ProblemID, result.DurationMs)
	}
	r.emit(ItemEvent{
		Index:     index,
		ProblemID: result.ProblemID,
		Type:      terminalEvent(result.Status),
		Score:     result.Score,
		Error:     result.Error,
		Elapsed:   time.Duration(result.DurationMs) * time.Millisecond,
	})
}

// end writes the summary and reports the end of the run.
func (r *runState) end() (Summary, error) {
	r.mu.Lock()
	summary := r.summary
	r.mu.Unlock()
	summary.FinishedAt = r.env.now().UTC()
	summary.Stats = r.collector.Buckets()
	summary = summarize(summary)
	var err error
	if r.env.OutputDir != "" {
		var path string
		path, err = WriteSummary(r.env.OutputDir, summary)
		if err == nil {
			r.env.Logger.Logf(verbose.StyleDefault, "summary written to %s", path)
		}
	}
	r.env.observer().OnRunEnd(summary)
	return summary, err
}

// failure builds a failed or invalid item result.
func failure(result ItemResult, status Status, err error) ItemResult {
	result.Status = status
	result.Error = err.Error()
	return result
}

// invalidError marks a problem record that could not be loaded.
type invalidError struct {
	err error
}

func (e *invalidError) Error() string { return e.err.Error() }
func (e *invalidError) Unwrap() error { return e.err }

// statusOf maps a job error to an item status.
func statusOf(err error) Status {
	var invalid *invalidError
	switch {
	case err == nil:
		return StatusDone
	case errors.As(err, &invalid):
		return StatusInvalid
	default:
		return StatusFailed
	}
}

// cancelled reports whether err comes from the run being interrupted.
func cancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
