package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"stepgrade/internal/oracle"
	"stepgrade/internal/problem"
	"stepgrade/pkg/workpool"
)

// FormatOptions configures response reformatting.
type FormatOptions struct {
	// Reformatters holds one oracle per worker; the pool has len(Reformatters) workers.
	Reformatters []oracle.Reformatter
	// Seed shuffles the work items.
	Seed int64
}

// Format rewrites every raw response that has no formatted artifact yet into
// the labeled step grammar, in parallel with one worker per reformatter.
func (e *Env) Format(ctx context.Context, opts FormatOptions) (Summary, error) {
	if len(opts.Reformatters) == 0 {
		return Summary{}, fmt.Errorf("format: %w", oracle.ErrNoCredentials)
	}
	items, err := e.Layout.Items(e.Artifacts.Raw, e.Artifacts.Formatted)
	if err != nil {
		return Summary{}, err
	}
	pending, skipped := Plan(items)
	run, err := e.begin(ctx, CommandFormat, pending, skipped)
	if err != nil {
		return Summary{}, err
	}

	jobs := make([]workpool.Job, len(pending))
	tracker := &formatTracker{run: run, ctx: ctx, index: map[string]int{}}
	for i, item := range pending {
		tracker.index[item.ProblemID] = i
		jobs[i] = workpool.Job{ID: item.ProblemID, Run: func(ctx context.Context, worker int) error {
			return e.formatItem(ctx, opts.Reformatters[worker], item)
		}}
	}
	workpool.Shuffle(jobs, opts.Seed)
	workpool.Run(ctx, len(opts.Reformatters), jobs, tracker)

	summary, err := run.end()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return summary, ctxErr
	}
	return summary, err
}

func (e *Env) formatItem(ctx context.Context, reformatter oracle.Reformatter, item Item) error {
	spec, err := problem.Load(item.ProblemPath, problem.ModeAnswers)
	if err != nil {
		return &invalidError{err: err}
	}
	raw, err := os.ReadFile(item.Input)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	result := reformatter.Reformat(ctx, string(raw), spec.Structure())
	if !result.OK() {
		return result.AsError(oracle.OpReformat)
	}
	return writeFileAtomic(item.Output, []byte(result.Value))
}

// formatTracker turns pool events into item events and results.
type formatTracker struct {
	run *runState
	ctx context.Context
	// index is filled before the pool starts and only read afterwards.
	index map[string]int
}

func (t *formatTracker) OnJobStart(job workpool.Job, worker int) {
	t.run.emit(ItemEvent{Index: t.index[job.ID], ProblemID: job.ID, Type: ItemRunning, Worker: worker})
}

func (t *formatTracker) OnJobDone(job workpool.Job, _ int, err error, elapsed time.Duration) {
	if cancelled(t.ctx, err) {
		return
	}
	result := ItemResult{ProblemID: job.ID, Status: statusOf(err), DurationMs: elapsed.Milliseconds()}
	if err != nil {
		result.Error = err.Error()
	}
	t.run.finish(t.index[job.ID], result)
}
