package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"stepgrade/internal/answers"
	"stepgrade/internal/problem"
	"stepgrade/internal/store"
)

// AnswersOptions configures answer-only evaluation.
type AnswersOptions struct {
	Oracle     answers.Oracle
	Attempts   int
	RetryDelay time.Duration
}

// Answers checks the final answers of every raw response that has no answer
// evaluation yet, one problem at a time.
func (e *Env) Answers(ctx context.Context, opts AnswersOptions) (Summary, error) {
	items, err := e.Layout.Items(e.Artifacts.Raw, e.Artifacts.AnswerEval)
	if err != nil {
		return Summary{}, err
	}
	pending, skipped := Plan(items)
	run, err := e.begin(ctx, CommandAnswers, pending, skipped)
	if err != nil {
		return Summary{}, err
	}
	checker := answers.NewChecker(answers.Config{
		Oracle:     opts.Oracle,
		Logger:     e.Logger,
		ModelName:  e.Artifacts.ModelName,
		Attempts:   opts.Attempts,
		RetryDelay: opts.RetryDelay,
	})
	for i, item := range pending {
		if ctx.Err() != nil {
			break
		}
		run.emit(ItemEvent{Index: i, ProblemID: item.ProblemID, Type: ItemRunning})
		start := e.now()
		result, err := e.checkItem(ctx, run, checker, item)
		if cancelled(ctx, err) {
			break
		}
		result.DurationMs = e.now().Sub(start).Milliseconds()
		run.finish(i, result)
	}
	summary, err := run.end()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return summary, ctxErr
	}
	return summary, err
}

func (e *Env) checkItem(ctx context.Context, run *runState, checker *answers.Checker, item Item) (ItemResult, error) {
	result := ItemResult{ProblemID: item.ProblemID}
	spec, err := problem.Load(item.ProblemPath, problem.ModeAnswers)
	if err != nil {
		return failure(result, StatusInvalid, err), err
	}
	raw, err := os.ReadFile(item.Input)
	if err != nil {
		return failure(result, StatusFailed, fmt.Errorf("read response: %w", err)), err
	}
	eval, err := checker.Check(ctx, item.ProblemID, spec, string(raw))
	if err != nil {
		return failure(result, StatusFailed, err), err
	}
	if err := writeJSON(item.Output, eval); err != nil {
		return failure(result, StatusFailed, err), err
	}

	eval.Tally(run.collector)
	correct := 0
	for _, record := range eval.SubQuestions {
		score := 0.0
		if record.Correct {
			score = 1
			correct++
		}
		if e.Metrics != nil {
			e.Metrics.ObserveSubQuestion(CommandAnswers, record.Difficulty, score, record.Correct)
		}
	}
	if e.Sink != nil {
		if err := e.Sink.RecordAnswerCheck(ctx, store.AnswerCheck{
			RunID:      run.runID,
			ProblemID:  item.ProblemID,
			Evaluation: eval,
		}); err != nil {
			e.Logger.Errorf("store %s: %v", item.ProblemID, err)
		}
	}
	result.Status = StatusDone
	if len(eval.SubQuestions) > 0 {
		score := float64(correct) / float64(len(eval.SubQuestions))
		result.Score = &score
	}
	return result, nil
}
