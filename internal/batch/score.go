package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"stepgrade/internal/oracle"
	"stepgrade/internal/parse"
	"stepgrade/internal/problem"
	"stepgrade/internal/scoring"
	"stepgrade/internal/store"
)

// ScoreOptions configures step evaluation.
type ScoreOptions struct {
	Oracle     oracle.Oracle
	RetryDelay time.Duration
	// OnStep additionally observes every graded step.
	OnStep func(problemID, subQuestionID string, step scoring.StepResult)
}

// scorer grades items for one run.
type scorer struct {
	env    *Env
	run    *runState
	grader *scoring.Grader
	index  map[string]int
}

func (e *Env) newScorer(run *runState, opts ScoreOptions) *scorer {
	s := &scorer{env: e, run: run, index: map[string]int{}}
	s.grader = scoring.NewGrader(scoring.GraderConfig{
		Oracle:     opts.Oracle,
		Logger:     e.Logger,
		RetryDelay: opts.RetryDelay,
		OnStep: func(problemID, subQuestionID string, step scoring.StepResult) {
			score := step.Score
			run.emit(ItemEvent{
				Index:     s.index[problemID],
				ProblemID: problemID,
				Type:      ItemStep,
				Detail:    subQuestionID + " " + step.ID,
				Score:     &score,
			})
			if opts.OnStep != nil {
				opts.OnStep(problemID, subQuestionID, step)
			}
		},
	})
	return s
}

// Score grades every formatted response that has no step evaluation yet,
// one problem at a time. A cancelled run writes nothing for the item in flight.
func (e *Env) Score(ctx context.Context, opts ScoreOptions) (Summary, error) {
	items, err := e.Layout.Items(e.Artifacts.Formatted, e.Artifacts.StepEval)
	if err != nil {
		return Summary{}, err
	}
	pending, skipped := Plan(items)
	run, err := e.begin(ctx, CommandScore, pending, skipped)
	if err != nil {
		return Summary{}, err
	}
	s := e.newScorer(run, opts)
	for i, item := range pending {
		if ctx.Err() != nil {
			break
		}
		s.score(ctx, i, item)
	}
	summary, err := run.end()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return summary, ctxErr
	}
	return summary, err
}

// score processes one item and records its result unless the run was cancelled.
func (s *scorer) score(ctx context.Context, index int, item Item) {
	s.index[item.ProblemID] = index
	s.run.emit(ItemEvent{Index: index, ProblemID: item.ProblemID, Type: ItemRunning})
	start := s.env.now()
	result, err := s.gradeItem(ctx, item)
	if cancelled(ctx, err) {
		return
	}
	result.DurationMs = s.env.now().Sub(start).Milliseconds()
	s.run.finish(index, result)
}

func (s *scorer) gradeItem(ctx context.Context, item Item) (ItemResult, error) {
	result := ItemResult{ProblemID: item.ProblemID}
	spec, err := problem.Load(item.ProblemPath, problem.ModeSteps)
	if err != nil {
		return failure(result, StatusInvalid, err), err
	}
	raw, err := os.ReadFile(item.Input)
	if err != nil {
		return failure(result, StatusFailed, fmt.Errorf("read response: %w", err)), err
	}
	resp := parse.Parse(string(raw), spec.SubQuestionIDs())
	graded, err := s.grader.Grade(ctx, item.ProblemID, spec, resp)
	if err != nil {
		return failure(result, StatusFailed, err), err
	}
	if err := writeJSON(item.Output, graded); err != nil {
		return failure(result, StatusFailed, err), err
	}

	for _, sq := range graded.SubQuestions {
		s.run.collector.Record(spec.Difficulty, sq.Shortcut())
		if s.env.Metrics != nil {
			s.env.Metrics.ObserveSubQuestion(CommandScore, spec.Difficulty, sq.Score, sq.Shortcut())
		}
	}
	if s.env.Sink != nil {
		if err := s.env.Sink.RecordProblemScore(ctx, store.ProblemScore{
			RunID:      s.run.runID,
			ProblemID:  item.ProblemID,
			Model:      s.env.Artifacts.ModelName,
			Difficulty: spec.Difficulty,
			Result:     graded,
		}); err != nil {
			s.env.Logger.Errorf("store %s: %v", item.ProblemID, err)
		}
	}
	score := graded.MeanScore()
	result.Status = StatusDone
	result.Score = &score
	return result, nil
}
