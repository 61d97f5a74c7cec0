package scoring

import (
	"context"
	"strings"
	"time"

	"stepgrade/internal/oracle"
	"stepgrade/internal/parse"
	"stepgrade/internal/problem"
	"stepgrade/internal/verbose"
)

// GraderConfig configures a Grader.
type GraderConfig struct {
	Oracle oracle.Oracle
	Logger *verbose.Logger
	// RetryDelay is the pause after a failed oracle call before grading continues.
	RetryDelay time.Duration
	// OnStep observes every graded step; nil disables it.
	OnStep func(problemID, subQuestionID string, step StepResult)
}

// Grader scores whole problems: the answer shortcut per sub-question, then
// step grading over the sub-question's rubric window.
type Grader struct {
	oracle     oracle.Oracle
	scorer     *StepScorer
	logger     *verbose.Logger
	retryDelay time.Duration
	onStep     func(problemID, subQuestionID string, step StepResult)
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewGrader builds a grader.
func NewGrader(cfg GraderConfig) *Grader {
	return &Grader{
		oracle:     cfg.Oracle,
		scorer:     NewStepScorer(cfg.Oracle, cfg.Logger),
		logger:     cfg.Logger,
		retryDelay: cfg.RetryDelay,
		onStep:     cfg.OnStep,
		sleep:      oracle.Sleep,
	}
}

// Grade scores every sub-question of a problem in answer order. It returns
// ctx.Err() when cancelled; the partial result must not be persisted.
func (g *Grader) Grade(ctx context.Context, problemID string, spec problem.Spec, resp parse.Response) (ProblemResult, error) {
	ids := spec.SubQuestionIDs()
	result := ProblemResult{SubQuestions: make([]SubQuestionResult, 0, len(ids))}
	for index, id := range ids {
		parsed, ok := resp.Get(id)
		if !ok {
			parsed = parse.SubQuestion{ID: id, Steps: []parse.Step{}}
		}
		sq := g.ScoreSubQuestion(ctx, problemID, spec, index, parsed)
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.SubQuestions = append(result.SubQuestions, sq)
	}
	return result, nil
}

// ScoreSubQuestion scores the sub-question at a zero-based answer index.
func (g *Grader) ScoreSubQuestion(ctx context.Context, problemID string, spec problem.Spec, index int, parsed parse.SubQuestion) SubQuestionResult {
	id := problem.SubQuestionID(index + 1)
	qc := oracle.Context{Background: spec.Background(), Question: spec.Question(id)}
	result := SubQuestionResult{ID: id, Steps: StepResults{}}

	if strings.TrimSpace(parsed.FinalAnswer) != "" {
		verdict := g.oracle.JudgeEquivalent(ctx, oracle.JudgeAnswer, parsed.FinalAnswer, spec.ExpectedAnswer(index), qc)
		switch {
		case !verdict.OK():
			if ctx.Err() != nil {
				return result
			}
			g.logger.Errorf("%s %s: answer check failed: %v", problemID, id, verdict.AsError(oracle.OpJudgeAnswer))
			g.pause(ctx)
		case verdict.Value:
			g.logger.Logf(verbose.StyleMetrics, "%s %s: final answer matches", problemID, id)
			result.Score = 1
			return result
		}
	}

	window, ok := spec.WindowFor(id)
	if !ok {
		return result
	}
	blob := parsed.Blob()
	total, graded := 0.0, 0
	for _, stepID := range window.StepIDs() {
		rubric, ok := spec.Rubric(stepID)
		if !ok {
			continue
		}
		// Without parsed steps there is nothing to judge; every rubric step scores 0.
		eval := newEvaluation()
		if len(parsed.Steps) > 0 {
			var err error
			eval, err = g.scorer.Score(ctx, StepInput{
				Text:      blob,
				Rubric:    rubric,
				Context:   qc,
				Reference: spec.Reference(id, stepID),
			})
			if ctx.Err() != nil {
				return result
			}
			if err != nil {
				g.logger.Errorf("%s %s %s: %v", problemID, id, stepID, err)
				g.pause(ctx)
			}
		}
		step := StepResult{ID: stepID, Score: eval.Score(), Analysis: eval}
		result.Steps = append(result.Steps, step)
		total += step.Score
		graded++
		g.logger.Logf(verbose.StyleDefault, "%s %s %s: score %.1f", problemID, id, stepID, step.Score)
		if g.onStep != nil {
			g.onStep(problemID, id, step)
		}
	}
	if graded > 0 {
		result.Score = total / float64(graded)
	}
	return result
}

func (g *Grader) pause(ctx context.Context) {
	_ = g.sleep(ctx, g.retryDelay)
}
