// Package answers checks only the final answers of a raw response: the answer
// of each sub-question is extracted by the oracle, then judged against the
// gold answer including units.
package answers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stepgrade/internal/oracle"
	"stepgrade/internal/orderedjson"
	"stepgrade/internal/parse"
	"stepgrade/internal/problem"
	"stepgrade/internal/stats"
	"stepgrade/internal/verbose"
)

// DefaultAttempts bounds answer extraction retries.
const DefaultAttempts = 3

// Record is the verdict for one sub-question.
type Record struct {
	ID              string `json:"-"`
	Correct         bool   `json:"correct"`
	ActualAnswer    string `json:"actual_answer"`
	ExpectedAnswer  string `json:"expected_answer"`
	Context         string `json:"context"`
	QuestionContent string `json:"question_content"`
	Difficulty      string `json:"difficulty"`
}

// Evaluation is the answer record of one model on one problem. It encodes as
// {model: {sub_question_<n>: Record}}.
type Evaluation struct {
	Model        string
	SubQuestions []Record
}

// Tally adds every sub-question verdict to a collector.
func (e Evaluation) Tally(collector *stats.Collector) {
	for _, record := range e.SubQuestions {
		collector.Record(record.Difficulty, record.Correct)
	}
}

// MarshalJSON keeps sub-questions in answer order.
func (e Evaluation) MarshalJSON() ([]byte, error) {
	inner, err := orderedjson.Encode(len(e.SubQuestions), func(i int) (string, any) {
		return e.SubQuestions[i].ID, e.SubQuestions[i]
	})
	if err != nil {
		return nil, err
	}
	return orderedjson.Encode(1, func(int) (string, any) {
		return e.Model, json.RawMessage(inner)
	})
}

// UnmarshalJSON reads the first model entry of a record.
func (e *Evaluation) UnmarshalJSON(data []byte) error {
	var out Evaluation
	seen := false
	err := orderedjson.Decode(data, func(model string, raw json.RawMessage) error {
		if seen {
			return nil
		}
		seen = true
		out.Model = model
		return orderedjson.Decode(raw, func(id string, raw json.RawMessage) error {
			var record Record
			if err := json.Unmarshal(raw, &record); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			record.ID = id
			out.SubQuestions = append(out.SubQuestions, record)
			return nil
		})
	})
	if err != nil {
		return err
	}
	*e = out
	return nil
}

// Oracle is what the checker needs from the oracle.
type Oracle interface {
	oracle.AnswerExtractor
	JudgeEquivalent(ctx context.Context, kind oracle.JudgeKind, actual, expected string, qc oracle.Context) oracle.Result[bool]
}

// Config configures a Checker.
type Config struct {
	Oracle     Oracle
	Logger     *verbose.Logger
	ModelName  string
	Attempts   int
	RetryDelay time.Duration
}

// Checker produces answer records.
type Checker struct {
	oracle     Oracle
	logger     *verbose.Logger
	model      string
	attempts   int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewChecker builds a checker; Attempts below 1 uses DefaultAttempts.
func NewChecker(cfg Config) *Checker {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &Checker{
		oracle:     cfg.Oracle,
		logger:     cfg.Logger,
		model:      cfg.ModelName,
		attempts:   attempts,
		retryDelay: cfg.RetryDelay,
		sleep:      oracle.Sleep,
	}
}

// Extract pulls the final answer of the n-th sub-question out of raw.
// Transient failures are retried; an exhausted or permanent failure yields "".
func (c *Checker) Extract(ctx context.Context, raw, question string, n int) string {
	for attempt := 1; attempt <= c.attempts; attempt++ {
		result := c.oracle.ExtractAnswer(ctx, raw, question, n)
		if result.OK() {
			return parse.StripAnswerLabels(result.Value)
		}
		if ctx.Err() != nil {
			return ""
		}
		if result.Outcome == oracle.PermanentFailure || attempt == c.attempts {
			c.logger.Errorf("failed to extract answer after %d attempts: %v", attempt, result.AsError(oracle.OpExtractAnswer))
			return ""
		}
		c.logger.Logf(verbose.StyleWarn, "answer extraction attempt %d failed: %v", attempt, result.Err)
		if err := c.sleep(ctx, c.retryDelay); err != nil {
			return ""
		}
	}
	return ""
}

// Check extracts and judges every sub-question answer. A failed judgment
// fails the whole problem so nothing partial is persisted.
func (c *Checker) Check(ctx context.Context, problemID string, spec problem.Spec, raw string) (Evaluation, error) {
	eval := Evaluation{Model: c.model}
	background := spec.Background()
	for index, id := range spec.SubQuestionIDs() {
		question := spec.Question(id)
		record := Record{
			ID:              id,
			ExpectedAnswer:  spec.ExpectedAnswer(index),
			Context:         background,
			QuestionContent: question,
			Difficulty:      spec.Difficulty,
		}
		record.ActualAnswer = c.Extract(ctx, raw, question, index+1)
		if err := ctx.Err(); err != nil {
			return Evaluation{}, err
		}
		if strings.TrimSpace(record.ActualAnswer) != "" {
			verdict := c.oracle.JudgeEquivalent(ctx, oracle.JudgeAnswerStrict, record.ActualAnswer, record.ExpectedAnswer,
				oracle.Context{Background: background, Question: question})
			if !verdict.OK() {
				return Evaluation{}, fmt.Errorf("%s %s: %w", problemID, id, verdict.AsError(oracle.OpJudgeAnswerStrict))
			}
			record.Correct = verdict.Value
		}
		c.logger.Logf(verbose.StyleDefault, "%s %s: correct=%t answer=%q", problemID, id, record.Correct, record.ActualAnswer)
		eval.SubQuestions = append(eval.SubQuestions, record)
	}
	return eval, nil
}
