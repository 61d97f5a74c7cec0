// Package oracletest provides a scripted oracle for tests.
package oracletest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"stepgrade/internal/oracle"
	"stepgrade/internal/taxonomy"
)

// Call records one request made to the fake.
type Call struct {
	Operation string
	Args      []string
}

// Fake answers every oracle operation from optional hooks. Unset hooks fall
// back to: not equivalent, echo the content, a fixed diagnosis, the
// calculation category, an empty answer, and the raw text unchanged.
type Fake struct {
	OnJudge         func(kind oracle.JudgeKind, actual, expected string, qc oracle.Context) oracle.Result[bool]
	OnExtract       func(kind oracle.ExtractKind, content string, names []string) oracle.Result[string]
	OnDiagnose      func(reference, actual string) oracle.Result[string]
	OnClassify      func(reference, actual, explanation string) oracle.Result[taxonomy.Category]
	OnExtractAnswer func(raw, question string, subQuestion int) oracle.Result[string]
	OnReformat      func(raw string, structure map[string]string) oracle.Result[string]

	mu    sync.Mutex
	calls []Call
}

var (
	_ oracle.Oracle          = (*Fake)(nil)
	_ oracle.AnswerExtractor = (*Fake)(nil)
	_ oracle.Reformatter     = (*Fake)(nil)
)

func (f *Fake) record(op string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Operation: op, Args: args})
}

// Calls returns a copy of every recorded call.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Count returns how many calls used an operation label.
func (f *Fake) Count(operation string) int {
	count := 0
	for _, call := range f.Calls() {
		if call.Operation == operation {
			count++
		}
	}
	return count
}

// JudgeEquivalent implements oracle.Oracle.
func (f *Fake) JudgeEquivalent(_ context.Context, kind oracle.JudgeKind, actual, expected string, qc oracle.Context) oracle.Result[bool] {
	f.record(kind.String(), actual, expected)
	if f.OnJudge == nil {
		return oracle.Success(false)
	}
	return f.OnJudge(kind, actual, expected, qc)
}

// ExtractRelevant implements oracle.Oracle.
func (f *Fake) ExtractRelevant(_ context.Context, kind oracle.ExtractKind, content string, names []string, _ oracle.Context) oracle.Result[string] {
	f.record(kind.String(), content, strings.Join(names, ","))
	if f.OnExtract == nil {
		return oracle.Success(content)
	}
	return f.OnExtract(kind, content, names)
}

// Diagnose implements oracle.Oracle.
func (f *Fake) Diagnose(_ context.Context, reference, actual string) oracle.Result[string] {
	f.record(oracle.OpDiagnose, reference, actual)
	if f.OnDiagnose == nil {
		return oracle.Success("the step uses the wrong relation")
	}
	return f.OnDiagnose(reference, actual)
}

// ClassifyError implements oracle.Oracle.
func (f *Fake) ClassifyError(_ context.Context, reference, actual, explanation string, _ []taxonomy.Entry) oracle.Result[taxonomy.Category] {
	f.record(oracle.OpClassify, reference, actual, explanation)
	if f.OnClassify == nil {
		return oracle.Success(taxonomy.CalculationProcess)
	}
	return f.OnClassify(reference, actual, explanation)
}

// ExtractAnswer implements oracle.AnswerExtractor.
func (f *Fake) ExtractAnswer(_ context.Context, raw, question string, subQuestion int) oracle.Result[string] {
	f.record(oracle.OpExtractAnswer, raw, question)
	if f.OnExtractAnswer == nil {
		return oracle.Success("")
	}
	return f.OnExtractAnswer(raw, question, subQuestion)
}

// Reformat implements oracle.Reformatter.
func (f *Fake) Reformat(_ context.Context, raw string, structure map[string]string) oracle.Result[string] {
	f.record(oracle.OpReformat, raw)
	if f.OnReformat == nil {
		return oracle.Success(raw)
	}
	return f.OnReformat(raw, structure)
}

// Transient returns a transient failure result.
func Transient[T any](message string) oracle.Result[T] {
	return oracle.Result[T]{Outcome: oracle.TransientFailure, Err: errors.New(message)}
}

// Permanent returns a permanent failure result.
func Permanent[T any](message string) oracle.Result[T] {
	return oracle.Result[T]{Outcome: oracle.PermanentFailure, Err: errors.New(message)}
}
