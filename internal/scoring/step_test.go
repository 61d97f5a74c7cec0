package scoring

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"stepgrade/internal/oracle"
	"stepgrade/internal/oracle/oracletest"
	"stepgrade/internal/problem"
	"stepgrade/internal/taxonomy"
)

func rubric(quantities ...problem.Quantity) problem.StepRubric {
	return problem.StepRubric{ResultQuantity: quantities}
}

func quantity(name, value, equation string) problem.Quantity {
	return problem.Quantity{Name: problem.Text(name), Value: problem.Text(value), Equation: problem.Text(equation)}
}

func judgeKinds(verdicts map[oracle.JudgeKind]bool) func(oracle.JudgeKind, string, string, oracle.Context) oracle.Result[bool] {
	return func(kind oracle.JudgeKind, _, _ string, _ oracle.Context) oracle.Result[bool] {
		return oracle.Success(verdicts[kind])
	}
}

// TestScoreValueMatchImpliesEquation verifies a value match awards full credit.
func TestScoreValueMatchImpliesEquation(t *testing.T) {
	fake := &oracletest.Fake{OnJudge: judgeKinds(map[oracle.JudgeKind]bool{oracle.JudgeValues: true})}
	scorer := NewStepScorer(fake, nil)

	eval, err := scorer.Score(context.Background(), StepInput{
		Text:   "v = a t = 10 m/s",
		Rubric: rubric(quantity("v", "10 m/s", "v=at")),
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	want := StepEvaluation{EquationCorrect: true, ValueCorrect: true, MissingAspects: []Aspect{}}
	if !reflect.DeepEqual(eval, want) {
		t.Fatalf("unexpected evaluation %+v", eval)
	}
	if eval.Score() != 1 {
		t.Fatalf("expected score 1, got %v", eval.Score())
	}
	if fake.Count(oracle.OpJudgeEquations) != 0 || fake.Count(oracle.OpExtractEquations) != 0 {
		t.Fatalf("expected no equation checks, got %+v", fake.Calls())
	}
}

// TestScoreNAValuesEquationMismatch verifies the diagnosis path for a failed step.
func TestScoreNAValuesEquationMismatch(t *testing.T) {
	fake := &oracletest.Fake{}
	scorer := NewStepScorer(fake, nil)

	eval, err := scorer.Score(context.Background(), StepInput{
		Text:      "v = a / t",
		Rubric:    rubric(quantity("v", "N/A", "v=at")),
		Reference: "Use v = a t.",
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !reflect.DeepEqual(eval.MissingAspects, []Aspect{AspectValue}) {
		t.Fatalf("expected value missing, got %v", eval.MissingAspects)
	}
	if eval.EquationCorrect || eval.ValueCorrect || eval.Score() != 0 {
		t.Fatalf("expected a zero step, got %+v", eval)
	}
	if eval.ErrorCategory == nil || !eval.ErrorCategory.Valid() {
		t.Fatalf("expected a taxonomy category, got %v", eval.ErrorCategory)
	}
	if eval.ErrorExplanation == "" {
		t.Fatalf("expected an explanation")
	}
	if fake.Count(oracle.OpExtractValues) != 0 {
		t.Fatalf("expected value extraction to be skipped")
	}
	diagnose := fake.Calls()
	for _, call := range diagnose {
		if call.Operation == oracle.OpDiagnose && call.Args[0] != "Use v = a t." {
			t.Fatalf("expected reference text in diagnosis, got %v", call.Args)
		}
	}
}

// TestScoreEquationOnlyStepCapsAtHalf verifies equation credit without checkable values.
func TestScoreEquationOnlyStepCapsAtHalf(t *testing.T) {
	fake := &oracletest.Fake{OnJudge: judgeKinds(map[oracle.JudgeKind]bool{oracle.JudgeEquations: true})}
	scorer := NewStepScorer(fake, nil)

	eval, err := scorer.Score(context.Background(), StepInput{Rubric: rubric(quantity("v", "N/A", "v=at"))})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if eval.Score() != 0.5 || eval.ErrorCategory != nil {
		t.Fatalf("expected an undiagnosed half step, got %+v", eval)
	}
	if fake.Count(oracle.OpDiagnose) != 0 {
		t.Fatalf("expected no diagnosis")
	}
}

// TestScoreAllAspectsMissing verifies both aspects are reported when nothing is checkable.
func TestScoreAllAspectsMissing(t *testing.T) {
	fake := &oracletest.Fake{}
	eval, err := NewStepScorer(fake, nil).Score(context.Background(), StepInput{Rubric: rubric(quantity("v", "N/A", " N/A "))})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !eval.Missing(AspectValue) || !eval.Missing(AspectEquation) {
		t.Fatalf("expected both aspects missing, got %v", eval.MissingAspects)
	}
	if fake.Count(oracle.OpJudgeEquations) != 0 || fake.Count(oracle.OpJudgeValues) != 0 {
		t.Fatalf("expected no judgments, got %+v", fake.Calls())
	}
}

// TestScoreExpectedQuantitiesSkipNA verifies only checkable quantities reach the judge.
func TestScoreExpectedQuantitiesSkipNA(t *testing.T) {
	var expectedValues string
	fake := &oracletest.Fake{OnJudge: func(kind oracle.JudgeKind, _, expected string, _ oracle.Context) oracle.Result[bool] {
		if kind == oracle.JudgeValues {
			expectedValues = expected
		}
		return oracle.Success(false)
	}}
	_, err := NewStepScorer(fake, nil).Score(context.Background(), StepInput{Rubric: rubric(
		quantity("v", "10 m/s", "v=at"),
		quantity("a", "N/A", "a=F/m"),
		quantity("t", "1", "N/A"),
	)})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if expectedValues != "v: 10 m/s\nt: 1" {
		t.Fatalf("unexpected expected values %q", expectedValues)
	}
}

// TestScoreUnknownCategoryKeepsEvaluation verifies an unmatched category is left empty.
func TestScoreUnknownCategoryKeepsEvaluation(t *testing.T) {
	fake := &oracletest.Fake{OnClassify: func(string, string, string) oracle.Result[taxonomy.Category] {
		return oracle.Result[taxonomy.Category]{
			Outcome: oracle.PermanentFailure,
			Err:     fmt.Errorf("classify: %w", taxonomy.ErrUnknownCategory),
		}
	}}
	eval, err := NewStepScorer(fake, nil).Score(context.Background(), StepInput{Rubric: rubric(quantity("v", "1", "v=at"))})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if eval.ErrorCategory != nil || eval.ErrorExplanation == "" {
		t.Fatalf("expected explanation without category, got %+v", eval)
	}
}

// TestScoreOracleFailureAbortsStep verifies failures return the default evaluation.
func TestScoreOracleFailureAbortsStep(t *testing.T) {
	fake := &oracletest.Fake{
		OnJudge: judgeKinds(map[oracle.JudgeKind]bool{oracle.JudgeValues: false}),
		OnExtract: func(kind oracle.ExtractKind, content string, _ []string) oracle.Result[string] {
			if kind == oracle.ExtractEquations {
				return oracletest.Transient[string]("rate limited")
			}
			return oracle.Success(content)
		},
	}
	eval, err := NewStepScorer(fake, nil).Score(context.Background(), StepInput{Rubric: rubric(quantity("v", "N/A", "v=at"))})
	var oracleErr *oracle.CallError
	if !errors.As(err, &oracleErr) {
		t.Fatalf("expected CallError, got %v", err)
	}
	if oracleErr.Operation != oracle.OpExtractEquations || oracleErr.Outcome != oracle.TransientFailure {
		t.Fatalf("unexpected error %+v", oracleErr)
	}
	if !reflect.DeepEqual(eval, newEvaluation()) {
		t.Fatalf("expected default evaluation, got %+v", eval)
	}
}
