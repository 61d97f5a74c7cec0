package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stepgrade/internal/oracle"
	"stepgrade/internal/problem"
	"stepgrade/internal/taxonomy"
	"stepgrade/internal/verbose"
)

// StepInput is everything needed to grade one rubric step.
type StepInput struct {
	// Text is the solution text searched for the step's quantities.
	Text      string
	Rubric    problem.StepRubric
	Context   oracle.Context
	Reference string
}

// StepScorer grades one step against its rubric.
type StepScorer struct {
	oracle oracle.Oracle
	logger *verbose.Logger
}

// NewStepScorer builds a scorer on top of an oracle.
func NewStepScorer(o oracle.Oracle, logger *verbose.Logger) *StepScorer {
	return &StepScorer{oracle: o, logger: logger}
}

// Score evaluates values first, falls back to equations, and diagnoses a step
// that fails both. Any oracle failure aborts the step and returns the default
// evaluation with the error.
func (s *StepScorer) Score(ctx context.Context, in StepInput) (StepEvaluation, error) {
	eval := newEvaluation()
	names := in.Rubric.Names()

	if in.Rubric.AllValuesNA() {
		eval.MissingAspects = append(eval.MissingAspects, AspectValue)
	} else {
		extracted := s.oracle.ExtractRelevant(ctx, oracle.ExtractValues, in.Text, names, in.Context)
		if !extracted.OK() {
			return newEvaluation(), extracted.AsError(oracle.OpExtractValues)
		}
		expected := joinQuantities(in.Rubric.ExpectedValues(), func(q problem.Quantity) problem.Text { return q.Value })
		verdict := s.oracle.JudgeEquivalent(ctx, oracle.JudgeValues, extracted.Value, expected, in.Context)
		if !verdict.OK() {
			return newEvaluation(), verdict.AsError(oracle.OpJudgeValues)
		}
		eval.ValueCorrect = verdict.Value
	}
	if eval.ValueCorrect {
		eval.EquationCorrect = true
		return eval, nil
	}

	equations := s.oracle.ExtractRelevant(ctx, oracle.ExtractEquations, in.Text, names, in.Context)
	if !equations.OK() {
		return newEvaluation(), equations.AsError(oracle.OpExtractEquations)
	}
	if in.Rubric.AllEquationsNA() {
		eval.MissingAspects = append(eval.MissingAspects, AspectEquation)
	} else {
		expected := joinQuantities(in.Rubric.ExpectedEquations(), func(q problem.Quantity) problem.Text { return q.Equation })
		verdict := s.oracle.JudgeEquivalent(ctx, oracle.JudgeEquations, equations.Value, expected, in.Context)
		if !verdict.OK() {
			return newEvaluation(), verdict.AsError(oracle.OpJudgeEquations)
		}
		eval.EquationCorrect = verdict.Value
	}
	if eval.EquationCorrect {
		return eval, nil
	}

	diagnosis := s.oracle.Diagnose(ctx, in.Reference, equations.Value)
	if !diagnosis.OK() {
		return newEvaluation(), diagnosis.AsError(oracle.OpDiagnose)
	}
	eval.ErrorExplanation = diagnosis.Value

	category := s.oracle.ClassifyError(ctx, in.Reference, equations.Value, diagnosis.Value, taxonomy.All())
	switch {
	case category.OK():
		value := category.Value
		eval.ErrorCategory = &value
	case errors.Is(category.Err, taxonomy.ErrUnknownCategory):
		s.logger.Warnf("error category left empty: %v", category.Err)
	default:
		return newEvaluation(), category.AsError(oracle.OpClassify)
	}
	return eval, nil
}

// joinQuantities renders "name: field" lines for the oracle to compare against.
func joinQuantities(quantities []problem.Quantity, field func(problem.Quantity) problem.Text) string {
	lines := make([]string, 0, len(quantities))
	for _, q := range quantities {
		lines = append(lines, fmt.Sprintf("%s: %s", q.Name, field(q)))
	}
	return strings.Join(lines, "\n")
}
