// Package oracle delegates semantic judgments to a language model. Every
// call returns a Result tagged Ok, TransientFailure or PermanentFailure, and
// free-text verdicts are normalized per locale before they reach callers.
package oracle

import (
	"context"

	"stepgrade/internal/taxonomy"
)

// JudgeKind selects how two expressions are compared.
type JudgeKind int

const (
	// JudgeAnswer compares final answers and ignores units.
	JudgeAnswer JudgeKind = iota
	// JudgeAnswerStrict compares final answers including units.
	JudgeAnswerStrict
	// JudgeValues compares computed results, all-or-nothing across quantities.
	JudgeValues
	// JudgeEquations compares formulas, ignoring units, all-or-nothing.
	JudgeEquations
)

// String returns the operation label of a judge kind.
func (k JudgeKind) String() string {
	switch k {
	case JudgeAnswer:
		return OpJudgeAnswer
	case JudgeAnswerStrict:
		return OpJudgeAnswerStrict
	case JudgeValues:
		return OpJudgeValues
	case JudgeEquations:
		return OpJudgeEquations
	default:
		return "judge_unknown"
	}
}

// ExtractKind selects what is pulled out of a solution text.
type ExtractKind int

const (
	// ExtractValues pulls computed results for named quantities.
	ExtractValues ExtractKind = iota
	// ExtractEquations pulls the formulas that produce named quantities.
	ExtractEquations
)

// String returns the operation label of an extract kind.
func (k ExtractKind) String() string {
	if k == ExtractEquations {
		return OpExtractEquations
	}
	return OpExtractValues
}

// Operation labels, shared by transcripts and metrics.
const (
	OpJudgeAnswer       = "judge_answer"
	OpJudgeAnswerStrict = "judge_answer_strict"
	OpJudgeValues       = "judge_values"
	OpJudgeEquations    = "judge_equations"
	OpExtractValues     = "extract_values"
	OpExtractEquations  = "extract_equations"
	OpDiagnose          = "diagnose"
	OpClassify          = "classify"
	OpExtractAnswer     = "extract_answer"
	OpReformat          = "reformat"
)

// Context is the problem text a judgment is made against.
type Context struct {
	Background string
	Question   string
}

// Oracle is the equivalence capability consumed by step scoring.
type Oracle interface {
	JudgeEquivalent(ctx context.Context, kind JudgeKind, actual, expected string, qc Context) Result[bool]
	ExtractRelevant(ctx context.Context, kind ExtractKind, content string, names []string, qc Context) Result[string]
	Diagnose(ctx context.Context, reference, actual string) Result[string]
	ClassifyError(ctx context.Context, reference, actual, explanation string, entries []taxonomy.Entry) Result[taxonomy.Category]
}

// AnswerExtractor pulls one sub-question's final answer out of a raw response.
type AnswerExtractor interface {
	ExtractAnswer(ctx context.Context, raw, question string, subQuestion int) Result[string]
}

// Reformatter rewrites a raw response into the labeled step grammar.
type Reformatter interface {
	Reformat(ctx context.Context, raw string, structure map[string]string) Result[string]
}
