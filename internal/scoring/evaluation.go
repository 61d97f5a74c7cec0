// Package scoring grades parsed responses against problem rubrics: step
// evaluations with partial credit, the whole-answer shortcut per
// sub-question, and the scored output record.
package scoring

import "stepgrade/internal/taxonomy"

// Aspect names a rubric dimension that can be reported as not checked.
type Aspect string

const (
	AspectEquation Aspect = "equation"
	AspectValue    Aspect = "value"
)

// StepEvaluation is the verdict for one rubric step.
type StepEvaluation struct {
	EquationCorrect  bool               `json:"equation_correct"`
	ValueCorrect     bool               `json:"value_correct"`
	MissingAspects   []Aspect           `json:"missing_aspects"`
	ErrorCategory    *taxonomy.Category `json:"error_category,omitempty"`
	ErrorExplanation string             `json:"error_explanation,omitempty"`
}

func newEvaluation() StepEvaluation {
	return StepEvaluation{MissingAspects: []Aspect{}}
}

// Score returns 0.5 per correct aspect.
func (e StepEvaluation) Score() float64 {
	score := 0.0
	if e.EquationCorrect {
		score += 0.5
	}
	if e.ValueCorrect {
		score += 0.5
	}
	return score
}

// Missing reports whether an aspect was skipped.
func (e StepEvaluation) Missing(aspect Aspect) bool {
	for _, missing := range e.MissingAspects {
		if missing == aspect {
			return true
		}
	}
	return false
}

// StepResult is one scored step of a sub-question.
type StepResult struct {
	ID       string         `json:"-"`
	Score    float64        `json:"score"`
	Analysis StepEvaluation `json:"analysis"`
}

// StepResults keeps step results in window order; it encodes as an object
// keyed by step id.
type StepResults []StepResult

// SubQuestionResult is the score of one sub-question.
type SubQuestionResult struct {
	ID    string      `json:"-"`
	Score float64     `json:"score"`
	Steps StepResults `json:"steps"`
}

// Shortcut reports whether the score came from the whole-answer check.
// Step grading never yields 1.0 without step results, so the shape is exact.
func (r SubQuestionResult) Shortcut() bool {
	return r.Score == 1 && len(r.Steps) == 0
}

// ProblemResult holds sub-question results in answer order; it encodes as an
// object keyed by sub-question id.
type ProblemResult struct {
	SubQuestions []SubQuestionResult
}

// Get returns the result of a sub-question id.
func (r ProblemResult) Get(id string) (SubQuestionResult, bool) {
	for _, sq := range r.SubQuestions {
		if sq.ID == id {
			return sq, true
		}
	}
	return SubQuestionResult{}, false
}

// MeanScore averages sub-question scores, 0 when there are none.
func (r ProblemResult) MeanScore() float64 {
	if len(r.SubQuestions) == 0 {
		return 0
	}
	total := 0.0
	for _, sq := range r.SubQuestions {
		total += sq.Score
	}
	return total / float64(len(r.SubQuestions))
}
