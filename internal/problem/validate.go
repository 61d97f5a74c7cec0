package problem

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField is wrapped by every ValidationError.
var ErrMissingField = errors.New("problem record is missing required fields")

// Mode selects which parts of a gold record must be present.
type Mode int

const (
	// ModeAnswers needs the answers and the question structure.
	ModeAnswers Mode = iota
	// ModeSteps additionally needs the reference steps of every sub-question.
	ModeSteps
)

// Issue captures a validation problem in a gold record.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports one or more validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error returns a readable message for validation failures.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("problem validation failed: %s", strings.Join(parts, "; "))
}

// Unwrap lets callers match validation failures with errors.Is.
func (err *ValidationError) Unwrap() error {
	return ErrMissingField
}

type issueCollector struct {
	issues []Issue
}

func (collector *issueCollector) add(field, message string) {
	collector.issues = append(collector.issues, Issue{Field: field, Message: message})
}

func (collector *issueCollector) result() error {
	if len(collector.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: collector.issues}
}

// Validate fails closed on records missing the keys a mode depends on.
func Validate(spec Spec, mode Mode) error {
	collector := &issueCollector{}
	if strings.TrimSpace(spec.Difficulty) == "" {
		collector.add("difficulty", "is required")
	}
	if len(spec.Answer) == 0 {
		collector.add("answer", "must include at least one entry")
	}
	if spec.QuestionStructure == nil {
		collector.add("question_structure", "is required")
	} else {
		if _, ok := spec.QuestionStructure[contextKey]; !ok && spec.Context == "" {
			collector.add("question_structure.context", "is required")
		}
		for _, id := range spec.SubQuestionIDs() {
			if _, ok := spec.QuestionStructure[id]; !ok {
				collector.add("question_structure."+id, "is required")
			}
		}
	}
	if mode == ModeSteps {
		if spec.ExplanationSteps == nil {
			collector.add("explanation_steps", "is required")
		} else {
			for _, id := range spec.SubQuestionIDs() {
				if _, ok := spec.ExplanationSteps[id]; !ok {
					collector.add("explanation_steps."+id, "is required")
				}
			}
		}
		if spec.StepsAnalysis == nil {
			collector.add("steps_analysis", "is required")
		}
	}
	return collector.result()
}
