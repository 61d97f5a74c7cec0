package problem

import (
	"reflect"
	"strconv"
	"strings"
)

const (
	// SubQuestionPrefix starts every sub-question label.
	SubQuestionPrefix = "sub_question_"
	// StepPrefix starts every step label.
	StepPrefix = "step_"
	// AnswerSuffix follows a sub-question label to mark its final answer.
	AnswerSuffix = "_answer"

	contextKey = "context"
)

var textType = reflect.TypeOf(Text(""))

// SubQuestionID formats the label of the n-th sub-question (1-based).
func SubQuestionID(n int) string {
	return SubQuestionPrefix + strconv.Itoa(n)
}

// StepID formats the label of the m-th global step (1-based).
func StepID(m int) string {
	return StepPrefix + strconv.Itoa(m)
}

// AnswerLabel formats the final-answer label of a sub-question id.
func AnswerLabel(subQuestionID string) string {
	return subQuestionID + AnswerSuffix
}

// ParseSubQuestionID extracts n from "sub_question_<n>".
func ParseSubQuestionID(id string) (int, bool) {
	return parseIndexed(id, SubQuestionPrefix)
}

// ParseStepID extracts m from "step_<m>".
func ParseStepID(id string) (int, bool) {
	return parseIndexed(id, StepPrefix)
}

func parseIndexed(id, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
