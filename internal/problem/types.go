package problem

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NotApplicable marks a rubric aspect that is not checked for a step.
const NotApplicable = "N/A"

// Text is a JSON scalar decoded as a string. Gold records mix quoted and bare
// numeric values, so numbers and booleans are kept in their literal form.
type Text string

// UnmarshalJSON accepts strings, numbers, booleans, and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*t = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	if trimmed == "true" || trimmed == "false" {
		*t = Text(trimmed)
		return nil
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
		return &json.UnmarshalTypeError{Value: trimmed, Type: textType}
	}
	*t = Text(trimmed)
	return nil
}

// String returns the text value.
func (t Text) String() string {
	return string(t)
}

// Quantity is one named physical or mathematical quantity checked at a step.
type Quantity struct {
	Name     Text `json:"name"`
	Value    Text `json:"value"`
	Equation Text `json:"equation"`
}

// StepRubric lists the quantities a reference step produces.
type StepRubric struct {
	ResultQuantity []Quantity `json:"result_quantity"`
}

// Names returns the quantity names in rubric order.
func (r StepRubric) Names() []string {
	names := make([]string, 0, len(r.ResultQuantity))
	for _, q := range r.ResultQuantity {
		names = append(names, q.Name.String())
	}
	return names
}

// AllValuesNA reports whether no quantity carries a checkable value.
func (r StepRubric) AllValuesNA() bool {
	for _, q := range r.ResultQuantity {
		if !isNA(q.Value) {
			return false
		}
	}
	return true
}

// AllEquationsNA reports whether no quantity carries a checkable equation.
func (r StepRubric) AllEquationsNA() bool {
	for _, q := range r.ResultQuantity {
		if !isNA(q.Equation) {
			return false
		}
	}
	return true
}

// ExpectedValues returns the quantities whose value is checkable.
func (r StepRubric) ExpectedValues() []Quantity {
	out := make([]Quantity, 0, len(r.ResultQuantity))
	for _, q := range r.ResultQuantity {
		if !isNA(q.Value) {
			out = append(out, q)
		}
	}
	return out
}

// ExpectedEquations returns the quantities whose equation is checkable.
func (r StepRubric) ExpectedEquations() []Quantity {
	out := make([]Quantity, 0, len(r.ResultQuantity))
	for _, q := range r.ResultQuantity {
		if !isNA(q.Equation) {
			out = append(out, q)
		}
	}
	return out
}

func isNA(value Text) bool {
	return strings.TrimSpace(value.String()) == NotApplicable
}

// Spec is the immutable gold record of one multi-part problem.
type Spec struct {
	Context           string                     `json:"context,omitempty"`
	Difficulty        string                     `json:"difficulty"`
	Answer            []Text                     `json:"answer"`
	QuestionStructure map[string]Text            `json:"question_structure"`
	ExplanationSteps  map[string]map[string]Text `json:"explanation_steps"`
	StepsAnalysis     map[string]StepRubric      `json:"steps_analysis"`
}

// SubQuestionIDs returns sub_question_1..sub_question_n, one per answer.
func (s Spec) SubQuestionIDs() []string {
	ids := make([]string, len(s.Answer))
	for i := range s.Answer {
		ids[i] = SubQuestionID(i + 1)
	}
	return ids
}

// Background returns the shared problem context.
func (s Spec) Background() string {
	if text, ok := s.QuestionStructure[contextKey]; ok {
		return text.String()
	}
	return s.Context
}

// Question returns the text of a sub-question, or "" when absent.
func (s Spec) Question(subQuestionID string) string {
	return s.QuestionStructure[subQuestionID].String()
}

// ExpectedAnswer returns the gold answer for the zero-based sub-question index.
func (s Spec) ExpectedAnswer(index int) string {
	if index < 0 || index >= len(s.Answer) {
		return ""
	}
	return s.Answer[index].String()
}

// Reference returns the reference text of a step within a sub-question.
func (s Spec) Reference(subQuestionID, stepID string) string {
	return s.ExplanationSteps[subQuestionID][stepID].String()
}

// Rubric returns the rubric of a global step id.
func (s Spec) Rubric(stepID string) (StepRubric, bool) {
	rubric, ok := s.StepsAnalysis[stepID]
	return rubric, ok
}

// Structure returns question_structure as plain strings for prompt rendering.
func (s Spec) Structure() map[string]string {
	out := make(map[string]string, len(s.QuestionStructure))
	for key, value := range s.QuestionStructure {
		out[key] = value.String()
	}
	return out
}
