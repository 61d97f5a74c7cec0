package problem

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestLoadStepRecord verifies a complete record loads with mixed scalar types.
func TestLoadStepRecord(t *testing.T) {
	spec, err := Load(filepath.Join("testdata", "cal_problem_1.json"), ModeSteps)
	if err != nil {
		t.Fatalf("load problem: %v", err)
	}
	if spec.Difficulty != "easy" {
		t.Fatalf("expected difficulty easy, got %q", spec.Difficulty)
	}
	if got := spec.ExpectedAnswer(1); got != "5" {
		t.Fatalf("expected numeric answer kept as 5, got %q", got)
	}
	if got := spec.Background(); got != "A ball is dropped from rest." {
		t.Fatalf("unexpected background %q", got)
	}
	ids := spec.SubQuestionIDs()
	if len(ids) != 2 || ids[0] != "sub_question_1" || ids[1] != "sub_question_2" {
		t.Fatalf("unexpected sub-question ids %v", ids)
	}
	rubric, ok := spec.Rubric("step_3")
	if !ok {
		t.Fatalf("expected rubric for step_3")
	}
	if rubric.ResultQuantity[0].Value != "5" {
		t.Fatalf("expected value 5, got %q", rubric.ResultQuantity[0].Value)
	}
	if got := spec.Reference("sub_question_1", "step_2"); got != "v = 10 m/s." {
		t.Fatalf("unexpected reference %q", got)
	}
}

// TestWindowsNumberContinuously verifies global step numbering across sub-questions.
func TestWindowsNumberContinuously(t *testing.T) {
	spec := Spec{ExplanationSteps: map[string]map[string]Text{
		"sub_question_10": {"step_6": "x"},
		"sub_question_2":  {"step_3": "x", "step_4": "x", "step_5": "x"},
		"sub_question_1":  {"step_1": "x", "step_2": "x"},
	}}
	windows := spec.Windows()
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	want := []Window{
		{SubQuestionID: "sub_question_1", Start: 1, End: 2},
		{SubQuestionID: "sub_question_2", Start: 3, End: 5},
		{SubQuestionID: "sub_question_10", Start: 6, End: 6},
	}
	for i, window := range windows {
		if window != want[i] {
			t.Fatalf("window %d: expected %+v, got %+v", i, want[i], window)
		}
	}
	ids := windows[1].StepIDs()
	if len(ids) != 3 || ids[0] != "step_3" || ids[2] != "step_5" {
		t.Fatalf("unexpected step ids %v", ids)
	}
}

// TestWindowEmptySubQuestion verifies a sub-question without steps owns no ids.
func TestWindowEmptySubQuestion(t *testing.T) {
	spec := Spec{ExplanationSteps: map[string]map[string]Text{
		"sub_question_1": {},
		"sub_question_2": {"step_1": "x"},
	}}
	window, ok := spec.WindowFor("sub_question_1")
	if !ok {
		t.Fatalf("expected window")
	}
	if window.Len() != 0 || len(window.StepIDs()) != 0 {
		t.Fatalf("expected empty window, got %+v", window)
	}
	second, _ := spec.WindowFor("sub_question_2")
	if second.Start != 1 || second.End != 1 {
		t.Fatalf("unexpected second window %+v", second)
	}
}

// TestRubricNotApplicable verifies N/A detection and filtering.
func TestRubricNotApplicable(t *testing.T) {
	rubric := StepRubric{ResultQuantity: []Quantity{
		{Name: "a", Value: "N/A", Equation: "a = b"},
		{Name: "b", Value: " N/A ", Equation: "N/A"},
	}}
	if !rubric.AllValuesNA() {
		t.Fatalf("expected all values N/A")
	}
	if rubric.AllEquationsNA() {
		t.Fatalf("expected a checkable equation")
	}
	if got := rubric.ExpectedEquations(); len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("unexpected equations %+v", got)
	}
	if !(StepRubric{}).AllValuesNA() {
		t.Fatalf("expected empty rubric to have no checkable values")
	}
}

// TestValidateFailsClosed verifies missing keys are reported per field.
func TestValidateFailsClosed(t *testing.T) {
	spec := Spec{
		Answer:            []Text{"1", "2"},
		QuestionStructure: map[string]Text{"sub_question_1": "q"},
	}
	err := Validate(spec, ModeSteps)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	fields := map[string]bool{}
	for _, issue := range validationErr.Issues {
		fields[issue.Field] = true
	}
	for _, field := range []string{"difficulty", "question_structure.context", "question_structure.sub_question_2", "explanation_steps", "steps_analysis"} {
		if !fields[field] {
			t.Fatalf("expected issue for %s, got %+v", field, validationErr.Issues)
		}
	}
	if err := Validate(Spec{
		Difficulty:        "hard",
		Answer:            []Text{"1"},
		QuestionStructure: map[string]Text{"context": "c", "sub_question_1": "q"},
	}, ModeAnswers); err != nil {
		t.Fatalf("expected answers mode to pass, got %v", err)
	}
}

// TestParseRejectsMultipleDocuments verifies trailing documents are rejected.
func TestParseRejectsMultipleDocuments(t *testing.T) {
	if _, err := Parse([]byte(`{"difficulty":"easy"} {}`)); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Parse([]byte(`{"answer":[{"x":1}]}`)); err == nil {
		t.Fatalf("expected error for object answer")
	}
}

// TestLoadMissingFile verifies read errors are wrapped.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "problem.json"), ModeAnswers)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

// TestLabels verifies label formatting and parsing.
func TestLabels(t *testing.T) {
	if SubQuestionID(3) != "sub_question_3" || StepID(12) != "step_12" {
		t.Fatalf("unexpected label format")
	}
	if AnswerLabel("sub_question_3") != "sub_question_3_answer" {
		t.Fatalf("unexpected answer label")
	}
	if n, ok := ParseSubQuestionID("sub_question_42"); !ok || n != 42 {
		t.Fatalf("expected 42, got %d %v", n, ok)
	}
	for _, bad := range []string{"sub_question_", "sub_question_x", "step_1a", "context"} {
		if _, ok := ParseSubQuestionID(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
