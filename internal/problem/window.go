package problem

import "sort"

// Window is the contiguous global step range owned by one sub-question.
type Window struct {
	SubQuestionID string
	Start         int
	End           int
}

// Len returns the number of step ids in the window.
func (w Window) Len() int {
	if w.End < w.Start {
		return 0
	}
	return w.End - w.Start + 1
}

// StepIDs returns step_<Start>..step_<End>.
func (w Window) StepIDs() []string {
	ids := make([]string, 0, w.Len())
	for m := w.Start; m <= w.End; m++ {
		ids = append(ids, StepID(m))
	}
	return ids
}

// Windows numbers reference steps continuously across sub-questions. Sub-questions
// are ordered by their numeric suffix so sub_question_2 precedes sub_question_10.
func (s Spec) Windows() []Window {
	keys := make([]string, 0, len(s.ExplanationSteps))
	for key := range s.ExplanationSteps {
		keys = append(keys, key)
	}
	sortSubQuestionIDs(keys)

	windows := make([]Window, 0, len(keys))
	next := 1
	for _, key := range keys {
		count := len(s.ExplanationSteps[key])
		windows = append(windows, Window{SubQuestionID: key, Start: next, End: next + count - 1})
		next += count
	}
	return windows
}

// WindowFor returns the window of a sub-question id.
func (s Spec) WindowFor(subQuestionID string) (Window, bool) {
	for _, window := range s.Windows() {
		if window.SubQuestionID == subQuestionID {
			return window, true
		}
	}
	return Window{}, false
}

// sortSubQuestionIDs orders well-formed ids numerically, then anything else by name.
func sortSubQuestionIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		ni, okI := ParseSubQuestionID(ids[i])
		nj, okJ := ParseSubQuestionID(ids[j])
		switch {
		case okI && okJ:
			return ni < nj
		case okI != okJ:
			return okI
		default:
			return ids[i] < ids[j]
		}
	})
}
