package scoring

import (
	"encoding/json"
	"fmt"

	"stepgrade/internal/orderedjson"
)

// MarshalJSON encodes steps as an object in window order.
func (s StepResults) MarshalJSON() ([]byte, error) {
	return orderedjson.Encode(len(s), func(i int) (string, any) {
		return s[i].ID, s[i]
	})
}

// UnmarshalJSON decodes an object keyed by step id, keeping document order.
func (s *StepResults) UnmarshalJSON(data []byte) error {
	out := StepResults{}
	err := orderedjson.Decode(data, func(key string, raw json.RawMessage) error {
		var step StepResult
		if err := json.Unmarshal(raw, &step); err != nil {
			return fmt.Errorf("step %s: %w", key, err)
		}
		step.ID = key
		out = append(out, step)
		return nil
	})
	if err != nil {
		return err
	}
	*s = out
	return nil
}

// MarshalJSON encodes sub-questions as an object in answer order.
func (r ProblemResult) MarshalJSON() ([]byte, error) {
	return orderedjson.Encode(len(r.SubQuestions), func(i int) (string, any) {
		return r.SubQuestions[i].ID, r.SubQuestions[i]
	})
}

// UnmarshalJSON decodes an object keyed by sub-question id, keeping document order.
func (r *ProblemResult) UnmarshalJSON(data []byte) error {
	var out []SubQuestionResult
	err := orderedjson.Decode(data, func(key string, raw json.RawMessage) error {
		var sq SubQuestionResult
		if err := json.Unmarshal(raw, &sq); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		sq.ID = key
		if sq.Steps == nil {
			sq.Steps = StepResults{}
		}
		out = append(out, sq)
		return nil
	})
	if err != nil {
		return err
	}
	r.SubQuestions = out
	return nil
}
