// Package parse segments free-text model responses into sub-questions, steps,
// and final answers using the fixed label grammar
//
//	sub_question_<n>: ... step_<m>: ... sub_question_<n>_answer: ...
//
// Parsing never fails. Missing structure degrades to incomplete entries.
package parse

import (
	"strings"

	"stepgrade/internal/problem"
)

// Step is one labeled step of a parsed response.
type Step struct {
	ID   string
	Text string
}

// SubQuestion is the parsed block of one expected sub-question.
type SubQuestion struct {
	ID          string
	Steps       []Step
	FinalAnswer string
	IsComplete  bool
}

// Step returns the text of a step id.
func (s SubQuestion) Step(id string) (string, bool) {
	for _, step := range s.Steps {
		if step.ID == id {
			return step.Text, true
		}
	}
	return "", false
}

// Blob joins all step texts with newlines, in response order.
func (s SubQuestion) Blob() string {
	texts := make([]string, len(s.Steps))
	for i, step := range s.Steps {
		texts[i] = step.Text
	}
	return strings.Join(texts, "\n")
}

// Response holds one entry per expected sub-question id, in expected order.
type Response struct {
	SubQuestions []SubQuestion
}

// Get returns the entry of a sub-question id.
func (r Response) Get(id string) (SubQuestion, bool) {
	for _, sq := range r.SubQuestions {
		if sq.ID == id {
			return sq, true
		}
	}
	return SubQuestion{}, false
}

// Parse builds the response tree for the expected sub-question ids.
//
// Sub-question labels delimit blocks wherever they appear. Inside a block the
// window before the block's own answer label holds the steps; the first step
// label may sit anywhere, later ones delimit only at the start of a line.
// Duplicate labels keep their first occurrence. Text after the answer label up
// to the end of the block is the final answer.
func Parse(raw string, expected []string) Response {
	labels := scan(raw)
	blocks := map[int]section{}
	for _, sec := range sections(labels, kindSubQuestion, 0, len(raw), false) {
		if _, seen := blocks[sec.n]; !seen {
			blocks[sec.n] = sec
		}
	}

	resp := Response{SubQuestions: make([]SubQuestion, 0, len(expected))}
	for _, id := range expected {
		entry := SubQuestion{ID: id, Steps: []Step{}}
		if n, ok := problem.ParseSubQuestionID(id); ok {
			if block, found := blocks[n]; found {
				entry = parseBlock(raw, labels, block, id)
			}
		}
		resp.SubQuestions = append(resp.SubQuestions, entry)
	}
	return resp
}

func parseBlock(raw string, labels []label, block section, id string) SubQuestion {
	windowEnd := block.bodyEnd
	answer := ""
	for _, lbl := range labels {
		if lbl.kind != kindAnswer || lbl.n != block.n {
			continue
		}
		if lbl.start < block.bodyStart || lbl.end > block.bodyEnd {
			continue
		}
		windowEnd = lbl.start
		answer = strings.TrimSpace(raw[lbl.end:block.bodyEnd])
		break
	}

	steps := []Step{}
	seen := map[int]bool{}
	for _, sec := range sections(labels, kindStep, block.bodyStart, windowEnd, true) {
		if seen[sec.n] {
			continue
		}
		seen[sec.n] = true
		steps = append(steps, Step{
			ID:   problem.StepID(sec.n),
			Text: strings.TrimSpace(raw[sec.bodyStart:sec.bodyEnd]),
		})
	}
	return SubQuestion{ID: id, Steps: steps, FinalAnswer: answer, IsComplete: true}
}

// StripAnswerLabels removes every sub_question_<n>_answer label and trims the result.
func StripAnswerLabels(text string) string {
	var b strings.Builder
	last := 0
	for _, lbl := range scan(text) {
		if lbl.kind != kindAnswer {
			continue
		}
		b.WriteString(text[last:lbl.start])
		last = lbl.end
	}
	b.WriteString(text[last:])
	return strings.TrimSpace(b.String())
}
