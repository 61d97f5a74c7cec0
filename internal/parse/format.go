package parse

import (
	"fmt"
	"strings"

	"stepgrade/internal/problem"
)

// Format renders complete sub-questions back into the label grammar.
// Incomplete entries are omitted so they stay incomplete when parsed again.
func Format(resp Response) string {
	var b strings.Builder
	for _, sq := range resp.SubQuestions {
		if !sq.IsComplete {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", sq.ID)
		for _, step := range sq.Steps {
			fmt.Fprintf(&b, "%s: %s\n", step.ID, step.Text)
		}
		fmt.Fprintf(&b, "%s: %s\n", problem.AnswerLabel(sq.ID), sq.FinalAnswer)
	}
	return b.String()
}
