package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"stepgrade/internal/answers"
	"stepgrade/internal/problem"
	"stepgrade/internal/scoring"
	"stepgrade/internal/store"
)

// Report aggregates evaluations already on disk.
type Report struct {
	Rows []store.DifficultySummary
	// Problems counts problem directories with at least one evaluation.
	Problems int
	// Unreadable lists evaluations that could not be decoded.
	Unreadable []ItemResult
}

type reportTotals struct {
	row      store.DifficultySummary
	scoreSum float64
}

// Scan reads every step and answer evaluation under the root and aggregates
// them per difficulty. It never calls the oracle.
func (e *Env) Scan() (Report, error) {
	ids, err := e.Layout.Problems()
	if err != nil {
		return Report{}, err
	}
	totals := map[string]*reportTotals{}
	get := func(difficulty string) *reportTotals {
		entry, ok := totals[difficulty]
		if !ok {
			entry = &reportTotals{row: store.DifficultySummary{Difficulty: difficulty}}
			totals[difficulty] = entry
		}
		return entry
	}

	var report Report
	for _, id := range ids {
		steps := e.Layout.Item(id, e.Artifacts.Formatted, e.Artifacts.StepEval)
		checks := e.Layout.Item(id, e.Artifacts.Raw, e.Artifacts.AnswerEval)
		found := false

		if fileExists(steps.Output) {
			found = true
			if err := scanSteps(steps, get); err != nil {
				report.Unreadable = append(report.Unreadable, failure(ItemResult{ProblemID: id}, StatusInvalid, err))
			}
		}
		if fileExists(checks.Output) {
			found = true
			var evaluation answers.Evaluation
			if err := readJSON(checks.Output, &evaluation); err != nil {
				report.Unreadable = append(report.Unreadable, failure(ItemResult{ProblemID: id}, StatusInvalid, err))
			} else {
				for _, record := range evaluation.SubQuestions {
					entry := get(record.Difficulty)
					entry.row.Answered++
					if record.Correct {
						entry.row.Correct++
					}
				}
			}
		}
		if found {
			report.Problems++
		}
	}

	for _, entry := range totals {
		if entry.row.SubQuestions > 0 {
			entry.row.MeanScore = entry.scoreSum / float64(entry.row.SubQuestions)
		}
		report.Rows = append(report.Rows, entry.row)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].Difficulty < report.Rows[j].Difficulty
	})
	return report, nil
}

// scanSteps adds one step evaluation; the difficulty comes from problem.json.
func scanSteps(item Item, get func(string) *reportTotals) error {
	spec, err := problem.Load(item.ProblemPath, problem.ModeAnswers)
	if err != nil {
		return err
	}
	var result scoring.ProblemResult
	if err := readJSON(item.Output, &result); err != nil {
		return err
	}
	entry := get(spec.Difficulty)
	for _, sq := range result.SubQuestions {
		entry.row.SubQuestions++
		entry.scoreSum += sq.Score
		if sq.Shortcut() {
			entry.row.Shortcut++
		}
	}
	return nil
}

func readJSON(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
