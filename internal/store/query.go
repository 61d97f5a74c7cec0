package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// DifficultySummary aggregates stored results of one difficulty level.
type DifficultySummary struct {
	Difficulty string `json:"difficulty"`
	// SubQuestions scored at step level; Shortcut counts full-credit answers.
	SubQuestions int     `json:"sub_questions"`
	Shortcut     int     `json:"shortcut"`
	MeanScore    float64 `json:"mean_score"`
	// Answered and Correct come from answer-only checks.
	Answered int `json:"answered"`
	Correct  int `json:"correct"`
}

// AnswerAccuracy returns the percentage of correct answers.
func (d DifficultySummary) AnswerAccuracy() float64 {
	if d.Answered == 0 {
		return 0
	}
	return float64(d.Correct) / float64(d.Answered) * 100
}

// Summary aggregates every stored score and answer check per difficulty.
func (s *Store) Summary(ctx context.Context) ([]DifficultySummary, error) {
	byDifficulty := map[string]*DifficultySummary{}
	get := func(difficulty string) *DifficultySummary {
		entry, ok := byDifficulty[difficulty]
		if !ok {
			entry = &DifficultySummary{Difficulty: difficulty}
			byDifficulty[difficulty] = entry
		}
		return entry
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.difficulty, COUNT(*),
		   CAST(SUM(CASE WHEN q.shortcut THEN 1 ELSE 0 END) AS BIGINT),
		   AVG(q.score)
		 FROM sub_question_scores q
		 JOIN problem_scores p ON p.problem_score_id = q.problem_score_id
		 GROUP BY p.difficulty`)
	if err != nil {
		return nil, fmt.Errorf("query score summary: %w", err)
	}
	err = scanRows(rows, func(rows *sql.Rows) error {
		var difficulty string
		var total, shortcut int64
		var mean float64
		if err := rows.Scan(&difficulty, &total, &shortcut, &mean); err != nil {
			return err
		}
		entry := get(difficulty)
		entry.SubQuestions = int(total)
		entry.Shortcut = int(shortcut)
		entry.MeanScore = mean
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan score summary: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT difficulty, COUNT(*), CAST(SUM(CASE WHEN correct THEN 1 ELSE 0 END) AS BIGINT)
		 FROM answer_checks
		 GROUP BY difficulty`)
	if err != nil {
		return nil, fmt.Errorf("query answer summary: %w", err)
	}
	err = scanRows(rows, func(rows *sql.Rows) error {
		var difficulty string
		var total, correct int64
		if err := rows.Scan(&difficulty, &total, &correct); err != nil {
			return err
		}
		entry := get(difficulty)
		entry.Answered = int(total)
		entry.Correct = int(correct)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan answer summary: %w", err)
	}

	out := make([]DifficultySummary, 0, len(byDifficulty))
	for _, entry := range byDifficulty {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Difficulty < out[j].Difficulty })
	return out, nil
}

// StoredStep is one stored step row.
type StoredStep struct {
	StepID           string  `json:"step_id"`
	Score            float64 `json:"score"`
	EquationCorrect  bool    `json:"equation_correct"`
	ValueCorrect     bool    `json:"value_correct"`
	ErrorCategory    string  `json:"error_category,omitempty"`
	ErrorExplanation string  `json:"error_explanation,omitempty"`
}

// StoredSubQuestion is one stored sub-question score with its steps.
type StoredSubQuestion struct {
	SubQuestionID string       `json:"sub_question_id"`
	Score         float64      `json:"score"`
	Shortcut      bool         `json:"shortcut"`
	Steps         []StoredStep `json:"steps"`
}

// StoredScore is one stored grading of a problem.
type StoredScore struct {
	RunID        string              `json:"run_id"`
	Model        string              `json:"model"`
	Difficulty   string              `json:"difficulty"`
	MeanScore    float64             `json:"mean_score"`
	CreatedAt    string              `json:"created_at"`
	SubQuestions []StoredSubQuestion `json:"sub_questions"`
}

// StoredAnswer is one stored answer check.
type StoredAnswer struct {
	RunID          string `json:"run_id"`
	Model          string `json:"model"`
	SubQuestionID  string `json:"sub_question_id"`
	Correct        bool   `json:"correct"`
	ActualAnswer   string `json:"actual_answer"`
	ExpectedAnswer string `json:"expected_answer"`
}

// ProblemDetail holds everything stored for one problem.
type ProblemDetail struct {
	ProblemID string         `json:"problem_id"`
	Scores    []StoredScore  `json:"scores"`
	Answers   []StoredAnswer `json:"answers"`
}

// Found reports whether anything is stored for the problem.
func (d ProblemDetail) Found() bool {
	return len(d.Scores) > 0 || len(d.Answers) > 0
}

// Problem returns the stored scores and answer checks of a problem, oldest first.
func (s *Store) Problem(ctx context.Context, problemID string) (ProblemDetail, error) {
	detail := ProblemDetail{ProblemID: problemID, Scores: []StoredScore{}, Answers: []StoredAnswer{}}

	rows, err := s.db.QueryContext(ctx,
		`SELECT problem_score_id, run_id, model, difficulty, mean_score, created_at
		 FROM problem_scores WHERE problem_id = ?
		 ORDER BY created_at, problem_score_id`, problemID)
	if err != nil {
		return detail, fmt.Errorf("query problem scores: %w", err)
	}
	var ids []string
	err = scanRows(rows, func(rows *sql.Rows) error {
		var id string
		var score StoredScore
		if err := rows.Scan(&id, &score.RunID, &score.Model, &score.Difficulty, &score.MeanScore, &score.CreatedAt); err != nil {
			return err
		}
		ids = append(ids, id)
		detail.Scores = append(detail.Scores, score)
		return nil
	})
	if err != nil {
		return detail, fmt.Errorf("scan problem scores: %w", err)
	}
	for i, id := range ids {
		subQuestions, err := s.subQuestions(ctx, id)
		if err != nil {
			return detail, err
		}
		detail.Scores[i].SubQuestions = subQuestions
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT run_id, model, sub_question_id, correct, actual_answer, expected_answer
		 FROM answer_checks WHERE problem_id = ?
		 ORDER BY created_at, position`, problemID)
	if err != nil {
		return detail, fmt.Errorf("query answer checks: %w", err)
	}
	err = scanRows(rows, func(rows *sql.Rows) error {
		var answer StoredAnswer
		if err := rows.Scan(&answer.RunID, &answer.Model, &answer.SubQuestionID, &answer.Correct, &answer.ActualAnswer, &answer.ExpectedAnswer); err != nil {
			return err
		}
		detail.Answers = append(detail.Answers, answer)
		return nil
	})
	if err != nil {
		return detail, fmt.Errorf("scan answer checks: %w", err)
	}
	return detail, nil
}

func (s *Store) subQuestions(ctx context.Context, problemScoreID string) ([]StoredSubQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sub_question_id, score, shortcut FROM sub_question_scores
		 WHERE problem_score_id = ? ORDER BY position`, problemScoreID)
	if err != nil {
		return nil, fmt.Errorf("query sub-questions: %w", err)
	}
	out := []StoredSubQuestion{}
	index := map[string]int{}
	err = scanRows(rows, func(rows *sql.Rows) error {
		sq := StoredSubQuestion{Steps: []StoredStep{}}
		if err := rows.Scan(&sq.SubQuestionID, &sq.Score, &sq.Shortcut); err != nil {
			return err
		}
		index[sq.SubQuestionID] = len(out)
		out = append(out, sq)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan sub-questions: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT sub_question_id, step_id, score, equation_correct, value_correct,
		   COALESCE(error_category, ''), COALESCE(error_explanation, '')
		 FROM step_scores WHERE problem_score_id = ? ORDER BY position`, problemScoreID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	err = scanRows(rows, func(rows *sql.Rows) error {
		var subQuestionID string
		var step StoredStep
		if err := rows.Scan(&subQuestionID, &step.StepID, &step.Score, &step.EquationCorrect, &step.ValueCorrect, &step.ErrorCategory, &step.ErrorExplanation); err != nil {
			return err
		}
		if i, ok := index[subQuestionID]; ok {
			out[i].Steps = append(out[i].Steps, step)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan steps: %w", err)
	}
	return out, nil
}

// scanRows visits every row and closes rows.
func scanRows(rows *sql.Rows, visit func(rows *sql.Rows) error) error {
	defer rows.Close()
	for rows.Next() {
		if err := visit(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
