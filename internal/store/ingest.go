package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stepgrade/internal/answers"
	"stepgrade/internal/scoring"
)

// Run describes one batch run.
type Run struct {
	ID        string
	Command   string
	Root      string
	Model     string
	StartedAt time.Time
}

// ProblemScore is the graded result of one problem.
type ProblemScore struct {
	RunID      string
	ProblemID  string
	Model      string
	Difficulty string
	Result     scoring.ProblemResult
}

// AnswerCheck is the answer-only evaluation of one problem.
type AnswerCheck struct {
	RunID      string
	ProblemID  string
	Evaluation answers.Evaluation
}

// RecordRun inserts a run; recording the same run id twice is a no-op.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("store: run id is required")
	}
	started := run.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, command, root, model, started_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (run_id) DO NOTHING`,
		run.ID, run.Command, run.Root, run.Model, started.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordProblemScore stores a graded problem with its sub-question and step
// rows. An identical result for the same problem and model is stored once.
func (s *Store) RecordProblemScore(ctx context.Context, score ProblemScore) error {
	if score.ProblemID == "" {
		return errors.New("store: problem id is required")
	}
	result, err := json.Marshal(score.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	key := fingerprint(score.ProblemID, score.Model, string(result))

	return s.inTx(ctx, func(tx *sql.Tx) error {
		exists, err := hasFingerprint(ctx, tx, "problem_scores", key)
		if err != nil || exists {
			return err
		}
		id := uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO problem_scores (problem_score_id, fingerprint, run_id, problem_id, model, difficulty, mean_score, result, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, key, score.RunID, score.ProblemID, score.Model, score.Difficulty,
			score.Result.MeanScore(), string(result), s.timestamp(),
		); err != nil {
			return fmt.Errorf("insert problem score: %w", err)
		}
		step := 0
		for i, sq := range score.Result.SubQuestions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sub_question_scores (problem_score_id, position, sub_question_id, score, shortcut)
				 VALUES (?, ?, ?, ?, ?)`,
				id, i, sq.ID, sq.Score, sq.Shortcut(),
			); err != nil {
				return fmt.Errorf("insert sub-question %s: %w", sq.ID, err)
			}
			for _, st := range sq.Steps {
				var category any
				if st.Analysis.ErrorCategory != nil {
					category = string(*st.Analysis.ErrorCategory)
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO step_scores (problem_score_id, position, sub_question_id, step_id, score,
					   equation_correct, value_correct, error_category, error_explanation)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					id, step, sq.ID, st.ID, st.Score,
					st.Analysis.EquationCorrect, st.Analysis.ValueCorrect, category, st.Analysis.ErrorExplanation,
				); err != nil {
					return fmt.Errorf("insert step %s: %w", st.ID, err)
				}
				step++
			}
		}
		return nil
	})
}

// RecordAnswerCheck stores one row per checked sub-question.
func (s *Store) RecordAnswerCheck(ctx context.Context, check AnswerCheck) error {
	if check.ProblemID == "" {
		return errors.New("store: problem id is required")
	}
	model := check.Evaluation.Model
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i, record := range check.Evaluation.SubQuestions {
			key := fingerprint(check.ProblemID, model, record.ID, record.ActualAnswer, fmt.Sprint(record.Correct))
			exists, err := hasFingerprint(ctx, tx, "answer_checks", key)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO answer_checks (answer_check_id, fingerprint, run_id, problem_id, model, position,
				   sub_question_id, difficulty, correct, actual_answer, expected_answer, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), key, check.RunID, check.ProblemID, model, i,
				record.ID, record.Difficulty, record.Correct, record.ActualAnswer, record.ExpectedAnswer, s.timestamp(),
			); err != nil {
				return fmt.Errorf("insert answer check %s: %w", record.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// hasFingerprint checks table, which is always a package constant.
func hasFingerprint(ctx context.Context, tx *sql.Tx, table, key string) (bool, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE fingerprint = ?", table)
	if err := tx.QueryRowContext(ctx, query, key).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup %s: %w", table, err)
	}
	return n > 0, nil
}

// fingerprint hashes the parts with a separator that cannot appear in JSON text.
func fingerprint(parts ...string) string {
	hash := sha256.New()
	for _, part := range parts {
		hash.Write([]byte(part))
		hash.Write([]byte{0})
	}
	return hex.EncodeToString(hash.Sum(nil))
}
