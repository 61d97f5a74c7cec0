package store

import (
	"path/filepath"
	"testing"
	"time"

	"stepgrade/internal/answers"
	"stepgrade/internal/scoring"
	"stepgrade/internal/taxonomy"
	"stepgrade/internal/testutil"
)

var drivers = []string{DriverSQLite, DriverDuckDB}

func openTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	s, err := Open(testutil.Context(t, 0), driver, filepath.Join(t.TempDir(), "data", "results.db"))
	if err != nil {
		t.Fatalf("open %s: %v", driver, err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleScore() ProblemScore {
	category := taxonomy.CalculationProcess
	return ProblemScore{
		RunID:      "20260301T120000Z-a0000000",
		ProblemID:  "cal_problem_1",
		Model:      "deepseek_r1",
		Difficulty: "easy",
		Result: scoring.ProblemResult{SubQuestions: []scoring.SubQuestionResult{
			{ID: "sub_question_1", Score: 1, Steps: scoring.StepResults{}},
			{ID: "sub_question_2", Score: 0.25, Steps: scoring.StepResults{
				{ID: "step_3", Score: 0.5, Analysis: scoring.StepEvaluation{EquationCorrect: true, MissingAspects: []scoring.Aspect{}}},
				{ID: "step_4", Score: 0, Analysis: scoring.StepEvaluation{
					MissingAspects:   []scoring.Aspect{},
					ErrorCategory:    &category,
					ErrorExplanation: "the sign is flipped",
				}},
			}},
		}},
	}
}

func sampleCheck() AnswerCheck {
	return AnswerCheck{
		RunID:     "20260301T120000Z-b0000000",
		ProblemID: "cal_problem_1",
		Evaluation: answers.Evaluation{Model: "deepseek_r1", SubQuestions: []answers.Record{
			{ID: "sub_question_1", Correct: true, ActualAnswer: "10 m/s", ExpectedAnswer: "10 m/s", Difficulty: "easy"},
			{ID: "sub_question_2", Correct: false, ActualAnswer: "6", ExpectedAnswer: "5", Difficulty: "easy"},
		}},
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(testutil.Context(t, 0), "postgres", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatalf("expected an error for an unknown driver")
	}
	if _, err := Open(testutil.Context(t, 0), DriverSQLite, ""); err == nil {
		t.Fatalf("expected an error for an empty path")
	}
}

func TestRecordAndSummarize(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s := openTestStore(t, driver)
			ctx := testutil.Context(t, 0)
			run := Run{ID: "20260301T120000Z-a0000000", Command: "score", Root: "/bench", Model: "deepseek_r1", StartedAt: time.Now()}
			if err := s.RecordRun(ctx, run); err != nil {
				t.Fatalf("record run: %v", err)
			}
			if err := s.RecordRun(ctx, run); err != nil {
				t.Fatalf("record run twice: %v", err)
			}
			if err := s.RecordProblemScore(ctx, sampleScore()); err != nil {
				t.Fatalf("record score: %v", err)
			}
			if err := s.RecordAnswerCheck(ctx, sampleCheck()); err != nil {
				t.Fatalf("record answers: %v", err)
			}

			summary, err := s.Summary(ctx)
			if err != nil {
				t.Fatalf("summary: %v", err)
			}
			if len(summary) != 1 {
				t.Fatalf("expected one difficulty, got %+v", summary)
			}
			got := summary[0]
			if got.Difficulty != "easy" || got.SubQuestions != 2 || got.Shortcut != 1 || got.MeanScore != 0.625 {
				t.Fatalf("unexpected score summary %+v", got)
			}
			if got.Answered != 2 || got.Correct != 1 || got.AnswerAccuracy() != 50 {
				t.Fatalf("unexpected answer summary %+v", got)
			}
		})
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s := openTestStore(t, driver)
			ctx := testutil.Context(t, 0)
			for i := 0; i < 2; i++ {
				if err := s.RecordProblemScore(ctx, sampleScore()); err != nil {
					t.Fatalf("record score: %v", err)
				}
				if err := s.RecordAnswerCheck(ctx, sampleCheck()); err != nil {
					t.Fatalf("record answers: %v", err)
				}
			}
			detail, err := s.Problem(ctx, "cal_problem_1")
			if err != nil {
				t.Fatalf("problem: %v", err)
			}
			if len(detail.Scores) != 1 || len(detail.Answers) != 2 {
				t.Fatalf("expected one score and two answers, got %d and %d", len(detail.Scores), len(detail.Answers))
			}
		})
	}
}

func TestProblemDetail(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s := openTestStore(t, driver)
			ctx := testutil.Context(t, 0)
			if err := s.RecordProblemScore(ctx, sampleScore()); err != nil {
				t.Fatalf("record score: %v", err)
			}

			detail, err := s.Problem(ctx, "cal_problem_1")
			if err != nil {
				t.Fatalf("problem: %v", err)
			}
			if !detail.Found() || len(detail.Scores) != 1 {
				t.Fatalf("expected a stored score, got %+v", detail)
			}
			score := detail.Scores[0]
			if score.MeanScore != 0.625 || len(score.SubQuestions) != 2 {
				t.Fatalf("unexpected score %+v", score)
			}
			first, second := score.SubQuestions[0], score.SubQuestions[1]
			if first.SubQuestionID != "sub_question_1" || !first.Shortcut || len(first.Steps) != 0 {
				t.Fatalf("unexpected first sub-question %+v", first)
			}
			if len(second.Steps) != 2 || second.Steps[0].StepID != "step_3" || !second.Steps[0].EquationCorrect {
				t.Fatalf("unexpected steps %+v", second.Steps)
			}
			if second.Steps[1].ErrorCategory != string(taxonomy.CalculationProcess) || second.Steps[1].ErrorExplanation != "the sign is flipped" {
				t.Fatalf("unexpected failed step %+v", second.Steps[1])
			}
			if second.Steps[0].ErrorCategory != "" {
				t.Fatalf("expected no category on a partially correct step")
			}

			missing, err := s.Problem(ctx, "cal_problem_404")
			if err != nil {
				t.Fatalf("missing problem: %v", err)
			}
			if missing.Found() {
				t.Fatalf("expected nothing stored for an unknown problem")
			}
		})
	}
}
