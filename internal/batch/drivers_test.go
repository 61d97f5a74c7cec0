package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stepgrade/internal/answers"
	"stepgrade/internal/oracle"
	"stepgrade/internal/oracle/oracletest"
	"stepgrade/internal/scoring"
	"stepgrade/internal/testutil"
)

func acceptingOracle() *oracletest.Fake {
	return &oracletest.Fake{OnJudge: func(kind oracle.JudgeKind, _, _ string, _ oracle.Context) oracle.Result[bool] {
		return oracle.Success(kind == oracle.JudgeAnswer)
	}}
}

// TestScoreWritesResultsAndSkipsOnRerun verifies outputs, summaries, and that
// a second run leaves existing results untouched.
func TestScoreWritesResultsAndSkipsOnRerun(t *testing.T) {
	root := newBench(t)
	env, observer := newTestEnv(t, root)
	fake := acceptingOracle()

	summary, err := env.Score(testutil.Context(t, 0), ScoreOptions{Oracle: fake})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if summary.Counts.Total != 2 || summary.Counts.Done != 1 || summary.Counts.Invalid != 1 {
		t.Fatalf("unexpected counts %+v", summary.Counts)
	}
	if got := statusByID(summary); got["cal_problem_1"] != StatusDone || got["cal_problem_2"] != StatusInvalid {
		t.Fatalf("unexpected statuses %v", got)
	}
	if summary.MeanScore == nil || *summary.MeanScore != 1 {
		t.Fatalf("expected mean score 1, got %v", summary.MeanScore)
	}
	if len(summary.Stats) != 1 || summary.Stats[0].Correct != 2 || summary.Stats[0].Total != 2 {
		t.Fatalf("unexpected stats %+v", summary.Stats)
	}

	output := filepath.Join(root, "cal_problem_1", stepEvalName)
	written := readTestFile(t, output)
	var result scoring.ProblemResult
	if err := json.Unmarshal([]byte(written), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if sq, ok := result.Get("sub_question_1"); !ok || sq.Score != 1 || !sq.Shortcut() {
		t.Fatalf("unexpected sub-question result %+v", sq)
	}
	if _, err := os.Stat(filepath.Join(root, "cal_problem_2", stepEvalName)); !os.IsNotExist(err) {
		t.Fatalf("expected no output for the invalid problem, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.OutputDir, summary.RunID, SummaryFile)); err != nil {
		t.Fatalf("expected summary file: %v", err)
	}
	if observer.summary == nil || observer.summary.RunID != summary.RunID {
		t.Fatalf("expected run end to be observed")
	}

	calls := fake.Count(oracle.OpJudgeAnswer)
	again, err := env.Score(testutil.Context(t, 0), ScoreOptions{Oracle: fake})
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if again.Counts.Skipped != 1 || again.Counts.Invalid != 1 || again.Counts.Done != 0 {
		t.Fatalf("unexpected rerun counts %+v", again.Counts)
	}
	if again.RunID == summary.RunID {
		t.Fatalf("expected a fresh run id")
	}
	if fake.Count(oracle.OpJudgeAnswer) != calls {
		t.Fatalf("expected no oracle calls for skipped items")
	}
	if readTestFile(t, output) != written {
		t.Fatalf("expected the existing result to be untouched")
	}
}

// TestScoreReportsSteps verifies step events when the shortcut fails.
func TestScoreReportsSteps(t *testing.T) {
	root := newBench(t)
	env, observer := newTestEnv(t, root)
	var graded []string
	opts := ScoreOptions{
		Oracle: &oracletest.Fake{},
		OnStep: func(_, _ string, step scoring.StepResult) {
			graded = append(graded, step.ID)
		},
	}

	summary, err := env.Score(testutil.Context(t, 0), opts)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if got := observer.count("cal_problem_1", ItemStep); got != 3 {
		t.Fatalf("expected 3 step events, got %d", got)
	}
	if len(graded) != 3 || graded[0] != "step_1" || graded[2] != "step_3" {
		t.Fatalf("unexpected graded steps %v", graded)
	}
	if summary.Stats[0].Correct != 0 {
		t.Fatalf("expected no correct sub-questions, got %+v", summary.Stats)
	}
}

// TestScoreCancelled verifies an interrupted run still writes its summary.
func TestScoreCancelled(t *testing.T) {
	root := newBench(t)
	env, _ := newTestEnv(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := env.Score(ctx, ScoreOptions{Oracle: acceptingOracle()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Counts.Total != 0 {
		t.Fatalf("expected no recorded items, got %+v", summary.Counts)
	}
	if _, err := os.Stat(filepath.Join(root, "cal_problem_1", stepEvalName)); !os.IsNotExist(err) {
		t.Fatalf("expected no output after cancellation")
	}
	if _, err := os.Stat(filepath.Join(env.OutputDir, summary.RunID, SummaryFile)); err != nil {
		t.Fatalf("expected summary file: %v", err)
	}
}

// TestAnswersWritesEvaluation verifies answer records and the item score.
func TestAnswersWritesEvaluation(t *testing.T) {
	root := newBench(t)
	env, _ := newTestEnv(t, root)
	fake := &oracletest.Fake{
		OnExtractAnswer: func(_, _ string, n int) oracle.Result[string] {
			if n == 1 {
				return oracle.Success("10 m/s")
			}
			return oracle.Success("6")
		},
		OnJudge: func(_ oracle.JudgeKind, actual, expected string, _ oracle.Context) oracle.Result[bool] {
			return oracle.Success(actual == expected)
		},
	}

	summary, err := env.Answers(testutil.Context(t, 0), AnswersOptions{Oracle: fake})
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	if summary.Counts.Done != 1 || summary.Counts.Invalid != 1 {
		t.Fatalf("unexpected counts %+v", summary.Counts)
	}
	if summary.MeanScore == nil || *summary.MeanScore != 0.5 {
		t.Fatalf("expected mean 0.5, got %v", summary.MeanScore)
	}

	var eval answers.Evaluation
	if err := json.Unmarshal([]byte(readTestFile(t, filepath.Join(root, "cal_problem_1", answerName))), &eval); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if eval.Model != "deepseek_r1" || len(eval.SubQuestions) != 2 || !eval.SubQuestions[0].Correct || eval.SubQuestions[1].Correct {
		t.Fatalf("unexpected evaluation %+v", eval)
	}
}

// TestFormatRunsWorkers verifies parallel reformatting with per-item failures.
func TestFormatRunsWorkers(t *testing.T) {
	root := newBench(t)
	for _, id := range []string{"cal_problem_1", "cal_problem_2"} {
		if err := os.Remove(filepath.Join(root, id, formattedName)); err != nil {
			t.Fatalf("remove: %v", err)
		}
	}
	gold := readTestFile(t, filepath.Join(root, "cal_problem_1", ProblemFile))
	writeTestFile(t, filepath.Join(root, "cal_problem_3", ProblemFile), gold)
	writeTestFile(t, filepath.Join(root, "cal_problem_3", rawName), "fail")
	env, _ := newTestEnv(t, root)

	reformat := func(raw string, _ map[string]string) oracle.Result[string] {
		if raw == "fail" {
			return oracletest.Permanent[string]("rejected")
		}
		return oracle.Success(formattedResponse)
	}
	first := &oracletest.Fake{OnReformat: reformat}
	second := &oracletest.Fake{OnReformat: reformat}

	summary, err := env.Format(testutil.Context(t, 0), FormatOptions{Reformatters: []oracle.Reformatter{first, second}, Seed: 7})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	got := statusByID(summary)
	if got["cal_problem_1"] != StatusDone || got["cal_problem_2"] != StatusInvalid || got["cal_problem_3"] != StatusFailed {
		t.Fatalf("unexpected statuses %v", got)
	}
	if calls := first.Count(oracle.OpReformat) + second.Count(oracle.OpReformat); calls != 2 {
		t.Fatalf("expected 2 reformat calls, got %d", calls)
	}
	if readTestFile(t, filepath.Join(root, "cal_problem_1", formattedName)) != formattedResponse {
		t.Fatalf("unexpected formatted artifact")
	}
	if _, err := os.Stat(filepath.Join(root, "cal_problem_3", formattedName)); !os.IsNotExist(err) {
		t.Fatalf("expected no artifact for the failed item")
	}
}

// TestFormatNeedsReformatters verifies the credential check.
func TestFormatNeedsReformatters(t *testing.T) {
	env, _ := newTestEnv(t, newBench(t))
	if _, err := env.Format(context.Background(), FormatOptions{}); !errors.Is(err, oracle.ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}
