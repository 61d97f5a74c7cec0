package batch

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestProblemsFiltersByPrefix(t *testing.T) {
	root := newBench(t)
	writeTestFile(t, filepath.Join(root, "cal_problem_9", "readme.txt"), "no gold record")

	ids, err := Layout{Root: root, Prefix: "cal_problem_"}.Problems()
	if err != nil {
		t.Fatalf("problems: %v", err)
	}
	if want := []string{"cal_problem_1", "cal_problem_2"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
}

func TestProblemsMissingRoot(t *testing.T) {
	if _, err := (Layout{Root: filepath.Join(t.TempDir(), "missing")}).Problems(); err == nil {
		t.Fatalf("expected an error for a missing root")
	}
}

func TestPlanSplitsExistingOutputs(t *testing.T) {
	root := newBench(t)
	layout := Layout{Root: root, Prefix: "cal_problem_"}
	writeTestFile(t, filepath.Join(root, "cal_problem_2", stepEvalName), "{}")

	items, err := layout.Items(formattedName, stepEvalName)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	pending, skipped := Plan(items)
	if len(pending) != 1 || pending[0].ProblemID != "cal_problem_1" {
		t.Fatalf("unexpected pending %+v", pending)
	}
	if len(skipped) != 1 || skipped[0].ProblemID != "cal_problem_2" {
		t.Fatalf("unexpected skipped %+v", skipped)
	}
	if pending[0].Output != filepath.Join(root, "cal_problem_1", "deepseek_r1", "step_eval.json") {
		t.Fatalf("unexpected output path %s", pending[0].Output)
	}
}

func TestItemsRequireInput(t *testing.T) {
	root := newBench(t)
	items, err := Layout{Root: root, Prefix: "cal_problem_"}.Items("deepseek_r1/missing.txt", stepEvalName)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %+v", items)
	}
}

func TestNewRunIDWithRand(t *testing.T) {
	seed := bytes.NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15})
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))

	id, err := NewRunIDWithRand(now, seed)
	if err != nil {
		t.Fatalf("run id: %v", err)
	}
	if id != "20260102T020405Z-00010203" {
		t.Fatalf("unexpected run id %s", id)
	}
	if _, err := NewRunIDWithRand(now, bytes.NewReader(nil)); err == nil {
		t.Fatalf("expected an error for an empty random source")
	}
	if _, err := NewRunIDWithRand(now, nil); err == nil {
		t.Fatalf("expected an error for a nil random source")
	}
}

func TestWriteSummaryCounts(t *testing.T) {
	one, half := 1.0, 0.5
	summary := summarize(Summary{
		RunID:   "20260102T030405Z-abcdef01",
		Command: CommandScore,
		Items: []ItemResult{
			{ProblemID: "cal_problem_1", Status: StatusDone, Score: &one},
			{ProblemID: "cal_problem_2", Status: StatusDone, Score: &half},
			{ProblemID: "cal_problem_3", Status: StatusSkipped},
			{ProblemID: "cal_problem_4", Status: StatusFailed, Error: "boom"},
		},
	})
	want := Counts{Total: 4, Done: 2, Skipped: 1, Failed: 1}
	if summary.Counts != want {
		t.Fatalf("expected %+v, got %+v", want, summary.Counts)
	}
	if summary.MeanScore == nil || *summary.MeanScore != 0.75 {
		t.Fatalf("expected mean 0.75, got %v", summary.MeanScore)
	}

	dir := t.TempDir()
	path, err := WriteSummary(dir, summary)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if path != filepath.Join(dir, summary.RunID, SummaryFile) {
		t.Fatalf("unexpected path %s", path)
	}
	content := readTestFile(t, path)
	if !strings.HasSuffix(content, "}\n") {
		t.Fatalf("expected a trailing newline")
	}
	var decoded Summary
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Counts != want || decoded.Items[3].Error != "boom" {
		t.Fatalf("unexpected decoded summary %+v", decoded)
	}
	if _, err := WriteSummary("", summary); err == nil {
		t.Fatalf("expected an error without an output directory")
	}
}
