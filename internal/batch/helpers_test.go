package batch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stepgrade/internal/testutil"
)

const (
	formattedName = "deepseek_r1/formatted.txt"
	rawName       = "deepseek_r1/raw.txt"
	stepEvalName  = "deepseek_r1/step_eval.json"
	answerName    = "deepseek_r1/answer_eval.json"

	formattedResponse = "sub_question_1:\nstep_1: v = g t\nstep_2: v = 10 m/s\nsub_question_1_answer: 10 m/s\n" +
		"sub_question_2:\nstep_3: h = 5 m\nsub_question_2_answer: 5 m\n"
)

func testArtifacts() Artifacts {
	return Artifacts{
		Raw:        rawName,
		Formatted:  formattedName,
		StepEval:   stepEvalName,
		AnswerEval: answerName,
		ModelName:  "deepseek_r1",
	}
}

// newBench builds a root with one valid problem, one invalid problem, and a
// directory outside the prefix.
func newBench(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	gold, err := os.ReadFile("../problem/testdata/cal_problem_1.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	writeTestFile(t, filepath.Join(root, "cal_problem_1", ProblemFile), string(gold))
	writeTestFile(t, filepath.Join(root, "cal_problem_1", formattedName), formattedResponse)
	writeTestFile(t, filepath.Join(root, "cal_problem_1", rawName), "The speed is 10 m/s and it falls 5 m.")

	writeTestFile(t, filepath.Join(root, "cal_problem_2", ProblemFile), `{"answer": ["1"]}`)
	writeTestFile(t, filepath.Join(root, "cal_problem_2", formattedName), formattedResponse)
	writeTestFile(t, filepath.Join(root, "cal_problem_2", rawName), "1")

	writeTestFile(t, filepath.Join(root, "notes", ProblemFile), string(gold))
	return root
}

func newTestEnv(t *testing.T, root string) (*Env, *recordingObserver) {
	t.Helper()
	observer := &recordingObserver{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := 0
	env := &Env{
		Layout:    Layout{Root: root, Prefix: "cal_problem_"},
		Artifacts: testArtifacts(),
		OutputDir: filepath.Join(t.TempDir(), "runs"),
		Observer:  observer,
		NewRunID: func() (string, error) {
			runs++
			return FormatRunID(fixed, string(rune('a'+runs-1))+"0000000"), nil
		},
		Now: func() time.Time { return fixed },
	}
	return env, observer
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	testutil.WriteFile(t, path, content)
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

type recordingObserver struct {
	mu      sync.Mutex
	starts  []string
	events  []ItemEvent
	summary *Summary
}

func (o *recordingObserver) OnRunStart(runID, command string, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts = append(o.starts, command+" "+runID)
}

func (o *recordingObserver) OnItemEvent(event ItemEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) OnRunEnd(summary Summary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.summary = &summary
}

func (o *recordingObserver) count(problemID string, kind ItemEventType) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, event := range o.events {
		if event.ProblemID == problemID && event.Type == kind {
			n++
		}
	}
	return n
}

func statusByID(summary Summary) map[string]Status {
	out := map[string]Status{}
	for _, item := range summary.Items {
		out[item.ProblemID] = item.Status
	}
	return out
}
