package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stepgrade/internal/testutil"
)

type watchResult struct {
	summary Summary
	err     error
}

// TestWatchScoresNewArtifacts verifies pending items at start and new
// formatted artifacts are both scored.
func TestWatchScoresNewArtifacts(t *testing.T) {
	root := newBench(t)
	gold := readTestFile(t, filepath.Join(root, "cal_problem_1", ProblemFile))
	writeTestFile(t, filepath.Join(root, "cal_problem_3", ProblemFile), gold)
	env, observer := newTestEnv(t, root)

	ctx, cancel := context.WithCancel(testutil.Context(t, 10*time.Second))
	defer cancel()
	ready := make(chan struct{})
	done := make(chan watchResult, 1)
	go func() {
		summary, err := env.Watch(ctx, WatchOptions{
			Score:    ScoreOptions{Oracle: acceptingOracle()},
			Debounce: 20 * time.Millisecond,
			Ready:    func() { close(ready) },
		})
		done <- watchResult{summary: summary, err: err}
	}()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not become ready")
	}
	existing := filepath.Join(root, "cal_problem_1", stepEvalName)
	testutil.Eventually(t, 5*time.Second, 10*time.Millisecond, func() bool {
		_, err := os.Stat(existing)
		return err == nil
	}, "expected the pending item to be scored")

	writeTestFile(t, filepath.Join(root, "cal_problem_3", formattedName), formattedResponse)
	created := filepath.Join(root, "cal_problem_3", stepEvalName)
	testutil.Eventually(t, 5*time.Second, 10*time.Millisecond, func() bool {
		_, err := os.Stat(created)
		return err == nil
	}, "expected the new artifact to be scored")

	cancel()
	var result watchResult
	select {
	case result = <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop")
	}
	if result.err != nil {
		t.Fatalf("watch: %v", result.err)
	}
	got := statusByID(result.summary)
	if got["cal_problem_1"] != StatusDone || got["cal_problem_3"] != StatusDone {
		t.Fatalf("unexpected statuses %v", got)
	}
	if result.summary.Command != CommandWatch {
		t.Fatalf("unexpected command %s", result.summary.Command)
	}
	if observer.count("cal_problem_3", ItemDone) != 1 {
		t.Fatalf("expected one done event for the new artifact")
	}
}

func TestArtifactDirs(t *testing.T) {
	item := Layout{Root: "/bench"}.Item("cal_problem_1", "model/nested/formatted.txt", "out.json")
	want := []string{
		filepath.Join("/bench", "cal_problem_1"),
		filepath.Join("/bench", "cal_problem_1", "model"),
		filepath.Join("/bench", "cal_problem_1", "model", "nested"),
	}
	got := artifactDirs(item)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
