package batch

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"stepgrade/internal/stats"
)

// SummaryFile is written into each run directory.
const SummaryFile = "summary.json"

// Status is the outcome of one item in a run.
type Status string

const (
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	StatusInvalid Status = "invalid"
)

// ItemResult records what happened to one item.
type ItemResult struct {
	ProblemID  string   `json:"problem_id"`
	Status     Status   `json:"status"`
	Error      string   `json:"error,omitempty"`
	Score      *float64 `json:"score,omitempty"`
	DurationMs int64    `json:"duration_ms"`
}

// Counts tallies item statuses.
type Counts struct {
	Total   int `json:"total"`
	Done    int `json:"done"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Invalid int `json:"invalid"`
}

// Summary is the record of one batch run.
type Summary struct {
	RunID      string         `json:"run_id"`
	Command    string         `json:"command"`
	Root       string         `json:"root"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Items      []ItemResult   `json:"items"`
	Counts     Counts         `json:"counts"`
	Stats      []stats.Bucket `json:"stats"`
	MeanScore  *float64       `json:"mean_score,omitempty"`
}

// summarize fills counts and the mean of scored items.
func summarize(summary Summary) Summary {
	counts := Counts{Total: len(summary.Items)}
	total, scored := 0.0, 0
	for _, item := range summary.Items {
		switch item.Status {
		case StatusDone:
			counts.Done++
		case StatusSkipped:
			counts.Skipped++
		case StatusFailed:
			counts.Failed++
		case StatusInvalid:
			counts.Invalid++
		}
		if item.Score != nil {
			total += *item.Score
			scored++
		}
	}
	summary.Counts = counts
	if scored > 0 {
		mean := total / float64(scored)
		summary.MeanScore = &mean
	}
	return summary
}

// NewRunID returns "YYYYMMDDTHHMMSSZ-<8 hex>".
func NewRunID() (string, error) {
	return NewRunIDWithRand(time.Now().UTC(), rand.Reader)
}

// NewRunIDWithRand builds a run id from a clock reading and a random source.
func NewRunIDWithRand(now time.Time, r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("random reader is nil")
	}
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return FormatRunID(now, hex.EncodeToString(id[:4])), nil
}

// FormatRunID joins a UTC timestamp and a suffix.
func FormatRunID(now time.Time, suffix string) string {
	return now.UTC().Format("20060102T150405Z") + "-" + suffix
}

// WriteSummary writes <outputDir>/<run_id>/summary.json and returns its path.
func WriteSummary(outputDir string, summary Summary) (string, error) {
	if outputDir == "" {
		return "", fmt.Errorf("output directory is required")
	}
	path := filepath.Join(outputDir, summary.RunID, SummaryFile)
	if err := writeJSON(path, summary); err != nil {
		return "", err
	}
	return path, nil
}

// writeJSON writes pretty JSON through a temp file so readers never see a
// partial document.
func writeJSON(path string, value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return writeFileAtomic(path, append(payload, '\n'))
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
