// Package batch drives scoring, answer checking and reformatting over a
// benchmark root: one directory per problem holding problem.json and its
// response artifacts. Existing outputs are never recomputed.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ProblemFile is the gold record inside every problem directory.
const ProblemFile = "problem.json"

// Artifacts are the per-problem file paths, relative to the problem directory.
type Artifacts struct {
	Raw        string
	Formatted  string
	StepEval   string
	AnswerEval string
	ModelName  string
}

// Layout describes where problems live.
type Layout struct {
	Root   string
	Prefix string
}

// Item is one (problem, input artifact, output artifact) triple.
type Item struct {
	ProblemID   string
	Dir         string
	ProblemPath string
	Input       string
	Output      string
}

// Problems lists problem directory names under the root that match the prefix
// and contain problem.json, sorted by name.
func (l Layout) Problems() ([]string, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		return nil, fmt.Errorf("read root %s: %w", l.Root, err)
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), l.Prefix) {
			continue
		}
		if !fileExists(filepath.Join(l.Root, entry.Name(), ProblemFile)) {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Item builds the item of one problem directory.
func (l Layout) Item(problemID, input, output string) Item {
	dir := filepath.Join(l.Root, problemID)
	return Item{
		ProblemID:   problemID,
		Dir:         dir,
		ProblemPath: filepath.Join(dir, ProblemFile),
		Input:       filepath.Join(dir, filepath.FromSlash(input)),
		Output:      filepath.Join(dir, filepath.FromSlash(output)),
	}
}

// Items lists the problems whose input artifact exists.
func (l Layout) Items(input, output string) ([]Item, error) {
	ids, err := l.Problems()
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		item := l.Item(id, input, output)
		if !fileExists(item.Input) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Plan splits items into pending work and items whose output already exists.
func Plan(items []Item) (pending, skipped []Item) {
	for _, item := range items {
		if fileExists(item.Output) {
			skipped = append(skipped, item)
			continue
		}
		pending = append(pending, item)
	}
	return pending, skipped
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
