package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"stepgrade/internal/verbose"
)

// DefaultDebounce is the quiet period after the last write to a formatted
// artifact before it is scored.
const DefaultDebounce = 500 * time.Millisecond

// WatchOptions configures watch mode.
type WatchOptions struct {
	Score    ScoreOptions
	Debounce time.Duration
	// Ready is called once every existing directory is watched.
	Ready func()
}

// watchState tracks directories and problems awaiting their debounce.
type watchState struct {
	env     *Env
	watcher *fsnotify.Watcher
	scorer  *scorer
	due     map[string]time.Time
	watched map[string]bool
	next    int
}

// Watch scores formatted artifacts as they appear until ctx is done. Problems
// already formatted but not scored are picked up at start. The same
// skip-if-exists rule as Score applies.
func (e *Env) Watch(ctx context.Context, opts WatchOptions) (Summary, error) {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Summary{}, fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	run, err := e.begin(ctx, CommandWatch, nil, nil)
	if err != nil {
		return Summary{}, err
	}
	w := &watchState{
		env:     e,
		watcher: watcher,
		scorer:  e.newScorer(run, opts.Score),
		due:     map[string]time.Time{},
		watched: map[string]bool{},
	}
	if err := w.add(e.Layout.Root); err != nil {
		return Summary{}, err
	}
	ids, err := e.Layout.Problems()
	if err != nil {
		return Summary{}, err
	}
	for _, id := range ids {
		w.watchProblem(id, e.now())
	}
	if opts.Ready != nil {
		opts.Ready()
	}
	e.Logger.Logf(verbose.StyleTask, "watching %s (%d problems, debounce %s)", e.Layout.Root, len(ids), debounce)

	tick := max(debounce/5, 10*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return run.end()
		case event, ok := <-watcher.Events:
			if !ok {
				summary, _ := run.end()
				return summary, fmt.Errorf("watcher events channel closed")
			}
			w.handle(event, e.now().Add(debounce))
		case err, ok := <-watcher.Errors:
			if !ok {
				summary, _ := run.end()
				return summary, fmt.Errorf("watcher errors channel closed")
			}
			e.Logger.Errorf("watch: %v", err)
		case <-ticker.C:
			w.flush(ctx, e.now())
		}
	}
}

func (w *watchState) add(dir string) error {
	if w.watched[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watched[dir] = true
	return nil
}

// watchProblem watches a problem directory and every existing directory on the
// way to its formatted artifact, and queues the artifact if it already exists.
func (w *watchState) watchProblem(id string, due time.Time) {
	item := w.env.Layout.Item(id, w.env.Artifacts.Formatted, w.env.Artifacts.StepEval)
	for _, dir := range artifactDirs(item) {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			break
		}
		if err := w.add(dir); err != nil {
			w.env.Logger.Errorf("%v", err)
			return
		}
	}
	if fileExists(item.Input) && !fileExists(item.Output) {
		w.due[id] = due
	}
}

// artifactDirs lists the problem directory and its descendants down to the
// directory holding the formatted artifact.
func artifactDirs(item Item) []string {
	dirs := []string{item.Dir}
	rel, err := filepath.Rel(item.Dir, filepath.Dir(item.Input))
	if err != nil || rel == "." {
		return dirs
	}
	current := item.Dir
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		dirs = append(dirs, current)
	}
	return dirs
}

// handle maps a filesystem event to a problem and schedules it.
func (w *watchState) handle(event fsnotify.Event, due time.Time) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	rel, err := filepath.Rel(w.env.Layout.Root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	id := strings.Split(rel, string(filepath.Separator))[0]
	if !strings.HasPrefix(id, w.env.Layout.Prefix) {
		return
	}
	item := w.env.Layout.Item(id, w.env.Artifacts.Formatted, w.env.Artifacts.StepEval)
	switch {
	case filepath.Clean(event.Name) == item.Input:
		w.env.Logger.Logf(verbose.StyleDefault, "%s: formatted response changed", id)
		w.due[id] = due
	case isDir(event.Name) || filepath.Base(event.Name) == ProblemFile:
		w.watchProblem(id, due)
	}
}

// flush scores every problem whose debounce has elapsed.
func (w *watchState) flush(ctx context.Context, now time.Time) {
	for id, due := range w.due {
		if due.After(now) || ctx.Err() != nil {
			continue
		}
		delete(w.due, id)
		item := w.env.Layout.Item(id, w.env.Artifacts.Formatted, w.env.Artifacts.StepEval)
		if !fileExists(item.ProblemPath) || !fileExists(item.Input) {
			continue
		}
		if fileExists(item.Output) {
			w.scorer.run.finish(w.next, ItemResult{ProblemID: id, Status: StatusSkipped})
			w.next++
			continue
		}
		w.scorer.score(ctx, w.next, item)
		w.next++
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
