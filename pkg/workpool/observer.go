package workpool

import (
	"math/rand"
	"time"
)

// Observer receives job lifecycle events. Calls come from worker goroutines.
type Observer interface {
	// OnJobStart signals a job is about to run.
	OnJobStart(job Job, worker int)
	// OnJobDone signals a job finished, failed or was dropped on cancellation.
	OnJobDone(job Job, worker int, err error, elapsed time.Duration)
}

// NoopObserver ignores every event.
type NoopObserver struct{}

func (NoopObserver) OnJobStart(Job, int)                      {}
func (NoopObserver) OnJobDone(Job, int, error, time.Duration) {}

// Shuffle permutes jobs in place so consecutive items spread across workers.
func Shuffle(jobs []Job, seed int64) {
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(jobs), func(i, j int) {
		jobs[i], jobs[j] = jobs[j], jobs[i]
	})
}
