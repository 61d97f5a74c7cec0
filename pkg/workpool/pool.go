// Package workpool runs independent jobs on a fixed number of workers. A job
// failure, including a panic, is reported for that job only and never stops
// the pool.
package workpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// errClosed is returned by submit once the pool stops accepting jobs.
var errClosed = errors.New("workpool: pool is closed")

// Job is one unit of work. Worker is the zero-based index of the worker
// running it, stable for the worker's lifetime.
type Job struct {
	ID  string
	Run func(ctx context.Context, worker int) error
}

// pool dispatches submitted jobs to its workers.
type pool struct {
	observer Observer

	workCh chan Job
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	now func() time.Time
}

func newPool(parent context.Context, workers int, observer Observer) *pool {
	if workers <= 0 {
		workers = 1
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	ctx, cancel := context.WithCancel(parent)
	p := &pool{
		observer: observer,
		workCh:   make(chan Job, workers*4),
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// submit enqueues a job, blocking while the queue is full.
func (p *pool) submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed
	}
	select {
	case p.workCh <- job:
		return nil
	case <-p.ctx.Done():
		return errClosed
	}
}

// stop stops accepting jobs; queued jobs still run.
func (p *pool) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.workCh)
}

// wait blocks until every worker has exited. Call stop first.
func (p *pool) wait() {
	p.wg.Wait()
	p.cancel()
}

// worker consumes jobs until the queue closes.
func (p *pool) worker(index int) {
	defer p.wg.Done()
	for job := range p.workCh {
		p.handleJob(job, index)
	}
}

// handleJob runs one job and reports it to the observer.
func (p *pool) handleJob(job Job, worker int) {
	if err := p.ctx.Err(); err != nil {
		p.observer.OnJobDone(job, worker, err, 0)
		return
	}
	p.observer.OnJobStart(job, worker)
	start := p.now()
	err := runJob(p.ctx, job, worker)
	p.observer.OnJobDone(job, worker, err, p.now().Sub(start))
}

func runJob(ctx context.Context, job Job, worker int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()
	if job.Run == nil {
		return nil
	}
	return job.Run(ctx, worker)
}

// Run executes every job and returns the errors index-aligned with jobs.
// Cancelling ctx cancels running jobs and fails the ones not yet started.
func Run(ctx context.Context, workers int, jobs []Job, observer Observer) []error {
	errs := make([]error, len(jobs))
	ran := make([]bool, len(jobs))
	p := newPool(ctx, workers, observer)
	for i, job := range jobs {
		wrapped := Job{ID: job.ID, Run: func(ctx context.Context, worker int) error {
			ran[i] = true
			errs[i] = runJob(ctx, job, worker)
			return errs[i]
		}}
		if err := p.submit(wrapped); err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			errs[i] = err
		}
	}
	p.stop()
	p.wait()
	for i := range errs {
		if !ran[i] && errs[i] == nil && ctx.Err() != nil {
			errs[i] = ctx.Err()
		}
	}
	return errs
}
