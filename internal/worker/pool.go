// Package worker provides a bounded pool for background jobs. Webhook
// handlers hand work to the pool and acknowledge the caller immediately;
// job failures are logged, never surfaced to the event source.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a named unit of background work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs jobs on a fixed number of workers fed by a bounded queue,
// which keeps event bursts from fanning out into unbounded goroutines.
type Pool struct {
	jobs   chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool starts a pool with the given worker count and queue capacity.
func NewPool(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		jobs:   make(chan Job, queueSize),
		logger: logger,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit enqueues a job. It returns false without blocking when the queue
// is full or the pool has been stopped; the caller decides whether that
// matters (webhook handlers just log and ack).
func (p *Pool) Submit(name string, run func(ctx context.Context) error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	select {
	case p.jobs <- Job{Name: name, Run: run}:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for queued jobs to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobs {
		p.run(job)
	}
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked", "job", job.Name, "panic", r)
		}
	}()

	start := time.Now()
	if err := job.Run(context.Background()); err != nil {
		p.logger.Error("job failed", "job", job.Name, "error", err, "duration", time.Since(start))
		return
	}

	p.logger.Debug("job finished", "job", job.Name, "duration", time.Since(start))
}
