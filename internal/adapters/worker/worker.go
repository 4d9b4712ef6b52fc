// Package worker runs batches of independent tasks on a bounded number of
// goroutines.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/okian/sniped/pkg/logger"
	"github.com/okian/sniped/pkg/metrics"
)

// Task results used as metric labels.
const (
	resultOK        = "ok"
	resultError     = "error"
	resultCancelled = "cancelled"
)

// Task processes job i of a batch.
type Task func(ctx context.Context, i int) error

// Pool runs batches with at most size tasks in flight.
type Pool struct {
	size int
	name string
	log  logger.Logger
}

// New creates a pool. A size below one runs tasks one at a time.
func New(size int, opts ...Option) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{size: size, name: "worker"}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get().Named(p.name)
	}
	return p
}

// Size returns the maximum number of concurrent tasks.
func (p *Pool) Size() int { return p.size }

// Run calls task for every i in [0, n) and waits for all of them. The first
// task error cancels the jobs not yet started and is returned unchanged.
// When ctx ends first, its error is returned.
func (p *Pool) Run(ctx context.Context, n int, task Task) error {
	if n <= 0 {
		return ctx.Err()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	jobs := make(chan int)

	workers := p.size
	if workers > n {
		workers = n
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if runCtx.Err() != nil {
					metrics.RecordWorkerTask(p.name, resultCancelled, 0)
					continue
				}
				start := time.Now()
				err := task(runCtx, i)
				latency := float64(time.Since(start).Milliseconds())
				if err == nil {
					metrics.RecordWorkerTask(p.name, resultOK, latency)
					continue
				}
				metrics.RecordWorkerTask(p.name, resultError, latency)
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		p.log.Debug(ctx, "batch aborted", logger.Int("jobs", n), logger.Error(firstErr))
		return firstErr
	}
	return ctx.Err()
}
