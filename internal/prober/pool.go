package prober

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Pool runs indexed work items with a hard cap on how many run at once.
//
// Pool implements a worker pool: a fixed number of workers pull indices from
// a shared queue, so a worker that finishes early immediately takes the next
// pending item. Each item is identified only by its index; callers keep
// results in a slice they pre-allocate and let item i write slot i.
type Pool struct {
	limit   int
	limiter *rate.Limiter
}

// NewPool creates a [Pool] running at most limit items concurrently.
//
// If limiter is non-nil, every dispatch additionally waits for a token,
// bounding the launch rate as well as the number in flight.
func NewPool(limit int, limiter *rate.Limiter) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{limit: limit, limiter: limiter}
}

// Limit returns the concurrency cap.
func (p *Pool) Limit() int {
	return p.limit
}

// ErrLaunchDeadline is reported when the launch rate would start the next
// item after the context deadline. It matches context.DeadlineExceeded.
var ErrLaunchDeadline = fmt.Errorf("launch rate would exceed deadline: %w", context.DeadlineExceeded)

// Run calls work(ctx, i) once for every i in [0, n) and blocks until all
// calls have returned.
//
// When ctx ends, or the limiter cannot grant a launch before the ctx
// deadline, no further items are dispatched. Every index that was not
// handed to work is passed to skipped together with the reason, so each
// index is visited by exactly one of the two functions. work and skipped
// may run concurrently with each other for different indices.
//
// Run returns nil if every index reached work, and the reason otherwise.
func (p *Pool) Run(ctx context.Context, n int, work func(ctx context.Context, i int), skipped func(i int, reason error)) error {
	if n <= 0 {
		return nil
	}

	workers := p.limit
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	var skippedAny atomic.Bool

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					skippedAny.Store(true)
					skipped(i, err)
					continue
				}
				work(ctx, i)
			}
		}()
	}

	var stopErr error
	next := 0
dispatch:
	for ; next < n; next++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				stopErr = ctx.Err()
				if stopErr == nil {
					stopErr = ErrLaunchDeadline
				}
				break
			}
		}
		select {
		case jobs <- next:
		case <-ctx.Done():
			stopErr = ctx.Err()
			break dispatch
		}
	}
	close(jobs)

	for i := next; i < n; i++ {
		skipped(i, stopErr)
	}

	wg.Wait()

	if stopErr == nil && skippedAny.Load() {
		stopErr = ctx.Err()
	}
	return stopErr
}
