// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package executor provides the fixed-size task queue that fans a batch out
// over concurrent workers.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/specialistvlad/radiobatch/internal/ctxlog"
)

// ErrAlreadySubmitted is returned when SubmitAll is called twice on a Queue.
var ErrAlreadySubmitted = errors.New("queue already has a batch submitted")

// DefaultWorkers returns the pool size used when none is configured: the
// available parallelism minus one, and never less than one.
func DefaultWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// Func processes one item. It must not fail: a task reports problems through
// its result value, never by aborting the batch.
type Func[T, R any] func(ctx context.Context, item T) R

type job[T any] struct {
	index int
	item  T
}

// Queue runs one Func invocation per submitted item over a fixed number of
// workers. Usage is SubmitAll once, then AwaitAll once.
//
// A Queue has no cancellation and no per-task timeout. A task that never
// returns stalls its worker, and AwaitAll waits on it forever.
type Queue[T, R any] struct {
	workers int
	fn      Func[T, R]

	mu        sync.Mutex
	submitted bool
	wg        sync.WaitGroup
	results   []R
}

// New returns a queue with the given number of workers. A non-positive
// count selects DefaultWorkers.
func New[T, R any](workers int, fn Func[T, R]) *Queue[T, R] {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return &Queue[T, R]{workers: workers, fn: fn}
}

// Workers returns the pool size.
func (q *Queue[T, R]) Workers() int {
	return q.workers
}

// SubmitAll enqueues every item and starts the workers. It does not block
// on the tasks themselves.
func (q *Queue[T, R]) SubmitAll(ctx context.Context, items []T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.submitted {
		return ErrAlreadySubmitted
	}
	q.submitted = true

	logger := ctxlog.FromContext(ctx)
	q.results = make([]R, len(items))

	jobs := make(chan job[T], len(items))
	for i, item := range items {
		jobs <- job[T]{index: i, item: item}
	}
	close(jobs)

	workers := min(q.workers, max(len(items), 1))
	logger.Debug("Starting workers.", "workers", workers, "tasks", len(items))
	q.wg.Add(workers)
	for id := 1; id <= workers; id++ {
		go q.worker(ctxlog.WithWorker(ctx, fmt.Sprintf("worker-%d", id)), jobs)
	}
	return nil
}

// worker is the processing loop for a single concurrent worker.
func (q *Queue[T, R]) worker(ctx context.Context, jobs <-chan job[T]) {
	defer q.wg.Done()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.")

	for j := range jobs {
		q.results[j.index] = q.fn(ctx, j.item)
	}
	logger.Debug("Worker finished.")
}

// AwaitAll blocks until every submitted task has returned and yields the
// results in submission order.
func (q *Queue[T, R]) AwaitAll() []R {
	q.wg.Wait()
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.results
}
