// File: internal/concurrency/executor.go
// Package concurrency implements the task executor connections run on.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor starts one goroutine per task. Connection tasks block for the
// lifetime of their socket, so tasks are never queued behind each other;
// an optional limit bounds how many run at once.

package concurrency

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/momentics/wsengine/api"
)

// TaskFunc is a unit of work to execute.
type TaskFunc = func()

// Executor runs submitted tasks concurrently and tracks them until they
// return. It implements api.Executor.
type Executor struct {
	limit int64
	log   *slog.Logger

	mu     sync.RWMutex // orders wg.Add against Close
	wg     sync.WaitGroup
	closed atomic.Bool

	running        atomic.Int64
	totalTasks     atomic.Int64
	completedTasks atomic.Int64
	panickedTasks  atomic.Int64
	rejectedTasks  atomic.Int64
}

var _ api.Executor = (*Executor)(nil)

// NewExecutor creates an Executor. maxTasks <= 0 means unbounded.
// A nil logger falls back to slog.Default().
func NewExecutor(maxTasks int, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{limit: int64(maxTasks), log: log}
}

// Submit starts task on a new goroutine. It returns ErrExecutorClosed
// after Close and api.ErrResourceExhausted when the limit is reached.
func (e *Executor) Submit(task TaskFunc) error {
	if task == nil {
		return api.ErrInvalidArgument
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	if n := e.running.Add(1); e.limit > 0 && n > e.limit {
		e.running.Add(-1)
		e.rejectedTasks.Add(1)
		return api.ErrResourceExhausted
	}
	e.totalTasks.Add(1)
	e.wg.Add(1)
	go e.execute(task)
	return nil
}

// execute runs the task and updates statistics, recovering from panics.
func (e *Executor) execute(task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			e.panickedTasks.Add(1)
			e.log.Error("executor: task panicked", "panic", r)
		}
		e.running.Add(-1)
		e.completedTasks.Add(1)
		e.wg.Done()
	}()
	task()
}

// NumWorkers returns the number of tasks currently running.
func (e *Executor) NumWorkers() int {
	return int(e.running.Load())
}

// Close stops accepting tasks. Running tasks are not interrupted; use
// Wait to block until they finish. Safe to call more than once.
func (e *Executor) Close() {
	e.mu.Lock()
	e.closed.Store(true)
	e.mu.Unlock()
}

// Wait blocks until every submitted task returned or ctx is done.
func (e *Executor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	return map[string]int64{
		"total_tasks":     e.totalTasks.Load(),
		"completed_tasks": e.completedTasks.Load(),
		"running_tasks":   e.running.Load(),
		"panicked_tasks":  e.panickedTasks.Load(),
		"rejected_tasks":  e.rejectedTasks.Load(),
	}
}
