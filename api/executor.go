// Package api
// Author: momentics
//
// Executor contract for launching per-connection receive loops and the
// listener's accept loop. The listener owns and injects it; nothing in the
// engine spawns goroutines through a process-wide singleton.

package api

// Executor abstracts how long-running connection tasks are started.
type Executor interface {
	// Submit schedules task for execution. It returns ErrExecutorClosed once
	// the executor stopped accepting work.
	Submit(task func()) error

	// NumWorkers returns the number of tasks currently running.
	NumWorkers() int
}
