package workerpool

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Start on a running pool.
	ErrAlreadyRunning = errors.New("pool already running")

	// ErrNotRunning is returned when queueing to or stopping an idle pool.
	ErrNotRunning = errors.New("pool not running")

	// ErrStopped is returned by Start after the pool has been stopped.
	ErrStopped = errors.New("pool stopped")

	// ErrQueueFull is returned when the queue is at capacity.
	ErrQueueFull = errors.New("pool queue full")

	// ErrNilTask is returned when queueing a nil task.
	ErrNilTask = errors.New("nil task")
)

// PanicError is reported as the task error when a task body panics.
type PanicError struct {
	Task  string
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task %q panicked: %v", e.Task, e.Value)
}
