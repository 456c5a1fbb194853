// Package workerpool runs tasks on a fixed set of goroutines.
//
// A Pool has a bounded queue. Queue never blocks; it fails with
// ErrQueueFull when the queue is at capacity. Stop returns immediately:
// the run context is cancelled, tasks that never started are reported as
// finished with context.Canceled, and OnStopped listeners fire once every
// worker has exited.
//
// Listener callbacks are invoked on worker goroutines and on the goroutine
// that calls Queue. For any one task, the queued callback always fires
// before the started callback.
package workerpool
