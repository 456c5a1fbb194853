package task

// State represents the lifecycle state of a task.
type State string

const (
	// StateQueued indicates the task is waiting in the pool.
	StateQueued State = "queued"
	// StateRunning indicates the task is executing.
	StateRunning State = "running"
	// StateSucceeded indicates the task completed successfully.
	StateSucceeded State = "succeeded"
	// StateFailed indicates the task returned an error.
	StateFailed State = "failed"
	// StateCancelled indicates the task was cancelled.
	StateCancelled State = "cancelled"
)

// String returns the state name.
func (s State) String() string {
	if s == "" {
		return "unknown"
	}
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// CanTransition reports whether moving from s to next keeps the state
// monotonic. Terminal states accept nothing.
func (s State) CanTransition(next State) bool {
	if s.IsTerminal() {
		return false
	}
	return next.rank() > s.rank()
}

func (s State) rank() int {
	switch s {
	case StateQueued:
		return 1
	case StateRunning:
		return 2
	case StateSucceeded, StateFailed, StateCancelled:
		return 3
	default:
		return 0
	}
}
