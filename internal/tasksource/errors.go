package tasksource

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyName is returned for a definition without a name.
	ErrEmptyName = errors.New("task name is empty")

	// ErrNoCommands is returned for a definition without commands.
	ErrNoCommands = errors.New("task has no commands")

	// ErrDuplicateName is returned when two definitions share a name.
	ErrDuplicateName = errors.New("duplicate task name")

	// ErrNotFound is returned by Source.Get for an unknown name.
	ErrNotFound = errors.New("task not found")
)

// CommandError reports a failed command of a shell task.
type CommandError struct {
	Task    string
	Index   int
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("task %s: command %d (%s): %v", e.Task, e.Index+1, e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
