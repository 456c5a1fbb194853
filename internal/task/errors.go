package task

import (
	"errors"
	"fmt"
)

// Task errors.
var (
	// ErrNilTask is returned when a nil task is submitted.
	ErrNilTask = errors.New("task is nil")

	// ErrConfigurationCancelled is returned when the user dismisses the
	// configuration step. The task is never queued.
	ErrConfigurationCancelled = errors.New("task configuration cancelled")

	// ErrSchedulerStopped is returned when submitting after Stop.
	ErrSchedulerStopped = errors.New("scheduler is stopped")

	// ErrEmptyTaskType is returned when registering a configuration without a type.
	ErrEmptyTaskType = errors.New("task type is empty")

	// ErrNilConfigurator is returned when a configurator factory is nil or builds nil.
	ErrNilConfigurator = errors.New("configurator is nil")

	// ErrUnknownParam is returned by Parameterized tasks for unknown names.
	ErrUnknownParam = errors.New("unknown task parameter")
)

// ConfigurationError reports a configuration step that could not be built or failed.
type ConfigurationError struct {
	TaskType string
	Err      error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configure task type %q: %v", e.TaskType, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
