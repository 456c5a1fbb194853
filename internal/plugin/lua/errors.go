package lua

import (
	"errors"
	"fmt"
)

var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call exceeds the execution timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNoFunction is returned when calling an undefined global function.
	ErrNoFunction = errors.New("lua function not defined")

	// ErrNoHost is returned by host API functions before the host is bound.
	ErrNoHost = errors.New("extension is not bound to a host")

	// ErrTaskAPI is raised when a task function calls a host API that only
	// runs on the control goroutine.
	ErrTaskAPI = errors.New("not available inside a task function")
)

// ManifestError reports an invalid or unreadable plugin.toml.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// ScriptError reports a failing call into an extension script.
type ScriptError struct {
	Extension string
	Function  string
	Err       error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("extension %s: %s: %v", e.Extension, e.Function, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
