package menu

import (
	"errors"
	"fmt"
)

// ErrEmptyPath is returned when a path has no non-empty segments.
var ErrEmptyPath = errors.New("menu path is empty")

// UnknownPathError is returned when activating a path that is not a leaf.
type UnknownPathError struct {
	Path string

	// Suggestion is the closest leaf path, if any.
	Suggestion string
}

func (e *UnknownPathError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown menu action %q (did you mean %q?)", e.Path, e.Suggestion)
	}
	return fmt.Sprintf("unknown menu action %q", e.Path)
}

// ListenerPanicError reports a listener that panicked during Activate.
type ListenerPanicError struct {
	Path  string
	Value any
}

func (e *ListenerPanicError) Error() string {
	return fmt.Sprintf("menu listener panicked on %q: %v", e.Path, e.Value)
}
