package app

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning indicates the application is already running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning indicates the application has not been started.
	ErrNotRunning = errors.New("application not running")

	// ErrNoSelection indicates file/open was activated with nothing selected.
	ErrNoSelection = errors.New("no file selected")

	// ErrActionNotFound indicates a popup action id matched no item.
	ErrActionNotFound = errors.New("popup action not found")

	// ErrViewNotFound indicates a view id is unknown.
	ErrViewNotFound = errors.New("view not found")
)

// InitError reports a component that failed to initialize.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
