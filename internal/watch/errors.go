package watch

import "errors"

var (
	// ErrPathNotExist is returned when the watched directory does not exist.
	ErrPathNotExist = errors.New("path does not exist")

	// ErrNotDirectory is returned when the watched path is not a directory.
	ErrNotDirectory = errors.New("path is not a directory")

	// ErrNilHandler is returned by New without a handler.
	ErrNilHandler = errors.New("handler is nil")
)
