package loop

import "errors"

var (
	// ErrAlreadyRunning is returned when Run is called while another Run is active.
	ErrAlreadyRunning = errors.New("loop already running")

	// ErrClosed is returned when Run is called on a closed loop.
	ErrClosed = errors.New("loop closed")
)
