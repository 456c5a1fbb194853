package imageviewer

import "errors"

var (
	// ErrNoHost is returned when an action runs before the host is bound.
	ErrNoHost = errors.New("imageviewer: host not bound")

	// ErrInvalidSize is returned for a thumbnail size outside [MinSize, MaxSize].
	ErrInvalidSize = errors.New("imageviewer: invalid thumbnail size")
)
