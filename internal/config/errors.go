package config

import "errors"

var (
	// ErrInvalidWorkers indicates a non-positive worker count.
	ErrInvalidWorkers = errors.New("pool.workers must be positive")

	// ErrInvalidQueueSize indicates a non-positive queue size.
	ErrInvalidQueueSize = errors.New("pool.queue_size must be positive")

	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("invalid log level")
)
