package plugin

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	// ErrNilFactory is returned when a nil factory is registered.
	ErrNilFactory = errors.New("plugin factory is nil")

	// ErrNilPlugin is returned when a factory produces a nil plugin.
	ErrNilPlugin = errors.New("plugin factory returned nil")

	// ErrEmptyID is returned when a plugin reports an empty identity.
	ErrEmptyID = errors.New("plugin id is empty")

	// ErrAlreadyRegistered is returned when a plugin identity is registered twice.
	ErrAlreadyRegistered = errors.New("plugin is already registered")

	// ErrRegistryFrozen is returned when registering after startup completed.
	ErrRegistryFrozen = errors.New("plugin registry is frozen")
)

// InstantiationError reports a factory that could not construct its plugin.
type InstantiationError struct {
	// Factory names the factory, usually its function name.
	Factory string
	Err     error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("instantiate plugin %s: %v", e.Factory, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}
