package dispatch

import (
	"errors"
	"fmt"
)

// ErrNoHandler reports that no plugin claims a path. The dispatcher itself
// returns false instead; the open command treats a miss as a failure.
var ErrNoHandler = errors.New("no handler for file")

// OpenError reports a plugin that failed to open a file.
type OpenError struct {
	PluginID string
	Path     string
	Err      error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("plugin %s: open %s: %v", e.PluginID, e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}
