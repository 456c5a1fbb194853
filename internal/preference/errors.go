package preference

import (
	"errors"
	"fmt"
)

// ErrEmptyID is returned for a plugin without an identity.
var ErrEmptyID = errors.New("preference: plugin id is empty")

// FileError reports an I/O failure on a preference file.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("preference %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
