package sourcekit

import (
	"errors"
	"fmt"
)

// Common workspace errors
var (
	ErrNotExist   = errors.New("file does not exist")
	ErrExist      = errors.New("file already exists")
	ErrIsDir      = errors.New("is a directory")
	ErrNotAllowed = errors.New("operation not allowed")
	ErrRemoved    = errors.New("file has been removed")
	ErrUnsafePath = errors.New("path escapes workspace")
)

// PathError records an error and the operation and file path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// IsNotExist reports whether an error indicates that a file does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsExist reports whether an error indicates that a file already exists
func IsExist(err error) bool {
	return errors.Is(err, ErrExist)
}

// IsNotAllowed reports whether an error indicates a refused operation,
// including paths that would escape the workspace
func IsNotAllowed(err error) bool {
	return errors.Is(err, ErrNotAllowed) || errors.Is(err, ErrUnsafePath)
}
