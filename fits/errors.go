package fits

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an input path does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrFormat is returned when a file is not a valid FITS container.
	ErrFormat = errors.New("invalid FITS structure")
	// ErrEmptyContainer is returned when a container holds no HDUs.
	ErrEmptyContainer = errors.New("container has no HDUs")
	// ErrClosed is returned when HDU data is read after its file was closed.
	ErrClosed = errors.New("file already closed")
)

// PathError records the operation and file that caused an error.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "fits: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func formatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}
