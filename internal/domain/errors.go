package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a bad caller argument or a missing staged image.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a referenced storage object or catalog row that is absent.
	ErrNotFound = errors.New("not found")
	// ErrUnsupported is returned by disks that cannot serve an operation.
	ErrUnsupported = errors.New("operation not supported")
)

func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}
