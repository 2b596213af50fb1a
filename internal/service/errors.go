package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a request the caller must fix before retrying.
var ErrInvalidInput = errors.New("invalid input")

// ErrAlreadyRunning is returned when an export is started while one is in flight.
var ErrAlreadyRunning = errors.New("already running")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
