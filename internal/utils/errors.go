package utils

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks configuration mistakes detected at construction time.
var ErrInvalidConfig = errors.New("invalid configuration")

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// ConfigError reports an invalid setting for op. The result matches
// ErrInvalidConfig under errors.Is.
func ConfigError(op, format string, args ...any) error {
	return NewAppError(op, fmt.Sprintf(format, args...), ErrInvalidConfig)
}
