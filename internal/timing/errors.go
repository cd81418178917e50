package timing

import (
	"errors"
	"fmt"
)

// Error reports an invalid timing parameter combination.
//
// Timing errors are configuration errors: they are raised before any stimulus
// is shown and are never recoverable at runtime. The Code field carries a
// stable machine-readable category for CLI output and tests.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes timing errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates an out-of-range or inconsistent
	// timing parameter (negative duration, max <= min, bad step size).
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodePrecision indicates a duration that is not an exact multiple
	// of one frame period at the configured refresh rate.
	ErrCodePrecision ErrorCode = "PRECISION_ERROR"
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidArgument creates an INVALID_ARGUMENT error.
func NewInvalidArgument(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NewPrecisionError creates a PRECISION_ERROR error.
func NewPrecisionError(format string, args ...any) *Error {
	return &Error{Code: ErrCodePrecision, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode from an error, or "" if it is not a timing
// error.
func CodeOf(err error) ErrorCode {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
