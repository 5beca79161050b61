package utils

import (
	"errors"
	"fmt"
)

// Sentinel error kinds surfaced in per-step pipeline results. Operators see
// the kind, never internal stack detail.
var (
	// ErrOracleUnavailable marks network failures or timeouts reaching an oracle.
	ErrOracleUnavailable = errors.New("oracle_unavailable")
	// ErrOracleMalformed marks oracle responses violating schema or domain bounds.
	ErrOracleMalformed = errors.New("oracle_malformed_response")
	// ErrValidationFailed marks a domain bound violation on otherwise well-formed data.
	ErrValidationFailed = errors.New("validation_failed")
	// ErrRunInProgress marks a rejected pipeline run while one is in flight for the city.
	ErrRunInProgress = errors.New("concurrent_run_in_progress")
)

// Kind returns the reportable kind string for an error, or "internal" when the
// error matches no known sentinel.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOracleUnavailable):
		return ErrOracleUnavailable.Error()
	case errors.Is(err, ErrOracleMalformed):
		return ErrOracleMalformed.Error()
	case errors.Is(err, ErrValidationFailed):
		return ErrValidationFailed.Error()
	case errors.Is(err, ErrRunInProgress):
		return ErrRunInProgress.Error()
	default:
		return "internal"
	}
}

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
