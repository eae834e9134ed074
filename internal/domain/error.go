package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrValidation            = errors.New("validation failed")
	ErrNetwork               = errors.New("network error")
	ErrProtocol              = errors.New("protocol error")
	ErrServerReportedFailure = errors.New("server reported failure")
	ErrNoActiveJob           = errors.New("no active job")
	ErrJobSuperseded         = errors.New("job superseded by a newer submission")
	ErrJobCancelled          = errors.New("job cancelled")
)

// ValidationError is a local, pre-network failure on a blank required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NetworkError covers transport failures and non-2xx responses from the
// analysis service. StatusCode is zero for transport failures.
type NetworkError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

func (e *NetworkError) Unwrap() error { return e.Err }
