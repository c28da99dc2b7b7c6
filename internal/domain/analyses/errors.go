package analyses

import (
	"errors"
	"fmt"
)

// Failure taxonomy for every engine operation. Callers match with errors.Is.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDenied indicates a role or ownership check failed.
	ErrDenied = errors.New("authorization denied")

	// ErrInvalidState indicates the operation is not legal from the current
	// status, readiness is below the submission threshold, or a concurrent
	// writer won the race.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation indicates a malformed input payload.
	ErrValidation = errors.New("validation failed")

	// ErrExternalService indicates the AI endpoint was unreachable, timed out,
	// or returned non-conforming output.
	ErrExternalService = errors.New("external service error")
)

// ErrStaleState marks a lost optimistic-concurrency race; it matches
// ErrInvalidState under errors.Is.
var ErrStaleState = fmt.Errorf("%w: stale concurrent write", ErrInvalidState)
