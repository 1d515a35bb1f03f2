package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks an absent order. Absence is an expected
	// outcome of customer lookups, not an infrastructure failure.
	ErrNotFound = errors.New("order not found")

	// ErrUnavailable marks a failed write or an unreachable backing
	// store. Callers must not assume the operation was applied.
	ErrUnavailable = errors.New("storage unavailable")
)

// InvalidTransitionError rejects an illegal status change. It names
// both sides so operators can see what was attempted against what.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}
