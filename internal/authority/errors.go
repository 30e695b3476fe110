package authority

import (
	"errors"
	"fmt"

	"watchlog/internal/types"
)

// The client maps transport failures onto three distinguishable kinds so
// callers can show connectivity-specific messages and decide whether to
// roll back an optimistic mutation.
var (
	// ErrTimeout: the request ran into the fixed timeout.
	ErrTimeout = errors.New("authority: request timed out")
	// ErrNetwork: the backend was unreachable.
	ErrNetwork = errors.New("authority: network unreachable")
)

// RejectedError is a non-2xx response from the backend.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authority: rejected with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("authority: rejected with status %d", e.StatusCode)
}

// ConflictError reports that the movie is already assigned to another list,
// typically a race with another device. Carries the conflicting list so the
// caller can offer a move.
type ConflictError struct {
	ExistingList types.ListType
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("authority: movie already in list %q", e.ExistingList)
}

// IsConflict extracts a ConflictError if err carries one.
func IsConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}
