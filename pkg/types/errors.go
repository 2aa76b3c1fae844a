package types

import (
	"errors"
	"fmt"
)

// Resolution errors.
var (
	// ErrNotFound is returned when a key matches no party, exactly or by
	// similarity.
	ErrNotFound = errors.New("party not found")

	// ErrUnresolvedEntity is returned by Extract when a requested label does
	// not resolve above the threshold. The whole extraction is abandoned.
	ErrUnresolvedEntity = errors.New("unresolved party")

	// ErrAmbiguousMatch tags the warning logged when Get succeeds only through
	// similarity matching. It is never returned.
	ErrAmbiguousMatch = errors.New("party was not found, returning closest match")
)

// Validation errors.
var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidMinRatio = errors.New("min ratio must be within [0, 1]")
	ErrInvalidValue    = errors.New("invalid poll value")
)

// LookupError carries the label that failed to resolve.
type LookupError struct {
	Label string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Label)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func notFound(label string) error {
	return &LookupError{Label: label, Err: ErrNotFound}
}

func unresolved(label string) error {
	return &LookupError{Label: label, Err: ErrUnresolvedEntity}
}
