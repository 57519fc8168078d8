// Package sentinel holds the error facts stores report upward. Services wrap
// them into coded domain errors; stores never decide HTTP semantics.
package sentinel

import "errors"

var (
	// ErrNotFound means the row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a row with the same identity already exists.
	ErrConflict = errors.New("already exists")
	// ErrInvalidState means the current state forbids the mutation.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable means a backing dependency could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
