package jobs

import "errors"

var (
	// ErrNotFound indicates the store holds no record for the id.
	ErrNotFound = errors.New("job not found")
	// ErrTerminal indicates a mutation was attempted on a complete or error record.
	ErrTerminal = errors.New("job already terminal")
	// ErrInvalidTransition indicates a backward or otherwise illegal status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

var errStoreClosed = errors.New("job store closed")
