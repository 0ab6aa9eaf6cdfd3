package queue

import "errors"

var (
	// ErrStopped is returned by workers once the pool has shut down.
	ErrStopped = errors.New("worker stopped")
	// ErrUnknownKind is returned for a job whose kind no handler accepts.
	ErrUnknownKind = errors.New("unknown job kind")
)
