package backfill

import "errors"

var (
	// ErrUnhealthy is returned when the service health check fails.
	ErrUnhealthy = errors.New("backfill: service unhealthy")
	// ErrUnexpectedStatus is returned for responses the submitter cannot interpret.
	ErrUnexpectedStatus = errors.New("backfill: unexpected status")
	// ErrNoSource is returned when Run is called without a filing source.
	ErrNoSource = errors.New("backfill: no filing source")
)
