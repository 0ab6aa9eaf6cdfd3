package usac

import "errors"

var (
	// ErrNotConfigured is returned when the dataset needed for a call is unset.
	ErrNotConfigured = errors.New("usac dataset not configured")
	// ErrInvalidRange is returned when the end of a date range precedes its start.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrUnexpectedStatus is returned for non-retryable HTTP responses.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)
