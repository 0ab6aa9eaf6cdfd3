package service

import "errors"

var (
	// ErrNotStarted is returned by operations that need the worker pipeline.
	ErrNotStarted = errors.New("service not started")
	// ErrQueueFull signals backpressure; the caller may retry later.
	ErrQueueFull = errors.New("queue full")
	// ErrNotConfigured is returned when an upstream integration is disabled.
	ErrNotConfigured = errors.New("integration not configured")
	// ErrInvalidStatus is returned for an unknown outreach status.
	ErrInvalidStatus = errors.New("invalid outreach status")
	// ErrEmptyNote is returned for a blank note.
	ErrEmptyNote = errors.New("note text is required")
	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("invalid date range")
)
