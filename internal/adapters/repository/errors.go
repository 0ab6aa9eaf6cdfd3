package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("duplicate filing")
	ErrInvalidLimit = errors.New("invalid limit")
)
