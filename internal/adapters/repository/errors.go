package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("already exists")
	ErrInvalidLimit = errors.New("invalid limit")
	ErrInvalidInput = errors.New("invalid record")
	ErrClosed       = errors.New("store closed")
)
