package model

import "errors"

// Sentinel kinds for malformed statistic records.
var (
	ErrInvalidInput = errors.New("invalid input")
)
