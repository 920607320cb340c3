package weights

import "errors"

// Sentinel kinds for weight-set errors.
var (
	ErrInvalidWeight = errors.New("invalid weight")
	ErrUnknownWeight = errors.New("unknown weight")
)
