package service

import "errors"

// Sentinel kinds for service errors. ErrNotStarted is returned wrapped with
// queue.ErrClosed so callers can treat it as unavailable.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrNoStore      = errors.New("service has no store")
	ErrDuplicate    = errors.New("prediction already submitted")
	ErrBackpressure = errors.New("prediction queue is full")
)
