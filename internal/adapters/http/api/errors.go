package api

import "errors"

// ErrBadRequest marks a body or query the handler could not decode.
var ErrBadRequest = errors.New("bad request")
