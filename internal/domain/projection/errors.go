package projection

import "github.com/clarkmail2001/mlb-betting-model/internal/domain/model"

// ErrInvalidInput is returned for malformed or out-of-domain data. It is the
// same sentinel the model package uses so callers need only one errors.Is.
var ErrInvalidInput = model.ErrInvalidInput
