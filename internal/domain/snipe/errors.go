package snipe

import "errors"

// ErrMissingSelf is returned when the acting player id is empty.
var ErrMissingSelf = errors.New("acting player id is required")
