package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrUnknownBackend = errors.New("unknown cache backend")
	ErrClosed         = errors.New("cache closed")
)
