package riot

import "errors"

// Sentinel kinds for provider errors. Callers classify with errors.Is.
var (
	ErrMissingAPIKey = errors.New("riot api key is not configured")
	ErrNotFound      = errors.New("riot api: not found")
	ErrUnauthorized  = errors.New("riot api: api key rejected")
	ErrRateLimited   = errors.New("riot api: rate limited")
	ErrMalformed     = errors.New("riot api: malformed response")
	ErrUnavailable   = errors.New("riot api: unavailable")
)
