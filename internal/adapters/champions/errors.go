package champions

import "errors"

// Sentinel kinds for champion data errors.
var (
	ErrNoVersions       = errors.New("no data dragon versions available")
	ErrUnexpectedStatus = errors.New("unexpected status from champion data source")
)
