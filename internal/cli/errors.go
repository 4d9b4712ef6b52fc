package cli

import (
	"errors"
	"fmt"
)

// Sentinel errors for this package. These allow errors.Is/As from callers.
var (
	ErrNoAPIKey   = errors.New("riot api key is not configured; run `sniped-cli config set-key <key>`")
	ErrNoTarget   = errors.New("no player given and none remembered")
	ErrKeyInvalid = errors.New("riot api key was rejected")
	ErrRemote     = errors.New("remote search failed")
)

// RemoteError is a non-2xx answer from a sniped server.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %d %s: %s", ErrRemote, e.Status, e.Code, e.Message)
}

func (e *RemoteError) Unwrap() error { return ErrRemote }
