package service

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds returned by the search pipeline. Use errors.Is to test them.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrLookupFailed   = errors.New("lookup failed")
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrPlayerNotFound is a lookup failure for an unknown Riot ID.
	ErrPlayerNotFound = fmt.Errorf("%w: player not found", ErrLookupFailed)

	// ErrSelfNotIdentified is a lookup failure raised when the searched
	// player cannot be located in the lobby and the fallback is "fail".
	ErrSelfNotIdentified = fmt.Errorf("%w: player not identified in lobby", ErrLookupFailed)

	ErrMissingLocator = errors.New("game locator is required")
	ErrMissingHistory = errors.New("history provider is required")
)

// KindError attaches an error kind and the failing operation to a cause.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	switch {
	case e.Err == nil:
		return e.Op + ": " + e.Kind.Error()
	case e.Kind == nil:
		return e.Op + ": " + e.Err.Error()
	default:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *KindError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind without a cause.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// WrapKind classifies err under kind. A nil err yields nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Op: op, Kind: kind, Err: err}
}

// Error codes exposed to clients.
const (
	CodeInvalidInput   = "invalid_input"
	CodePlayerNotFound = "player_not_found"
	CodeLookupFailed   = "lookup_failed"
	CodeAnalysisFailed = "analysis_failed"
	CodeCancelled      = "cancelled"
	CodeInternal       = "internal"
)

// Code returns the client-facing code for err, most specific kind first.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrPlayerNotFound):
		return CodePlayerNotFound
	case errors.Is(err, context.Canceled):
		return CodeCancelled
	case errors.Is(err, ErrLookupFailed):
		return CodeLookupFailed
	case errors.Is(err, ErrAnalysisFailed):
		return CodeAnalysisFailed
	default:
		return CodeInternal
	}
}
