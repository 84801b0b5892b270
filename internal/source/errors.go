package source

import (
	"errors"
	"fmt"
)

// Kind classifies adapter failures.
type Kind int

const (
	// KindConnection: the source transport could not be reached.
	KindConnection Kind = iota
	// KindAuth: the transport rejected our credentials.
	KindAuth
	// KindFetch: the transport is reachable but the request failed.
	KindFetch
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindAuth:
		return "authentication"
	case KindFetch:
		return "fetch"
	default:
		return "unknown"
	}
}

// Error is the typed failure every adapter reports. It always names the
// originating source so the aggregation layer can log which section
// degraded.
type Error struct {
	Source string
	Kind   Kind
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s %s: %v", e.Source, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s %s", e.Source, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// ConnectionError reports a source that could not be reached.
func ConnectionError(src, msg string, err error) *Error {
	return &Error{Source: src, Kind: KindConnection, Msg: msg, Err: err}
}

// AuthError reports rejected credentials.
func AuthError(src, msg string, err error) *Error {
	return &Error{Source: src, Kind: KindAuth, Msg: msg, Err: err}
}

// FetchError reports a failed request against a reachable source.
func FetchError(src, msg string, err error) *Error {
	return &Error{Source: src, Kind: KindFetch, Msg: msg, Err: err}
}

// ErrorKind extracts the failure kind from an adapter error chain.
// The second return is false when err is not an adapter error.
func ErrorKind(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}
