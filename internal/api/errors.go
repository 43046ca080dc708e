package api

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the client. Nothing here is retried
// internally; retry policy, if any, belongs to the caller.
var (
	// ErrUnauthenticated means a gated operation was attempted without an
	// active session.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrNoPayload means a required payload (the audio file) was missing.
	ErrNoPayload = errors.New("no audio payload supplied")

	// ErrCancelled means the caller abandoned the operation mid-stream.
	ErrCancelled = errors.New("operation cancelled")
)

// CredentialsError reports a rejected login exchange.
type CredentialsError struct {
	Message string
}

func (e *CredentialsError) Error() string {
	if e.Message != "" {
		return "login rejected: " + e.Message
	}
	return "login rejected"
}

// RequestError reports a non-2xx response, carrying the server-supplied
// message when the body held one.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// ProtocolError reports a streamed line that is not valid JSON or does
// not carry a recognized type. It terminates the operation.
type ProtocolError struct {
	Line   string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: %s in line %q", e.Reason, e.Line)
}

// RemoteError is an explicit error record sent by the server mid-stream.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}
