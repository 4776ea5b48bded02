package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrStartCalledMultipleTimes is returned when Start has been called multiple times on a single stream
	ErrStartCalledMultipleTimes = errors.New("tried to call Start multiple times")
	// ErrNilHandler is returned when Start is called without a handler
	ErrNilHandler = errors.New("nil handler")
	// ErrConnectionClosed is returned when the server closed the connection.
	// It is the expected way for a session to end.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrAuthFailed matches every *AuthError
	ErrAuthFailed = errors.New("authentication failed")
	// ErrMalformedFrame is returned when a binary frame is not valid UTF-8 text
	ErrMalformedFrame = errors.New("malformed frame: binary message is not valid UTF-8")
)

// TransportError is a socket level failure: the dial, a read or a write failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a frame is not valid JSON or one of its
// elements does not match the shape of its message type.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// AuthError is returned when the server did not accept the credentials.
// Response is the raw reply of the server.
type AuthError struct {
	Response string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Response
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuthFailed
}
