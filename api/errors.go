// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy shared by the codec, the connection actor and the listener.
// Every failure is local to one connection; callers branch on the concrete
// type with errors.As instead of matching strings.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrClosed            = errors.New("connection is closed")
	ErrListenerClosed    = errors.New("listener is closed")
	ErrExecutorClosed    = errors.New("executor is closed")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotSupported      = errors.New("operation not supported")
	ErrOperationTimeout  = errors.New("operation timeout")
	ErrResourceExhausted = errors.New("resource exhausted")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeHandshake
	ErrCodeFraming
	ErrCodeCallback
	ErrCodeIO
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid argument"
	case ErrCodeHandshake:
		return "handshake"
	case ErrCodeFraming:
		return "framing"
	case ErrCodeCallback:
		return "callback"
	case ErrCodeIO:
		return "io"
	default:
		return "internal"
	}
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// connError is the shared shape of the typed connection errors.
type connError struct {
	code ErrorCode
	msg  string
	err  error
}

func (e *connError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *connError) Unwrap() error { return e.err }

// Code returns the category of the failure.
func (e *connError) Code() ErrorCode { return e.code }

// HandshakeError reports a rejected upgrade request. onOpen is never
// invoked for a connection that fails with it.
type HandshakeError struct{ connError }

// NewHandshakeError wraps cause (may be nil) with a handshake message.
func NewHandshakeError(message string, cause error) *HandshakeError {
	return &HandshakeError{connError{ErrCodeHandshake, "handshake: " + message, cause}}
}

// FramingError reports a malformed or unsupported wire frame.
type FramingError struct{ connError }

// NewFramingError wraps cause (may be nil) with a framing message.
func NewFramingError(message string, cause error) *FramingError {
	return &FramingError{connError{ErrCodeFraming, "framing: " + message, cause}}
}

// CallbackError reports a panic or error raised by a user handler.
type CallbackError struct {
	connError
	Callback string
}

// NewCallbackError records a failure inside the named callback.
func NewCallbackError(callback string, cause error) *CallbackError {
	return &CallbackError{connError: connError{ErrCodeCallback, "callback " + callback, cause}, Callback: callback}
}

// IOError reports a socket-level failure such as a reset or broken pipe.
type IOError struct {
	connError
	Op string
}

// NewIOError wraps a socket failure that happened during op.
func NewIOError(op string, cause error) *IOError {
	return &IOError{connError: connError{ErrCodeIO, op, cause}, Op: op}
}

// IsProtocolError reports whether err stems from the peer breaking the
// handshake or framing rules rather than from the transport.
func IsProtocolError(err error) bool {
	var he *HandshakeError
	var fe *FramingError
	return errors.As(err, &he) || errors.As(err, &fe)
}
