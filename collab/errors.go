package collab

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes SDK errors.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota
	ErrorConnection
	ErrorDisconnected
	ErrorTimeout
	ErrorInvalidConfig
	ErrorNotConnected
	ErrorInvalidMessage
	ErrorSerialization
	ErrorCache
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorTimeout:
		return "timeout"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorInvalidMessage:
		return "invalid_message"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorCache:
		return "cache_error"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// CollabError is a structured error with code and context.
type CollabError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *CollabError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *CollabError) Unwrap() error {
	return e.Wrapped
}

// Is matches errors by code so errors.Is works with sentinel-style targets.
func (e *CollabError) Is(target error) bool {
	t, ok := target.(*CollabError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a CollabError with the given code and message.
func NewError(code ErrorCode, message string) *CollabError {
	return &CollabError{Code: code, Message: message}
}

// WrapError wraps an existing error with a CollabError.
func WrapError(code ErrorCode, message string, err error) *CollabError {
	return &CollabError{Code: code, Message: message, Wrapped: err}
}

// IsConnectionError reports whether err is a connection-related failure.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var ce *CollabError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == ErrorConnection || ce.Code == ErrorDisconnected || ce.Code == ErrorTimeout
}
