package gateway

import "errors"

// Connection-related errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrWriteTimeout     = errors.New("write timed out")
	ErrInvalidPayload   = errors.New("payload is not marshalable JSON")
)

// Gateway-related errors.
var (
	ErrNilConnection   = errors.New("connection cannot be nil")
	ErrInvalidSlug     = errors.New("invalid workspace slug")
	ErrInvalidChannel  = errors.New("invalid channel id")
	ErrAlreadyAttached = errors.New("connection already registered")
)
