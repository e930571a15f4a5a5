package router

import "errors"

// Router-specific error types.
var (
	ErrUnknownEventType  = errors.New("unknown event type")
	ErrMalformedPayload  = errors.New("malformed event payload")
	ErrMissingChannel    = errors.New("event is missing a valid channel id")
	ErrMissingWorkspace  = errors.New("event is missing a valid workspace slug")
	ErrRateLimitExceeded = errors.New("rate limit exceeded: 100 messages per minute")
)
