package interfaces

import "errors"

// Errors shared across component boundaries.
var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrNotMember       = errors.New("user is not a member of this workspace")
	ErrUnauthenticated = errors.New("missing or invalid session token")
)
