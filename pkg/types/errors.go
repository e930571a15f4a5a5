package types

import "errors"

// Validation errors shared by every component that accepts external input.
var (
	ErrInvalidUserID      = errors.New("user ID must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidSlug        = errors.New("workspace slug must be 1-64 characters, lowercase alphanumeric + hyphen only")
	ErrInvalidChannelID   = errors.New("channel ID must be 1-64 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidChannelName = errors.New("channel name must be 1-80 characters")
	ErrEmptyContent       = errors.New("message content cannot be empty")
	ErrContentTooLarge    = errors.New("message content exceeds 64KB limit")
)
