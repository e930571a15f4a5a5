package types

import (
	"regexp"
)

// Compiled once; these run on every inbound event.
var (
	idRegex   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
)

// IsValidUserID checks a user ID against the shared identifier format.
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 50 {
		return false
	}
	return idRegex.MatchString(userID)
}

// IsValidSlug checks a workspace slug. Slugs appear in room names, so the
// character set stays strict.
func IsValidSlug(slug string) bool {
	if len(slug) < 1 || len(slug) > 64 {
		return false
	}
	return slugRegex.MatchString(slug)
}

// IsValidChannelID checks a channel ID (UUIDs and short ids both pass).
func IsValidChannelID(channelID string) bool {
	if len(channelID) < 1 || len(channelID) > 64 {
		return false
	}
	return idRegex.MatchString(channelID)
}

// IsValidChannelName checks a display name for a channel.
func IsValidChannelName(name string) bool {
	return len(name) >= 1 && len(name) <= 80
}

// Validate ensures a channel record is storable.
func (c *Channel) Validate() error {
	if !IsValidChannelID(c.ID) {
		return ErrInvalidChannelID
	}
	if !IsValidSlug(c.WorkspaceSlug) {
		return ErrInvalidSlug
	}
	if !IsValidChannelName(c.Name) {
		return ErrInvalidChannelName
	}
	if !IsValidUserID(c.CreatedBy) {
		return ErrInvalidUserID
	}
	return nil
}

// Validate ensures a message is storable before the persist-then-broadcast
// path runs.
func (m *Message) Validate() error {
	if !IsValidChannelID(m.ChannelID) {
		return ErrInvalidChannelID
	}
	if !IsValidSlug(m.WorkspaceSlug) {
		return ErrInvalidSlug
	}
	if len(m.Content) == 0 {
		return ErrEmptyContent
	}
	if len(m.Content) > 65536 {
		return ErrContentTooLarge
	}
	return nil
}
