package types

import (
	"time"
)

// Workspace roles. The real-time layer only consults them in the channel
// permission gate; fan-out treats all members uniformly.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// DefaultChannelName is the distinguished channel every workspace starts
// with. It can never be renamed or deleted.
const DefaultChannelName = "general"

// Presence statuses. Anything a client sends that is not "online" is
// normalized to "offline".
const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

// NormalizeStatus collapses client-supplied presence into the fixed
// {online, offline} enumeration.
func NormalizeStatus(status string) string {
	if status == PresenceOnline {
		return PresenceOnline
	}
	return PresenceOffline
}

// User is the server-attributed identity attached to every outbound event.
// Client-supplied identity fields are never trusted; the session layer
// produces this struct from the authenticated token.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Message is a persisted chat message. The router broadcasts the stored
// record verbatim so the sender's optimistic copy can be reconciled with the
// authoritative one (server-generated ID, server timestamp).
type Message struct {
	ID            string    `json:"id"`
	ChannelID     string    `json:"channelId"`
	WorkspaceSlug string    `json:"workspaceSlug"`
	User          User      `json:"user"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Channel is a durable channel record. Ownership lives in created_by so the
// permission gate is enforced server-side rather than as a client-local
// advisory cache.
type Channel struct {
	ID            string    `json:"id"`
	WorkspaceSlug string    `json:"workspaceSlug"`
	Name          string    `json:"name"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// A room is a registry key, not a durable entity: it exists exactly as long
// as it has members.

// WorkspaceRoom returns the broadcast domain shared by every connection of a
// workspace's members.
func WorkspaceRoom(slug string) string {
	return "workspace-" + slug
}

// ChannelRoom returns the broadcast domain for connections currently viewing
// a channel.
func ChannelRoom(channelID string) string {
	return "channel-" + channelID
}
