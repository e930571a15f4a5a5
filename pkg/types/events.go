package types

import "encoding/json"

// Client-to-server event names.
const (
	EventJoinWorkspace   = "join-workspace"
	EventJoinChannel     = "join-channel"
	EventLeaveChannel    = "leave-channel"
	EventTypingStart     = "typing-start"
	EventTypingStop      = "typing-stop"
	EventSendMessage     = "send-message"
	EventMessageReaction = "message-reaction"
	EventPresenceChange  = "presence-change"
)

// Server-to-client event names.
const (
	EventUserJoinedChannel = "user-joined-channel"
	EventUserLeftChannel   = "user-left-channel"
	EventUserTyping        = "user-typing"
	EventUserStoppedTyping = "user-stopped-typing"
	EventMessageReceived   = "message-received"
	EventReactionAdded     = "reaction-added"
	EventPresenceChanged   = "presence-changed"

	// EventError reports a rejected inbound event back to its sender.
	EventError = "error"
)

// Envelope is the wire frame for both directions of the persistent
// connection: an event name plus an event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinWorkspacePayload carries join-workspace.
type JoinWorkspacePayload struct {
	WorkspaceSlug string `json:"workspaceSlug"`
}

// ChannelPayload carries join-channel, leave-channel and the typing events.
// The embedded User is whatever the client asserted; the gateway discards it
// and substitutes the authenticated identity.
type ChannelPayload struct {
	ChannelID string `json:"channelId"`
	User      User   `json:"user"`
}

// SendMessagePayload carries send-message.
type SendMessagePayload struct {
	ChannelID     string `json:"channelId"`
	Content       string `json:"content"`
	WorkspaceSlug string `json:"workspaceSlug"`
}

// ReactionPayload carries message-reaction.
type ReactionPayload struct {
	ChannelID string `json:"channelId"`
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
	User      User   `json:"user"`
}

// PresencePayload carries presence-change.
type PresencePayload struct {
	WorkspaceSlug string `json:"workspaceSlug"`
	Status        string `json:"status"`
}

// MemberNotice is the payload of user-joined-channel, user-left-channel,
// user-typing and user-stopped-typing: the server-attributed identity of the
// member the notice is about.
type MemberNotice struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserImage string `json:"userImage,omitempty"`
}

// NoticeFor builds a MemberNotice from an authenticated identity.
func NoticeFor(user User) MemberNotice {
	return MemberNotice{UserID: user.ID, UserName: user.Name, UserImage: user.Image}
}

// ReactionNotice is the payload of reaction-added: the inbound reaction with
// server-attributed identity.
type ReactionNotice struct {
	ChannelID string `json:"channelId"`
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
	User      User   `json:"user"`
}

// PresenceNotice is the payload of presence-changed.
type PresenceNotice struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}
