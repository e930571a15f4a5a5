package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"collabhub/internal/gateway"
	"collabhub/pkg/interfaces"
	"collabhub/pkg/types"
)

// Router type-dispatches inbound client events to their fan-out rule:
//
//	typing-start/stop   -> channel room, all members except sender
//	send-message        -> channel room, all members including sender
//	message-reaction    -> channel room, all members except sender
//	presence-change     -> workspace room, all members except sender
//
// The sender is included for send-message so it receives a server-confirmed
// copy of the persisted record; typing, reactions and presence are purely
// informative to others. Outbound identity is always the authenticated user,
// never client-asserted fields.
type Router struct {
	gateway *gateway.Gateway
	store   interfaces.MessageStore
	limiter *RateLimiter
}

// New creates an event router.
func New(gw *gateway.Gateway, store interfaces.MessageStore) *Router {
	return &Router{
		gateway: gw,
		store:   store,
		limiter: NewRateLimiter(),
	}
}

// Route applies the fan-out rule for one inbound event. Fan-out to an empty
// room silently drops the event: ephemeral events are never queued or
// retried. Only send-message touches the store.
func (r *Router) Route(ctx context.Context, conn *gateway.Connection, env *types.Envelope) error {
	switch env.Event {
	case types.EventTypingStart:
		return r.routeTyping(conn, env.Data, types.EventUserTyping)

	case types.EventTypingStop:
		return r.routeTyping(conn, env.Data, types.EventUserStoppedTyping)

	case types.EventSendMessage:
		return r.routeMessage(ctx, conn, env.Data)

	case types.EventMessageReaction:
		return r.routeReaction(conn, env.Data)

	case types.EventPresenceChange:
		return r.routePresence(conn, env.Data)

	default:
		return ErrUnknownEventType
	}
}

// routeTyping forwards a typing indicator to the other members of the
// channel room, replacing any client-supplied identity with the sender's
// authenticated one.
func (r *Router) routeTyping(conn *gateway.Connection, data json.RawMessage, outEvent string) error {
	var payload types.ChannelPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ErrMalformedPayload
	}
	if !types.IsValidChannelID(payload.ChannelID) {
		return ErrMissingChannel
	}

	room := types.ChannelRoom(payload.ChannelID)
	r.gateway.Emit(room, outEvent, types.NoticeFor(conn.User()), conn.ID())
	return nil
}

// routeMessage persists the message first, then broadcasts the stored record
// to every member of the channel room including the sender. Persistence must
// complete before broadcast so all recipients — the sender's reconciling
// client included — see the authoritative id and timestamp.
func (r *Router) routeMessage(ctx context.Context, conn *gateway.Connection, data json.RawMessage) error {
	var payload types.SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ErrMalformedPayload
	}

	message := &types.Message{
		ID:            uuid.NewString(), // server-generated; any client id is ignored
		ChannelID:     payload.ChannelID,
		WorkspaceSlug: payload.WorkspaceSlug,
		User:          conn.User(),
		Content:       payload.Content,
		CreatedAt:     time.Now().UTC(),
	}
	if err := message.Validate(); err != nil {
		return err
	}

	if !r.limiter.Allow(conn.User().ID) {
		return ErrRateLimitExceeded
	}

	if err := r.store.StoreMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to persist message: %w", err)
	}

	room := types.ChannelRoom(message.ChannelID)
	sent := r.gateway.Emit(room, types.EventMessageReceived, message, "")
	log.Printf("Message routed: id=%s channel=%s recipients=%d", message.ID, message.ChannelID, sent)
	return nil
}

// routeReaction forwards a reaction to the other members of the channel
// room with server-attributed identity.
func (r *Router) routeReaction(conn *gateway.Connection, data json.RawMessage) error {
	var payload types.ReactionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ErrMalformedPayload
	}
	if !types.IsValidChannelID(payload.ChannelID) {
		return ErrMissingChannel
	}
	if payload.MessageID == "" || payload.Reaction == "" {
		return ErrMalformedPayload
	}

	notice := types.ReactionNotice{
		ChannelID: payload.ChannelID,
		MessageID: payload.MessageID,
		Reaction:  payload.Reaction,
		User:      conn.User(),
	}
	r.gateway.Emit(types.ChannelRoom(payload.ChannelID), types.EventReactionAdded, notice, conn.ID())
	return nil
}

// routePresence forwards a presence change to the other members of the
// workspace room, normalized to the fixed {online, offline} enumeration.
func (r *Router) routePresence(conn *gateway.Connection, data json.RawMessage) error {
	var payload types.PresencePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ErrMalformedPayload
	}
	if !types.IsValidSlug(payload.WorkspaceSlug) {
		return ErrMissingWorkspace
	}

	notice := types.PresenceNotice{
		UserID: conn.User().ID,
		Status: types.NormalizeStatus(payload.Status),
	}
	r.gateway.Emit(types.WorkspaceRoom(payload.WorkspaceSlug), types.EventPresenceChanged, notice, conn.ID())
	return nil
}
