package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"collabhub/internal/session"
	"collabhub/pkg/interfaces"
	"collabhub/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is delegated to the deployment's reverse proxy.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// EventRouter dispatches typed client events to their fan-out rule. Declared
// here so the handler does not depend on the router package directly.
type EventRouter interface {
	Route(ctx context.Context, conn *Connection, env *types.Envelope) error
}

// Handler upgrades HTTP requests to persistent connections and runs each
// connection's read pump. Room lifecycle events (join/leave) are handled
// here; everything else is forwarded to the router.
type Handler struct {
	gateway  *Gateway
	verifier interfaces.TokenVerifier
	store    interfaces.MessageStore
	router   EventRouter
	settings Settings
}

// NewHandler creates a WebSocket handler with the given heartbeat settings.
func NewHandler(gw *Gateway, verifier interfaces.TokenVerifier, store interfaces.MessageStore, router EventRouter, settings Settings) *Handler {
	return &Handler{
		gateway:  gw,
		verifier: verifier,
		store:    store,
		router:   router,
		settings: settings.withDefaults(),
	}
}

// HandleWebSocket validates the session, upgrades the transport and starts
// the connection lifecycle. Authorization failures are rejected before any
// room mutation.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, err := h.verifier.Verify(session.TokenFromRequest(r))
	if err != nil {
		http.Error(w, "Invalid or missing session token", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn := NewConnection(ws, user, h.settings)
	if err := h.gateway.Register(conn); err != nil {
		log.Printf("Failed to register connection: %v", err)
		_ = conn.Close()
		return
	}

	go h.handleConnection(conn, ws)
}

// handleConnection runs the read pump with heartbeat monitoring. On any read
// error the connection is disconnected: removed from every room atomically
// and with no leave notifications.
func (h *Handler) handleConnection(conn *Connection, ws *websocket.Conn) {
	defer h.gateway.Disconnect(conn)

	if err := ws.SetReadDeadline(time.Now().Add(h.settings.ReadTimeout)); err != nil {
		return
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.settings.ReadTimeout))
	})

	ticker := time.NewTicker(h.settings.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-conn.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: conn=%s: %v", conn.ID(), err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var env types.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.sendError(conn, "", errors.New("malformed event envelope"))
			continue
		}

		h.dispatch(conn, &env)
	}
}

// dispatch handles room lifecycle events inline and forwards typed events to
// the router. Each handled event causes at most one emit.
func (h *Handler) dispatch(conn *Connection, env *types.Envelope) {
	var err error

	switch env.Event {
	case types.EventJoinWorkspace:
		var payload types.JoinWorkspacePayload
		if err = json.Unmarshal(env.Data, &payload); err == nil {
			err = h.joinWorkspace(conn, payload.WorkspaceSlug)
		}

	case types.EventJoinChannel:
		var payload types.ChannelPayload
		if err = json.Unmarshal(env.Data, &payload); err == nil {
			// Client-asserted identity in the payload is discarded; the
			// notice carries the authenticated user.
			err = h.gateway.JoinChannel(conn, payload.ChannelID)
		}

	case types.EventLeaveChannel:
		var payload types.ChannelPayload
		if err = json.Unmarshal(env.Data, &payload); err == nil {
			err = h.gateway.LeaveChannel(conn, payload.ChannelID)
		}

	default:
		err = h.router.Route(context.Background(), conn, env)
	}

	if err != nil {
		log.Printf("Event rejected: conn=%s user=%s event=%s: %v", conn.ID(), conn.User().ID, env.Event, err)
		h.sendError(conn, env.Event, err)
	}
}

// joinWorkspace checks workspace membership before any room mutation.
func (h *Handler) joinWorkspace(conn *Connection, workspaceSlug string) error {
	if !types.IsValidSlug(workspaceSlug) {
		return ErrInvalidSlug
	}

	if _, err := h.store.MemberRole(context.Background(), workspaceSlug, conn.User().ID); err != nil {
		return err
	}

	return h.gateway.JoinWorkspace(conn, workspaceSlug)
}

// sendError reports a rejected event back to its sender. Best effort: the
// sender may already be gone.
func (h *Handler) sendError(conn *Connection, event string, cause error) {
	notice := map[string]string{
		"event":   event,
		"message": cause.Error(),
	}
	if err := conn.Send(types.EventError, notice); err != nil {
		log.Printf("Failed to send error notice: conn=%s: %v", conn.ID(), err)
	}
}
