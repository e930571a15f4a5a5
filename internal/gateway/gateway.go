package gateway

import (
	"encoding/json"
	"log"
	"sync"

	"collabhub/internal/registry"
	"collabhub/pkg/types"
)

// Gateway owns every connection's lifecycle and is the only component that
// mutates the room registry. Join, leave and emit all complete synchronously
// relative to the triggering event — nothing on this path suspends.
type Gateway struct {
	registry *registry.Registry

	mu    sync.RWMutex
	conns map[string]*Connection // connection ID -> Connection
}

// New creates a gateway over an injected registry.
func New(reg *registry.Registry) *Gateway {
	return &Gateway{
		registry: reg,
		conns:    make(map[string]*Connection),
	}
}

// Register tracks a freshly handshaken connection. No side effect on rooms;
// clients must join explicitly.
func (g *Gateway) Register(conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.conns[conn.ID()]; exists {
		return ErrAlreadyAttached
	}
	g.conns[conn.ID()] = conn

	log.Printf("Connection registered: conn=%s user=%s", conn.ID(), conn.User().ID)
	return nil
}

// Connection looks up a live connection by id.
func (g *Gateway) Connection(connID string) (*Connection, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	conn, ok := g.conns[connID]
	return conn, ok
}

// JoinWorkspace registers the connection in its workspace room. Joining is
// idempotent and emits nothing — workspace presence is announced separately
// via presence-change events.
func (g *Gateway) JoinWorkspace(conn *Connection, workspaceSlug string) error {
	if conn == nil {
		return ErrNilConnection
	}
	if !types.IsValidSlug(workspaceSlug) {
		return ErrInvalidSlug
	}

	g.registry.Join(types.WorkspaceRoom(workspaceSlug), conn.ID())
	return nil
}

// JoinChannel registers the connection in a channel room and notifies the
// other current members. The joining connection itself receives nothing:
// this is a notification, not an acknowledgment.
func (g *Gateway) JoinChannel(conn *Connection, channelID string) error {
	if conn == nil {
		return ErrNilConnection
	}
	if !types.IsValidChannelID(channelID) {
		return ErrInvalidChannel
	}

	room := types.ChannelRoom(channelID)
	g.registry.Join(room, conn.ID())
	g.Emit(room, types.EventUserJoinedChannel, types.NoticeFor(conn.User()), conn.ID())
	return nil
}

// LeaveChannel removes the connection from a channel room and notifies the
// remaining members, mirroring JoinChannel.
func (g *Gateway) LeaveChannel(conn *Connection, channelID string) error {
	if conn == nil {
		return ErrNilConnection
	}
	if !types.IsValidChannelID(channelID) {
		return ErrInvalidChannel
	}

	room := types.ChannelRoom(channelID)
	g.registry.Leave(room, conn.ID())
	g.Emit(room, types.EventUserLeftChannel, types.NoticeFor(conn.User()), conn.ID())
	return nil
}

// Disconnect transitions a connection to its terminal state: it is removed
// from every room in a single atomic registry step and then closed.
// Disconnection is silent — a crashed client cannot reliably signal leave
// intent, so no leave notifications are emitted.
func (g *Gateway) Disconnect(conn *Connection) {
	if conn == nil {
		return
	}

	rooms := g.registry.Remove(conn.ID())

	g.mu.Lock()
	delete(g.conns, conn.ID())
	g.mu.Unlock()

	_ = conn.Close()
	log.Printf("Connection disconnected: conn=%s user=%s rooms=%d", conn.ID(), conn.User().ID, len(rooms))
}

// Emit fans an event out to every current member of a room, optionally
// excluding one connection (the sender). The frame is marshaled once and
// delivery failures to individual members are dropped silently. An empty
// room drops the event entirely. Returns the number of members the frame was
// queued for.
func (g *Gateway) Emit(room, event string, payload any, excludeID string) int {
	members := g.registry.Members(room)
	if len(members) == 0 {
		return 0
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Dropping unmarshalable %s event for room %s: %v", event, room, err)
		return 0
	}
	frame, err := json.Marshal(types.Envelope{Event: event, Data: data})
	if err != nil {
		log.Printf("Dropping unmarshalable %s event for room %s: %v", event, room, err)
		return 0
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	sent := 0
	for _, memberID := range members {
		if memberID == excludeID {
			continue
		}
		conn, ok := g.conns[memberID]
		if !ok {
			continue // raced with a disconnect; transient gap, absorbed
		}
		if err := conn.write(frame); err == nil {
			sent++
		}
	}
	return sent
}

// Stats returns gateway counters for the health endpoint.
func (g *Gateway) Stats() map[string]int {
	stats := g.registry.Stats()

	g.mu.RLock()
	defer g.mu.RUnlock()
	stats["connections"] = len(g.conns)

	return stats
}

// Shutdown closes every live connection and clears the registry.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	conns := make([]*Connection, 0, len(g.conns))
	for _, conn := range g.conns {
		conns = append(conns, conn)
	}
	g.conns = make(map[string]*Connection)
	g.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	g.registry.Clear()
}
