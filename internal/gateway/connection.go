package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"collabhub/pkg/types"
)

// Connection wraps one client's persistent bidirectional channel. WebSocket
// writes must be serialized, so every outbound frame goes through a single
// writer goroutine. A connection is created on handshake and destroyed on
// disconnect; there are no resume semantics — a reconnecting client gets a
// fresh connection with no memory of old room memberships.
type Connection struct {
	id           string
	user         types.User
	conn         *websocket.Conn
	writeCh      chan []byte
	writeTimeout time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	closeOnce    sync.Once
}

// NewConnection allocates a connection for an authenticated user and starts
// its writer goroutine.
func NewConnection(conn *websocket.Conn, user types.User, settings Settings) *Connection {
	settings = settings.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:           uuid.NewString(),
		user:         user,
		conn:         conn,
		writeCh:      make(chan []byte, settings.BufferSize),
		writeTimeout: settings.WriteTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}

	go c.writeLoop()

	return c
}

// ID returns the opaque per-socket connection id.
func (c *Connection) ID() string {
	return c.id
}

// User returns the authenticated identity bound at handshake. Identity never
// changes over a connection's lifetime.
func (c *Connection) User() types.User {
	return c.user
}

// Done is closed when the connection reaches its terminal state.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data, ok := <-c.writeCh:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Send marshals an event envelope and queues it for the writer goroutine.
// Delivery to a closed peer is dropped, never retried: ephemeral events have
// no delivery guarantee.
func (c *Connection) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return ErrInvalidPayload
	}
	frame, err := json.Marshal(types.Envelope{Event: event, Data: data})
	if err != nil {
		return ErrInvalidPayload
	}
	return c.write(frame)
}

// write queues a pre-marshaled frame. Fan-out marshals once per room and
// calls this per member.
func (c *Connection) write(frame []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.writeCh <- frame:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	case <-time.After(c.writeTimeout):
		return ErrWriteTimeout
	}
}

// Close transitions the connection to its terminal state. Safe to call more
// than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}
