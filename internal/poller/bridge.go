package poller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/samber/lo"

	"collabhub/internal/session"
	"collabhub/pkg/interfaces"
	"collabhub/pkg/types"
)

// Defaults for the polling schedule. The look-back window is deliberately
// wider than the poll interval so a message can never fall between two
// ticks; the cost is that a message may appear in more than one window, and
// consumers deduplicate by message id.
const (
	DefaultInterval = 2 * time.Second
	DefaultLookback = 5 * time.Second
	DefaultLimit    = 10
)

// Bridge is the connectionless delivery path: it emulates push delivery for
// clients that cannot hold a persistent connection by polling the message
// store and streaming results as server-sent event frames. It shares no
// process state with the gateway — "new since last check" is re-derived from
// stored timestamps on every tick.
type Bridge struct {
	store    interfaces.MessageStore
	verifier interfaces.TokenVerifier
	interval time.Duration
	lookback time.Duration
	limit    int
}

// New creates a polling bridge with the default schedule.
func New(store interfaces.MessageStore, verifier interfaces.TokenVerifier) *Bridge {
	return NewWithSchedule(store, verifier, DefaultInterval, DefaultLookback, DefaultLimit)
}

// NewWithSchedule creates a polling bridge with an explicit schedule.
// Non-positive values fall back to the defaults.
func NewWithSchedule(store interfaces.MessageStore, verifier interfaces.TokenVerifier, interval, lookback time.Duration, limit int) *Bridge {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Bridge{
		store:    store,
		verifier: verifier,
		interval: interval,
		lookback: lookback,
		limit:    limit,
	}
}

// connectedFrame is emitted exactly once, on stream open.
type connectedFrame struct {
	Type string `json:"type"`
}

// messagesFrame is emitted per tick, only when the tick found rows. A tick
// with zero qualifying messages emits nothing — silence means "no messages",
// not "error".
type messagesFrame struct {
	Type string           `json:"type"`
	Data []*types.Message `json:"data"`
}

// HandleStream serves one event stream scoped to one channel and one
// authorized viewer. The access-control gate runs once, at stream open,
// before any frame is emitted.
func (b *Bridge) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		http.Error(w, "Missing required query parameter: channelId", http.StatusBadRequest)
		return
	}

	user, err := b.verifier.Verify(session.TokenFromRequest(r))
	if err != nil {
		http.Error(w, "Invalid or missing session token", http.StatusUnauthorized)
		return
	}

	channel, err := b.store.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, interfaces.ErrChannelNotFound) {
			http.Error(w, "Channel not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to resolve channel", http.StatusInternalServerError)
		}
		return
	}

	if _, err := b.store.MemberRole(ctx, channel.WorkspaceSlug, user.ID); err != nil {
		if errors.Is(err, interfaces.ErrNotMember) {
			http.Error(w, "Not a member of this workspace", http.StatusForbidden)
		} else {
			http.Error(w, "Failed to check membership", http.StatusInternalServerError)
		}
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := writeFrame(w, flusher, connectedFrame{Type: "connected"}); err != nil {
		return
	}

	log.Printf("Poll stream opened: channel=%s user=%s", channelID, user.ID)

	// The ticker is the stream's only cancellable resource; the deferred
	// Stop guarantees it cannot outlive the stream on any exit path.
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Poll stream closed: channel=%s user=%s", channelID, user.ID)
			return
		case now := <-ticker.C:
			if err := b.tick(w, flusher, r, channelID, now); err != nil {
				return
			}
		}
	}
}

// tick queries one look-back window and emits a frame only if rows exist.
// A query fault is logged and the tick skipped — never stream-fatal. A write
// fault terminates the stream (the client is gone).
func (b *Bridge) tick(w http.ResponseWriter, flusher http.Flusher, r *http.Request, channelID string, now time.Time) error {
	since := now.Add(-b.lookback)

	messages, err := b.store.ListMessagesSince(r.Context(), channelID, since, b.limit)
	if err != nil {
		log.Printf("Poll tick failed: channel=%s: %v", channelID, err)
		return nil
	}
	if len(messages) == 0 {
		return nil
	}

	// The store returns newest-first; clients want chronological order.
	return writeFrame(w, flusher, messagesFrame{Type: "messages", Data: lo.Reverse(messages)})
}

// writeFrame emits one line-delimited SSE data block and flushes it.
func writeFrame(w http.ResponseWriter, flusher http.Flusher, frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
