package interfaces

import (
	"context"
	"time"

	"collabhub/pkg/types"
)

// MessageStore is the persistent collaborator behind both delivery paths:
// the router persists messages before broadcasting them, and the polling
// bridge re-derives "new since last check" from stored timestamps.
type MessageStore interface {
	// StoreMessage persists a message. Must complete before the message is
	// broadcast so the sender receives the authoritative record.
	StoreMessage(ctx context.Context, message *types.Message) error

	// ListMessagesSince returns messages in a channel created at or after
	// since, newest first, capped at limit rows. Callers wanting
	// chronological order reverse the result.
	ListMessagesSince(ctx context.Context, channelID string, since time.Time, limit int) ([]*types.Message, error)

	// Channel operations backing the permission gate and channel admin API.
	CreateChannel(ctx context.Context, channel *types.Channel) error
	GetChannel(ctx context.Context, channelID string) (*types.Channel, error)
	RenameChannel(ctx context.Context, channelID, name string) error
	DeleteChannel(ctx context.Context, channelID string) error

	// MemberRole returns the role of a user in a workspace, or ErrNotMember.
	MemberRole(ctx context.Context, workspaceSlug, userID string) (string, error)

	// HealthCheck verifies connectivity and basic read access.
	HealthCheck(ctx context.Context) error

	// Close flushes pending writes and releases the connection.
	Close() error
}
