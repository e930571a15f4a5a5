package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgdatabase "collabhub/pkg/database"
	"collabhub/pkg/interfaces"
	"collabhub/pkg/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	cfg := pkgdatabase.DefaultConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "test.db")

	manager, err := NewManager(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	return manager
}

func testMessage(id, channelID string, createdAt time.Time) *types.Message {
	return &types.Message{
		ID:            id,
		ChannelID:     channelID,
		WorkspaceSlug: "acme",
		User:          types.User{ID: "user-1", Name: "Ada"},
		Content:       "content of " + id,
		CreatedAt:     createdAt,
	}
}

func TestNewManagerRejectsInvalidConfig(t *testing.T) {
	_, err := NewManager(&pkgdatabase.Config{})
	require.Error(t, err)
}

func TestStoreAndListMessages(t *testing.T) {
	req := require.New(t)
	manager := newTestManager(t)
	ctx := context.Background()

	// Given three messages with distinct timestamps
	base := time.Now().UTC().Truncate(time.Second)
	req.NoError(manager.StoreMessage(ctx, testMessage("msg-1", "chan-1", base)))
	req.NoError(manager.StoreMessage(ctx, testMessage("msg-2", "chan-1", base.Add(time.Second))))
	req.NoError(manager.StoreMessage(ctx, testMessage("msg-3", "chan-1", base.Add(2*time.Second))))

	// When listing since the beginning of the window
	messages, err := manager.ListMessagesSince(ctx, "chan-1", base, 10)

	// Then all three come back newest first
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("msg-3", messages[0].ID)
	req.Equal("msg-2", messages[1].ID)
	req.Equal("msg-1", messages[2].ID)
	req.Equal("content of msg-1", messages[2].Content)
	req.Equal("Ada", messages[2].User.Name)
}

func TestListMessagesSinceWindow(t *testing.T) {
	req := require.New(t)
	manager := newTestManager(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	req.NoError(manager.StoreMessage(ctx, testMessage("msg-old", "chan-1", base.Add(-time.Hour))))
	req.NoError(manager.StoreMessage(ctx, testMessage("msg-new", "chan-1", base)))

	// Messages older than the window are excluded.
	messages, err := manager.ListMessagesSince(ctx, "chan-1", base.Add(-5*time.Second), 10)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("msg-new", messages[0].ID)
}

func TestListMessagesLimit(t *testing.T) {
	req := require.New(t)
	manager := newTestManager(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 15; i++ {
		msg := testMessage(
			"msg-"+string(rune('a'+i)),
			"chan-1",
			base.Add(time.Duration(i)*time.Second),
		)
		req.NoError(manager.StoreMessage(ctx, msg))
	}

	// The cap keeps the newest rows.
	messages, err := manager.ListMessagesSince(ctx, "chan-1", base, 10)
	req.NoError(err)
	req.Len(messages, 10)
	req.Equal("msg-"+string(rune('a'+14)), messages[0].ID)
}

func TestListMessagesScopedToChannel(t *testing.T) {
	req := require.New(t)
	manager := newTestManager(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	req.NoError(manager.StoreMessage(ctx, testMessage("msg-1", "chan-1", base)))
	req.NoError(manager.StoreMessage(ctx, testMessage("msg-2", "chan-2", base)))

	messages, err := manager.ListMessagesSince(ctx, "chan-1", base, 10)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("msg-1", messages[0].ID)
}

func TestChannelLifecycle(t *testing.T) {
	req := require.New(t)
	manager := newTestManager(t)
	ctx := context.Background()

	channel := &types.Channel{
		ID:            "chan-1",
		WorkspaceSlug: "acme",
		Name:          "random",
		CreatedBy:     "alice",
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}

	// Create, fetch, rename, delete.
	req.NoError(manager.CreateChannel(ctx, channel))

	got, err := manager.GetChannel(ctx, "chan-1")
	req.NoError(err)
	req.Equal("random", got.Name)
	req.Equal("alice", got.CreatedBy)

	req.NoError(manager.RenameChannel(ctx, "chan-1", "renamed"))
	got, err = manager.GetChannel(ctx, "chan-1")
	req.NoError(err)
	req.Equal("renamed", got.Name)

	req.NoError(manager.DeleteChannel(ctx, "chan-1"))
	_, err = manager.GetChannel(ctx, "chan-1")
	req.ErrorIs(err, interfaces.ErrChannelNotFound)
}

func TestChannelNotFoundErrors(t *testing.T) {
	req := require.New(t)
	manager := newTestManager(t)
	ctx := context.Background()

	_, err := manager.GetChannel(ctx, "missing")
	req.ErrorIs(err, interfaces.ErrChannelNotFound)

	req.ErrorIs(manager.RenameChannel(ctx, "missing", "x"), interfaces.ErrChannelNotFound)
	req.ErrorIs(manager.DeleteChannel(ctx, "missing"), interfaces.ErrChannelNotFound)
}

func TestCreateChannelValidates(t *testing.T) {
	manager := newTestManager(t)

	err := manager.CreateChannel(context.Background(), &types.Channel{ID: "chan-1"})
	require.ErrorIs(t, err, types.ErrInvalidSlug)
}

func TestMemberRole(t *testing.T) {
	req := require.New(t)
	manager := newTestManager(t)
	ctx := context.Background()

	user := types.User{ID: "user-1", Name: "Ada"}
	req.NoError(manager.UpsertMember(ctx, "acme", user, types.RoleMember))

	role, err := manager.MemberRole(ctx, "acme", "user-1")
	req.NoError(err)
	req.Equal(types.RoleMember, role)

	// Upsert replaces the role in place.
	req.NoError(manager.UpsertMember(ctx, "acme", user, types.RoleAdmin))
	role, err = manager.MemberRole(ctx, "acme", "user-1")
	req.NoError(err)
	req.Equal(types.RoleAdmin, role)

	_, err = manager.MemberRole(ctx, "acme", "stranger")
	req.ErrorIs(err, interfaces.ErrNotMember)

	_, err = manager.MemberRole(ctx, "other-workspace", "user-1")
	req.ErrorIs(err, interfaces.ErrNotMember)
}

func TestHealthCheck(t *testing.T) {
	manager := newTestManager(t)
	require.NoError(t, manager.HealthCheck(context.Background()))
}

func TestCloseIsIdempotent(t *testing.T) {
	req := require.New(t)
	manager := newTestManager(t)

	req.NoError(manager.Close())
	req.NoError(manager.Close())

	// Writes after close are refused rather than hung.
	err := manager.StoreMessage(context.Background(), testMessage("msg-1", "chan-1", time.Now()))
	req.Error(err)
}
