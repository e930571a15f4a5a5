package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	req := require.New(t)

	// Given any client-supplied status
	// Then only "online" survives; everything else collapses to "offline"
	req.Equal(PresenceOnline, NormalizeStatus("online"))
	req.Equal(PresenceOffline, NormalizeStatus("offline"))
	req.Equal(PresenceOffline, NormalizeStatus("away"))
	req.Equal(PresenceOffline, NormalizeStatus("ONLINE"))
	req.Equal(PresenceOffline, NormalizeStatus(""))
}

func TestRoomNames(t *testing.T) {
	req := require.New(t)

	// Workspace and channel rooms must never collide even when a slug equals
	// a channel id.
	req.Equal("workspace-acme", WorkspaceRoom("acme"))
	req.Equal("channel-acme", ChannelRoom("acme"))
	req.NotEqual(WorkspaceRoom("acme"), ChannelRoom("acme"))
}

func TestIsValidUserID(t *testing.T) {
	req := require.New(t)

	req.True(IsValidUserID("user-1"))
	req.True(IsValidUserID("A_b-3"))
	req.False(IsValidUserID(""))
	req.False(IsValidUserID("user 1"))
	req.False(IsValidUserID("user@example"))
	req.False(IsValidUserID(strings.Repeat("a", 51)))
}

func TestIsValidSlug(t *testing.T) {
	req := require.New(t)

	req.True(IsValidSlug("acme"))
	req.True(IsValidSlug("acme-corp-2"))
	req.False(IsValidSlug(""))
	req.False(IsValidSlug("-acme"))
	req.False(IsValidSlug("Acme"))
	req.False(IsValidSlug(strings.Repeat("a", 65)))
}

func TestChannelValidate(t *testing.T) {
	req := require.New(t)

	channel := &Channel{
		ID:            "chan-1",
		WorkspaceSlug: "acme",
		Name:          "random",
		CreatedBy:     "user-1",
	}
	req.NoError(channel.Validate())

	bad := *channel
	bad.ID = ""
	req.ErrorIs(bad.Validate(), ErrInvalidChannelID)

	bad = *channel
	bad.WorkspaceSlug = "Not A Slug"
	req.ErrorIs(bad.Validate(), ErrInvalidSlug)

	bad = *channel
	bad.Name = strings.Repeat("x", 81)
	req.ErrorIs(bad.Validate(), ErrInvalidChannelName)

	bad = *channel
	bad.CreatedBy = ""
	req.ErrorIs(bad.Validate(), ErrInvalidUserID)
}

func TestMessageValidate(t *testing.T) {
	req := require.New(t)

	message := &Message{
		ChannelID:     "chan-1",
		WorkspaceSlug: "acme",
		User:          User{ID: "user-1", Name: "Ada"},
		Content:       "hello",
	}
	req.NoError(message.Validate())

	bad := *message
	bad.Content = ""
	req.ErrorIs(bad.Validate(), ErrEmptyContent)

	bad = *message
	bad.Content = strings.Repeat("x", 65537)
	req.ErrorIs(bad.Validate(), ErrContentTooLarge)

	bad = *message
	bad.ChannelID = "chan 1"
	req.ErrorIs(bad.Validate(), ErrInvalidChannelID)
}
