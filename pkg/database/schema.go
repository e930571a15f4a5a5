package database

import (
	"database/sql"
	"fmt"
)

// Schema for the real-time layer's external collaborators: the per-channel
// append-only message sequence, durable channel records (ownership for the
// permission gate) and workspace membership (authorization for both delivery
// paths).
const schema = `
	CREATE TABLE IF NOT EXISTS workspace_members (
		workspace_slug TEXT NOT NULL,
		user_id        TEXT NOT NULL,
		user_name      TEXT NOT NULL DEFAULT '',
		user_image     TEXT NOT NULL DEFAULT '',
		role           TEXT NOT NULL DEFAULT 'member',
		PRIMARY KEY (workspace_slug, user_id)
	);

	CREATE TABLE IF NOT EXISTS channels (
		id             TEXT PRIMARY KEY,
		workspace_slug TEXT NOT NULL,
		name           TEXT NOT NULL,
		created_by     TEXT NOT NULL,
		created_at     DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_channels_workspace
		ON channels(workspace_slug);

	CREATE TABLE IF NOT EXISTS messages (
		id             TEXT PRIMARY KEY,
		channel_id     TEXT NOT NULL,
		workspace_slug TEXT NOT NULL,
		user_id        TEXT NOT NULL,
		user_name      TEXT NOT NULL DEFAULT '',
		user_image     TEXT NOT NULL DEFAULT '',
		content        TEXT NOT NULL,
		created_at     DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_channel_created
		ON messages(channel_id, created_at DESC);
`

// EnsureSchema creates all tables and indexes if they do not exist. The
// polling bridge depends on idx_messages_channel_created: every tick is a
// (channel_id, created_at) range scan.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
