package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	dbconfig "collabhub/pkg/database"
	"collabhub/pkg/interfaces"
	"collabhub/pkg/types"
)

// Manager implements interfaces.MessageStore over SQLite. Reads run
// concurrently on the connection pool; writes are serialized through a
// single goroutine, which SQLite requires for predictable performance under
// WAL.
type Manager struct {
	db           *sql.DB
	config       *dbconfig.Config
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex // protects closed
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewManager opens the database, applies pragmas and schema, and starts the
// write loop.
func NewManager(config *dbconfig.Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store configuration: %w", err)
	}

	db, err := sql.Open("sqlite3", config.DatabasePath+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := dbconfig.ApplySQLiteOptimizations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply SQLite optimizations: %w", err)
	}

	if err := dbconfig.EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	manager := &Manager{
		db:           db,
		config:       config,
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	manager.wg.Add(1)
	go manager.writeLoop()

	return manager, nil
}

// writeLoop processes all write operations in a single goroutine, retrying
// each failed write exactly once.
func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case op := <-m.writeChannel:
			err := op.operation(m.db)
			if err != nil {
				log.Printf("Store write failed, retrying in 5 seconds: %v", err)
				time.Sleep(5 * time.Second)
				err = op.operation(m.db)
				if err != nil {
					log.Printf("Store write failed after retry: %v", err)
				}
			}
			op.result <- err

		case <-m.shutdown:
			return
		}
	}
}

func (m *Manager) executeWrite(operation func(*sql.DB) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case m.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(30 * time.Second):
		return fmt.Errorf("write operation timeout")
	case <-m.shutdown:
		return fmt.Errorf("store is shutting down")
	}
}

// StoreMessage persists one message into the per-channel append-only
// sequence both delivery paths read from.
func (m *Manager) StoreMessage(ctx context.Context, message *types.Message) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO messages (id, channel_id, workspace_slug, user_id, user_name, user_image, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := db.ExecContext(ctx, query,
			message.ID,
			message.ChannelID,
			message.WorkspaceSlug,
			message.User.ID,
			message.User.Name,
			message.User.Image,
			message.Content,
			message.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		return nil
	})
}

// ListMessagesSince returns messages in a channel created at or after since,
// newest first, capped at limit rows.
func (m *Manager) ListMessagesSince(ctx context.Context, channelID string, since time.Time, limit int) ([]*types.Message, error) {
	query := `
		SELECT id, channel_id, workspace_slug, user_id, user_name, user_image, content, created_at
		FROM messages
		WHERE channel_id = ? AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := m.db.QueryContext(ctx, query, channelID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []*types.Message

	for rows.Next() {
		var message types.Message
		err := rows.Scan(
			&message.ID,
			&message.ChannelID,
			&message.WorkspaceSlug,
			&message.User.ID,
			&message.User.Name,
			&message.User.Image,
			&message.Content,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, &message)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

// CreateChannel persists a channel record, validating it first.
func (m *Manager) CreateChannel(ctx context.Context, channel *types.Channel) error {
	if err := channel.Validate(); err != nil {
		return err
	}

	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO channels (id, workspace_slug, name, created_by, created_at)
			VALUES (?, ?, ?, ?, ?)
		`
		_, err := db.ExecContext(ctx, query,
			channel.ID,
			channel.WorkspaceSlug,
			channel.Name,
			channel.CreatedBy,
			channel.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert channel: %w", err)
		}
		return nil
	})
}

// GetChannel retrieves a channel by id.
func (m *Manager) GetChannel(ctx context.Context, channelID string) (*types.Channel, error) {
	query := `
		SELECT id, workspace_slug, name, created_by, created_at
		FROM channels
		WHERE id = ?
	`

	row := m.db.QueryRowContext(ctx, query, channelID)

	var channel types.Channel
	err := row.Scan(
		&channel.ID,
		&channel.WorkspaceSlug,
		&channel.Name,
		&channel.CreatedBy,
		&channel.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, interfaces.ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to query channel: %w", err)
	}

	return &channel, nil
}

// RenameChannel updates a channel's name.
func (m *Manager) RenameChannel(ctx context.Context, channelID, name string) error {
	return m.executeWrite(func(db *sql.DB) error {
		result, err := db.ExecContext(ctx, `UPDATE channels SET name = ? WHERE id = ?`, name, channelID)
		if err != nil {
			return fmt.Errorf("failed to rename channel: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to rename channel: %w", err)
		}
		if affected == 0 {
			return interfaces.ErrChannelNotFound
		}
		return nil
	})
}

// DeleteChannel removes a channel record. Its messages stay: history of a
// deleted channel remains queryable until retention removes it.
func (m *Manager) DeleteChannel(ctx context.Context, channelID string) error {
	return m.executeWrite(func(db *sql.DB) error {
		result, err := db.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, channelID)
		if err != nil {
			return fmt.Errorf("failed to delete channel: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to delete channel: %w", err)
		}
		if affected == 0 {
			return interfaces.ErrChannelNotFound
		}
		return nil
	})
}

// MemberRole returns the role of a user in a workspace, or ErrNotMember.
func (m *Manager) MemberRole(ctx context.Context, workspaceSlug, userID string) (string, error) {
	query := `
		SELECT role FROM workspace_members
		WHERE workspace_slug = ? AND user_id = ?
	`

	var role string
	err := m.db.QueryRowContext(ctx, query, workspaceSlug, userID).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", interfaces.ErrNotMember
		}
		return "", fmt.Errorf("failed to query member role: %w", err)
	}

	return role, nil
}

// UpsertMember records workspace membership. Membership is written by the
// workspace CRUD surface; the real-time layer only reads it, so this is not
// part of the MessageStore interface.
func (m *Manager) UpsertMember(ctx context.Context, workspaceSlug string, user types.User, role string) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO workspace_members (workspace_slug, user_id, user_name, user_image, role)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(workspace_slug, user_id) DO UPDATE SET
				user_name = excluded.user_name,
				user_image = excluded.user_image,
				role = excluded.role
		`
		_, err := db.ExecContext(ctx, query, workspaceSlug, user.ID, user.Name, user.Image, role)
		if err != nil {
			return fmt.Errorf("failed to upsert member: %w", err)
		}
		return nil
	})
}

// HealthCheck validates connectivity and basic read access.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := m.db.QueryContext(ctx, "SELECT COUNT(*) FROM messages LIMIT 1"); err != nil {
		return fmt.Errorf("database read test failed: %w", err)
	}

	return nil
}

// Close drains the write loop and closes the connection pool.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.shutdown)
	m.wg.Wait()

	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
