package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/tumgpt/chat-backend/internal/apperror"
	"github.com/tumgpt/chat-backend/internal/model"
	"github.com/tumgpt/chat-backend/internal/repository"
)

// MessageStore implements repository.MessageRepository over the shared pool.
type MessageStore struct {
	conn *sql.DB
}

var _ repository.MessageRepository = (*MessageStore)(nil)

const messageColumns = `id, sender_id, message, response, collection, created_at, updated_at`

// Create inserts a new message and fills in the generated fields.
//
// The primary key is a UUID like the user id. The collection is different:
// when the caller didn't pick one, we mint an xid — 20 chars, URL-safe,
// time-sortable — which is compact enough to pass around as a conversation
// handle.
func (s *MessageStore) Create(ctx context.Context, msg *model.Message) error {
	msg.ID = uuid.NewString()
	if msg.Collection == "" {
		msg.Collection = xid.New().String()
	}

	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.SenderID,
		msg.Message,
		msg.Response,
		msg.Collection,
		msg.CreatedAt,
		msg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating message: %w", err)
	}

	return nil
}

// GetByID retrieves a single message.
// Returns apperror.ErrNotFound (wrapped) if it doesn't exist — the service
// layer relies on that to produce its 404-before-403 ordering.
func (s *MessageStore) GetByID(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message

	err := s.conn.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`,
		id,
	).Scan(
		&m.ID,
		&m.SenderID,
		&m.Message,
		&m.Response,
		&m.Collection,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("message", id)
		}
		return nil, fmt.Errorf("sqlite: getting message %s: %w", id, err)
	}

	return &m, nil
}

// List returns all messages regardless of owner, newest first.
// Only the admin listing endpoint reaches this.
func (s *MessageStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Message, error) {
	return s.queryMessages(ctx, opts,
		`SELECT `+messageColumns+` FROM messages
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`)
}

// ListBySender returns one user's messages, newest first.
func (s *MessageStore) ListBySender(ctx context.Context, senderID string, opts repository.ListOptions) ([]model.Message, error) {
	return s.queryMessages(ctx, opts,
		`SELECT `+messageColumns+` FROM messages
		 WHERE sender_id = ?
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`, senderID)
}

// ListByCollection returns one user's messages within a collection, oldest
// first — a conversation reads top to bottom.
func (s *MessageStore) ListByCollection(ctx context.Context, senderID, collection string, opts repository.ListOptions) ([]model.Message, error) {
	return s.queryMessages(ctx, opts,
		`SELECT `+messageColumns+` FROM messages
		 WHERE sender_id = ? AND collection = ?
		 ORDER BY created_at ASC LIMIT ? OFFSET ?`, senderID, collection)
}

// queryMessages runs a multi-row message query. The pagination pair is always
// the trailing two placeholders, so the variadic filters come first.
func (s *MessageStore) queryMessages(ctx context.Context, opts repository.ListOptions, query string, filters ...any) ([]model.Message, error) {
	limit, offset := clampListOptions(opts)
	args := append(filters, limit, offset)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0, limit)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(
			&m.ID, &m.SenderID, &m.Message, &m.Response, &m.Collection,
			&m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating messages: %w", err)
	}

	return messages, nil
}

// Update persists the mutable fields: message body and collection. Sender,
// response, id, and created_at never change here — ownership is immutable
// and the stubbed response belongs to the original body's creation.
func (s *MessageStore) Update(ctx context.Context, msg *model.Message) error {
	msg.UpdatedAt = time.Now().UTC()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE messages
		 SET message = ?, collection = ?, updated_at = ?
		 WHERE id = ?`,
		msg.Message,
		msg.Collection,
		msg.UpdatedAt,
		msg.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating message %s: %w", msg.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("message", msg.ID)
	}

	return nil
}

// Delete removes a message by id.
func (s *MessageStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting message %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("message", id)
	}

	return nil
}
