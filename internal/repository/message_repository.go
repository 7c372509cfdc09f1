package repository

import (
	"context"
	"database/sql"

	"github.com/harvestly/farm-market/internal/model"
)

// MessageRepo is a plain mailbox: send, list inbox, mark read.
type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// Create inserts a message and populates the generated ID.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (sender_id, receiver_id, content) VALUES (?,?,?)",
		m.SenderID, m.ReceiverID, m.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Inbox returns messages received by a user, unread first, then newest.
func (r *MessageRepo) Inbox(ctx context.Context, userID uint64) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, content, is_read, created_at
		 FROM messages WHERE receiver_id=?
		 ORDER BY is_read, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	msgs := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkRead flags a message as read, but only for its receiver.
func (r *MessageRepo) MarkRead(ctx context.Context, id, receiverID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE messages SET is_read=1 WHERE id=? AND receiver_id=?", id, receiverID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM messages WHERE id=?)", id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}
		// Exists but not addressed to the caller (or already read by them).
		var mine bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM messages WHERE id=? AND receiver_id=?)", id, receiverID).Scan(&mine); err != nil {
			return err
		}
		if !mine {
			return ErrForbidden
		}
	}
	return nil
}
