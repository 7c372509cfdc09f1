package model

import "time"

// Message is a simple mailbox record between two users (typically a
// buyer asking a farmer about a listing).  Unrelated to the order flow.
type Message struct {
	ID         uint64    // messages.id
	SenderID   uint64    // messages.sender_id
	ReceiverID uint64    // messages.receiver_id
	Content    string    // messages.content
	IsRead     bool      // messages.is_read
	CreatedAt  time.Time // messages.created_at
}
