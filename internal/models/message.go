package models

import "time"

// MaxAttachments caps the images stored per message, post or comment.
const MaxAttachments = 2

// Message is a private message between two users.
type Message struct {
	ID         string    `db:"id" json:"id"`
	SenderID   string    `db:"sender_id" json:"sender_id"`
	ReceiverID string    `db:"receiver_id" json:"receiver_id"`
	Content    string    `db:"content" json:"content"`
	Read       bool      `db:"read" json:"read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	Sender     User      `db:"sender" json:"sender"`
	Receiver   User      `db:"receiver" json:"receiver"`
	Images     []string  `db:"-" json:"images"`
}

// ConversationSummary is one row of a user's derived conversation list.
type ConversationSummary struct {
	Counterpart   User      `db:"counterpart" json:"counterpart"`
	LastMessage   string    `db:"last_message" json:"last_message"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	UnreadCount   int       `db:"unread_count" json:"unread_count"`
}

// InboxEvent is pushed over a user's websocket connections.
type InboxEvent struct {
	Type          string   `json:"type"`
	Message       *Message `json:"message,omitempty"`
	MessageID     string   `json:"message_id,omitempty"`
	CounterpartID string   `json:"counterpart_id,omitempty"`
	Count         int64    `json:"count,omitempty"`
}
