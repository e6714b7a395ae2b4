package domain

import "time"

type Message struct {
	ID          string    `db:"id"`
	SenderID    string    `db:"sender_id"`
	ChannelID   *string   `db:"channel_id"`
	ReceiverID  *string   `db:"receiver_id"`
	ReplyToID   *string   `db:"reply_to_id"`
	Content     string    `db:"content"`
	MessageType string    `db:"message_type"`
	CreatedAt   time.Time `db:"created_at"`

	// Denormalized sender snapshot so receivers can render the message
	// without a directory round-trip.
	Sender User `db:"-"`
}

// Direct reports whether the message was addressed to a single user
// rather than a channel.
func (m *Message) Direct() bool {
	return m.ChannelID == nil && m.ReceiverID != nil
}

type Reaction struct {
	MessageID string    `db:"message_id"`
	UserID    string    `db:"user_id"`
	Emoji     string    `db:"emoji"`
	CreatedAt time.Time `db:"created_at"`
}

type ReadReceipt struct {
	MessageID string    `db:"message_id"`
	UserID    string    `db:"user_id"`
	ReadAt    time.Time `db:"read_at"`
}
