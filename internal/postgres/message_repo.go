package postgres

import (
	"context"
	"errors"

	"github.com/zyphex-tech/realtime-service/internal/domain"
	"github.com/zyphex-tech/realtime-service/pkg/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// SaveMessage inserts the message and fills the store-generated id and
// timestamp. Messages are immutable once created.
func (r *MessageRepository) SaveMessage(ctx context.Context, m *domain.Message) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (sender_id, channel_id, receiver_id, reply_to_id, content, message_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, m.SenderID, m.ChannelID, m.ReceiverID, m.ReplyToID, m.Content, m.MessageType).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return errs.Unavailable("message insert failed", err)
	}
	return nil
}

func (r *MessageRepository) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	err := r.db.QueryRow(ctx, `
		SELECT m.id, m.sender_id, m.channel_id, m.receiver_id, m.reply_to_id,
		       m.content, m.message_type, m.created_at,
		       u.id, u.email, u.name, u.role
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.id=$1
	`, id).Scan(
		&m.ID, &m.SenderID, &m.ChannelID, &m.ReceiverID, &m.ReplyToID,
		&m.Content, &m.MessageType, &m.CreatedAt,
		&m.Sender.ID, &m.Sender.Email, &m.Sender.Name, &m.Sender.Role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("message not found")
		}
		return nil, errs.Unavailable("message lookup failed", err)
	}
	return &m, nil
}

// SaveReaction inserts a reaction; (message_id, user_id, emoji) is unique,
// so a repeat add is reported as created=false and leaves the row alone.
func (r *MessageRepository) SaveReaction(ctx context.Context, re *domain.Reaction) (bool, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO message_reactions (message_id, user_id, emoji)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id, emoji) DO NOTHING
		RETURNING created_at
	`, re.MessageID, re.UserID, re.Emoji).Scan(&re.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, errs.Unavailable("reaction insert failed", err)
	}
	return true, nil
}

// UpsertReadReceipt records that the user has seen the message. A repeat
// mark only refreshes read_at; there is never more than one row per
// (message_id, user_id).
func (r *MessageRepository) UpsertReadReceipt(ctx context.Context, messageID, userID string) (*domain.ReadReceipt, error) {
	rr := domain.ReadReceipt{MessageID: messageID, UserID: userID}
	err := r.db.QueryRow(ctx, `
		INSERT INTO message_reads (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO UPDATE SET read_at = now()
		RETURNING read_at
	`, messageID, userID).Scan(&rr.ReadAt)
	if err != nil {
		return nil, errs.Unavailable("read receipt upsert failed", err)
	}
	return &rr, nil
}
