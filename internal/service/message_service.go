package service

import (
	"context"
	"strings"

	"github.com/zyphex-tech/realtime-service/internal/domain"
	"github.com/zyphex-tech/realtime-service/pkg/errs"
)

const maxContentLen = 4000

type MessageStore interface {
	SaveMessage(ctx context.Context, m *domain.Message) error
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
	SaveReaction(ctx context.Context, r *domain.Reaction) (created bool, err error)
	UpsertReadReceipt(ctx context.Context, messageID, userID string) (*domain.ReadReceipt, error)
}

type ChannelGuard interface {
	CanAccessChannel(ctx context.Context, userID, channelID string) (domain.Decision, error)
}

// MessageService persists messages, reactions and read receipts. Routing
// of the resulting events is the transport's concern.
type MessageService struct {
	store  MessageStore
	access ChannelGuard
}

func NewMessageService(store MessageStore, access ChannelGuard) *MessageService {
	return &MessageService{store: store, access: access}
}

type SendInput struct {
	ChannelID   *string
	ReceiverID  *string
	ReplyToID   *string
	Content     string
	MessageType string
}

// Send validates and persists a message. Channel sends re-run the channel
// access check at send time, independent of any earlier join-time check;
// a denial persists nothing.
func (s *MessageService) Send(ctx context.Context, sender *domain.User, in SendInput) (*domain.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, errs.InvalidArg("empty message")
	}
	if len(content) > maxContentLen {
		return nil, errs.InvalidArg("message too long")
	}

	hasChannel := in.ChannelID != nil && *in.ChannelID != ""
	hasReceiver := in.ReceiverID != nil && *in.ReceiverID != ""
	if hasChannel == hasReceiver {
		return nil, errs.InvalidArg("exactly one of channel_id or receiver_id is required")
	}

	if hasChannel {
		decision, err := s.access.CanAccessChannel(ctx, sender.ID, *in.ChannelID)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			return nil, DenyError(decision)
		}
	}

	msgType := in.MessageType
	if msgType == "" {
		msgType = "text"
	}

	m := &domain.Message{
		SenderID:    sender.ID,
		Content:     content,
		MessageType: msgType,
		ReplyToID:   in.ReplyToID,
		Sender:      *sender,
	}
	if hasChannel {
		m.ChannelID = in.ChannelID
	} else {
		m.ReceiverID = in.ReceiverID
	}

	if err := s.store.SaveMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

type ReactionResult struct {
	Reaction *domain.Reaction
	Message  *domain.Message
	// Created is false when the same (message, user, emoji) reaction
	// already existed; callers skip the broadcast in that case.
	Created bool
}

func (s *MessageService) AddReaction(ctx context.Context, userID, messageID, emoji string) (*ReactionResult, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, errs.InvalidArg("empty emoji")
	}

	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	re := &domain.Reaction{MessageID: messageID, UserID: userID, Emoji: emoji}
	created, err := s.store.SaveReaction(ctx, re)
	if err != nil {
		return nil, err
	}
	return &ReactionResult{Reaction: re, Message: m, Created: created}, nil
}

type ReadResult struct {
	Receipt *domain.ReadReceipt
	Message *domain.Message
}

// MarkRead upserts the (message, reader) receipt. Idempotent: a repeat
// call refreshes the timestamp only.
func (s *MessageService) MarkRead(ctx context.Context, userID, messageID string) (*ReadResult, error) {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	rr, err := s.store.UpsertReadReceipt(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	return &ReadResult{Receipt: rr, Message: m}, nil
}
