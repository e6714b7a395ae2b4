package ws

import (
	"time"

	"github.com/zyphex-tech/realtime-service/internal/domain"
)

// Inbound event types.
const (
	TypeJoinChannel  = "join_channel"
	TypeLeaveChannel = "leave_channel"
	TypeJoinProject  = "join_project"
	TypeLeaveProject = "leave_project"
	TypeSendMessage  = "send_message"
	TypeAddReaction  = "add_reaction"
	TypeTypingStart  = "typing_start"
	TypeTypingStop   = "typing_stop"
	TypeMarkRead     = "mark_message_read"
)

// Outbound event types.
const (
	TypeUserJoinedChannel = "user_joined_channel"
	TypeUserJoinedProject = "user_joined_project"
	TypeUserLeftChannel   = "user_left_channel"
	TypeUserLeftProject   = "user_left_project"
	TypeNewMessage        = "new_message"
	TypeMessageSent       = "message_sent"
	TypeReactionAdded     = "message_reaction_added"
	TypeUserTyping        = "user_typing"
	TypeUserStoppedTyping = "user_stopped_typing"
	TypeMessageRead       = "message_read"
	TypeError             = "error"
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JoinChannelPayload struct {
	ChannelID string `json:"channel_id"`
}

type JoinProjectPayload struct {
	ProjectID string `json:"project_id"`
}

type SendMessagePayload struct {
	ChannelID   *string `json:"channel_id,omitempty"`
	ReceiverID  *string `json:"receiver_id,omitempty"`
	ReplyToID   *string `json:"reply_to_id,omitempty"`
	Content     string  `json:"content"`
	MessageType string  `json:"message_type,omitempty"`
}

type AddReactionPayload struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type TypingPayload struct {
	ChannelID  *string `json:"channel_id,omitempty"`
	ReceiverID *string `json:"receiver_id,omitempty"`
}

type MarkReadPayload struct {
	MessageID string `json:"message_id"`
}

type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PeerEventPayload is shared by the user_joined_* / user_left_* events;
// exactly one of ChannelID/ProjectID is set, matching the event type.
type PeerEventPayload struct {
	ChannelID string  `json:"channel_id,omitempty"`
	ProjectID string  `json:"project_id,omitempty"`
	User      UserRef `json:"user"`
}

type MessageItem struct {
	ID          string    `json:"id"`
	ChannelID   *string   `json:"channel_id,omitempty"`
	ReceiverID  *string   `json:"receiver_id,omitempty"`
	ReplyToID   *string   `json:"reply_to_id,omitempty"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
	Sender      UserRef   `json:"sender"`
}

type MessageSentPayload struct {
	MessageID string    `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ReactionAddedPayload struct {
	MessageID string  `json:"message_id"`
	ChannelID *string `json:"channel_id,omitempty"`
	UserID    string  `json:"user_id"`
	Emoji     string  `json:"emoji"`
}

type TypingEventPayload struct {
	ChannelID *string `json:"channel_id,omitempty"`
	User      UserRef `json:"user"`
}

type MessageReadPayload struct {
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func userRef(u domain.User) UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}

func messageItem(m *domain.Message) MessageItem {
	return MessageItem{
		ID:          m.ID,
		ChannelID:   m.ChannelID,
		ReceiverID:  m.ReceiverID,
		ReplyToID:   m.ReplyToID,
		Content:     m.Content,
		MessageType: m.MessageType,
		CreatedAt:   m.CreatedAt,
		Sender:      userRef(m.Sender),
	}
}

func peerEvent(eventType string, key RoomKey, u domain.User) Event {
	p := PeerEventPayload{User: userRef(u)}
	switch key.Kind {
	case RoomChannel:
		p.ChannelID = key.ID
	case RoomProject:
		p.ProjectID = key.ID
	}
	return Event{Type: eventType, Payload: p}
}
