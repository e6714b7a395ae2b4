package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zyphex-tech/realtime-service/internal/domain"
	"github.com/zyphex-tech/realtime-service/internal/service"
	"github.com/zyphex-tech/realtime-service/pkg/errs"

	"github.com/gorilla/websocket"
)

type AuthSvc interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type AccessSvc interface {
	CanAccessChannel(ctx context.Context, userID, channelID string) (domain.Decision, error)
	CanAccessProject(ctx context.Context, userID, projectID string) (domain.Decision, error)
}

type MessageSvc interface {
	Send(ctx context.Context, sender *domain.User, in service.SendInput) (*domain.Message, error)
	AddReaction(ctx context.Context, userID, messageID, emoji string) (*service.ReactionResult, error)
	MarkRead(ctx context.Context, userID, messageID string) (*service.ReadResult, error)
}

type Options struct {
	PingInterval time.Duration
	StoreTimeout time.Duration
	ReadLimit    int64
}

// Server owns the per-connection lifecycle: handshake authentication,
// the event loop, and disconnect cleanup.
type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	auth     AuthSvc
	access   AccessSvc
	messages MessageSvc

	pingEvery    time.Duration
	storeTimeout time.Duration
	readLimit    int64
}

func NewServer(hub *Hub, auth AuthSvc, access AccessSvc, messages MessageSvc, opts Options) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 15 * time.Second
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 10 * time.Second
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 1 << 20
	}
	return &Server{
		hub:      hub,
		auth:     auth,
		access:   access,
		messages: messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery:    opts.PingInterval,
		storeTimeout: opts.StoreTimeout,
		readLimit:    opts.ReadLimit,
	}
}

// WS endpoint: GET /ws?token=... (Authorization: Bearer also accepted).
// The credential is verified before the upgrade; a refused connection
// never reaches the event loop.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimSpace(auth[len("Bearer "):])
		}
	}

	authCtx, cancel := context.WithTimeout(r.Context(), s.storeTimeout)
	user, err := s.auth.Authenticate(authCtx, token)
	cancel()
	if err != nil {
		slog.Warn("ws handshake refused", "err", err)
		http.Error(w, errs.MessageOf(err), http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "user", user.ID, "err", err)
		return
	}

	c := newWsConn(conn, *user)
	s.hub.Register(c)
	slog.Info("ws connected", "user", user.ID, "conn", c.ID())

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	// Disconnect cleanup: presence first, then an implicit leave with
	// broadcast for every room still in the connection's room set, so
	// remaining members always learn a participant left, explicit leave
	// or not.
	left := s.hub.Unregister(c)
	for _, key := range left {
		s.hub.Broadcast(key, peerEvent(leftEventType(key.Kind), key, c.user), nil)
	}

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "user", user.ID, "conn", c.ID(), "err", err)
	}
	slog.Info("ws disconnected", "user", user.ID, "conn", c.ID())
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(s.readLimit)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			s.sendError(c, errs.InvalidArg("malformed event"))
			continue
		}
		// One failed handler surfaces a single error event to this
		// connection and nothing else; no partial state is left behind.
		if err := s.dispatch(ctx, c, ev); err != nil {
			slog.Debug("ws event failed",
				"user", c.user.ID, "conn", c.ID(), "type", ev.Type, "err", err)
			s.sendError(c, err)
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, c *wsConn, ev Event) error {
	// Bounded per-event timeout so one stalled store call cannot starve
	// the connection indefinitely.
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	switch ev.Type {
	case TypeJoinChannel:
		var p JoinChannelPayload
		if err := decode(ev.Payload, &p); err != nil || p.ChannelID == "" {
			return errs.InvalidArg("join_channel requires channel_id")
		}
		return s.handleJoin(ctx, c, RoomKey{Kind: RoomChannel, ID: p.ChannelID})

	case TypeLeaveChannel:
		var p JoinChannelPayload
		if err := decode(ev.Payload, &p); err != nil || p.ChannelID == "" {
			return errs.InvalidArg("leave_channel requires channel_id")
		}
		s.handleLeave(c, RoomKey{Kind: RoomChannel, ID: p.ChannelID})
		return nil

	case TypeJoinProject:
		var p JoinProjectPayload
		if err := decode(ev.Payload, &p); err != nil || p.ProjectID == "" {
			return errs.InvalidArg("join_project requires project_id")
		}
		return s.handleJoin(ctx, c, RoomKey{Kind: RoomProject, ID: p.ProjectID})

	case TypeLeaveProject:
		var p JoinProjectPayload
		if err := decode(ev.Payload, &p); err != nil || p.ProjectID == "" {
			return errs.InvalidArg("leave_project requires project_id")
		}
		s.handleLeave(c, RoomKey{Kind: RoomProject, ID: p.ProjectID})
		return nil

	case TypeSendMessage:
		var p SendMessagePayload
		if err := decode(ev.Payload, &p); err != nil {
			return errs.InvalidArg("malformed send_message payload")
		}
		return s.handleSendMessage(ctx, c, p)

	case TypeAddReaction:
		var p AddReactionPayload
		if err := decode(ev.Payload, &p); err != nil || p.MessageID == "" {
			return errs.InvalidArg("add_reaction requires message_id")
		}
		return s.handleAddReaction(ctx, c, p)

	case TypeTypingStart, TypeTypingStop:
		var p TypingPayload
		if err := decode(ev.Payload, &p); err != nil {
			return errs.InvalidArg("malformed typing payload")
		}
		s.handleTyping(c, ev.Type, p)
		return nil

	case TypeMarkRead:
		var p MarkReadPayload
		if err := decode(ev.Payload, &p); err != nil || p.MessageID == "" {
			return errs.InvalidArg("mark_message_read requires message_id")
		}
		return s.handleMarkRead(ctx, c, p)

	default:
		return errs.InvalidArg("unknown event type")
	}
}

// handleJoin re-checks authorization at join time. A denial mutates
// nothing and surfaces exactly one error event.
func (s *Server) handleJoin(ctx context.Context, c *wsConn, key RoomKey) error {
	var (
		decision domain.Decision
		err      error
	)
	switch key.Kind {
	case RoomProject:
		decision, err = s.access.CanAccessProject(ctx, c.user.ID, key.ID)
	default:
		decision, err = s.access.CanAccessChannel(ctx, c.user.ID, key.ID)
	}
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return errs.Forbidden(decision.Reason)
	}

	if s.hub.Join(c, key) {
		s.hub.Broadcast(key, peerEvent(joinedEventType(key.Kind), key, c.user), c)
	}
	return nil
}

func (s *Server) handleLeave(c *wsConn, key RoomKey) {
	if s.hub.Leave(c, key) {
		s.hub.Broadcast(key, peerEvent(leftEventType(key.Kind), key, c.user), c)
	}
}

func (s *Server) handleSendMessage(ctx context.Context, c *wsConn, p SendMessagePayload) error {
	m, err := s.messages.Send(ctx, &c.user, service.SendInput{
		ChannelID:   p.ChannelID,
		ReceiverID:  p.ReceiverID,
		ReplyToID:   p.ReplyToID,
		Content:     p.Content,
		MessageType: p.MessageType,
	})
	if err != nil {
		return err
	}

	item := messageItem(m)
	if m.ChannelID != nil {
		s.hub.Broadcast(RoomKey{Kind: RoomChannel, ID: *m.ChannelID},
			Event{Type: TypeNewMessage, Payload: item}, nil)
		return nil
	}

	// Direct path: best-effort delivery to the receiver's live
	// connections, ack back to the sender's own connection.
	s.hub.Notify(*m.ReceiverID, Event{Type: TypeNewMessage, Payload: item})
	return c.Send(Event{Type: TypeMessageSent, Payload: MessageSentPayload{
		MessageID: m.ID,
		CreatedAt: m.CreatedAt,
	}})
}

func (s *Server) handleAddReaction(ctx context.Context, c *wsConn, p AddReactionPayload) error {
	res, err := s.messages.AddReaction(ctx, c.user.ID, p.MessageID, p.Emoji)
	if err != nil {
		return err
	}
	if !res.Created {
		// Duplicate reaction; nothing new to announce.
		return nil
	}

	payload := ReactionAddedPayload{
		MessageID: res.Reaction.MessageID,
		ChannelID: res.Message.ChannelID,
		UserID:    res.Reaction.UserID,
		Emoji:     res.Reaction.Emoji,
	}
	ev := Event{Type: TypeReactionAdded, Payload: payload}

	if res.Message.ChannelID != nil {
		s.hub.Broadcast(RoomKey{Kind: RoomChannel, ID: *res.Message.ChannelID}, ev, nil)
		return nil
	}

	// Direct messages have no room; notify both original participants.
	s.hub.Notify(res.Message.SenderID, ev)
	if res.Message.ReceiverID != nil {
		s.hub.Notify(*res.Message.ReceiverID, ev)
	}
	return nil
}

// Typing relay is ephemeral: nothing is persisted and no authorization
// re-check runs, trust is inherited from the prior room join.
func (s *Server) handleTyping(c *wsConn, inType string, p TypingPayload) {
	outType := TypeUserTyping
	if inType == TypeTypingStop {
		outType = TypeUserStoppedTyping
	}
	payload := TypingEventPayload{ChannelID: p.ChannelID, User: userRef(c.user)}
	ev := Event{Type: outType, Payload: payload}

	if p.ChannelID != nil && *p.ChannelID != "" {
		s.hub.Broadcast(RoomKey{Kind: RoomChannel, ID: *p.ChannelID}, ev, c)
		return
	}
	if p.ReceiverID != nil && *p.ReceiverID != "" {
		s.hub.Notify(*p.ReceiverID, ev)
	}
}

func (s *Server) handleMarkRead(ctx context.Context, c *wsConn, p MarkReadPayload) error {
	res, err := s.messages.MarkRead(ctx, c.user.ID, p.MessageID)
	if err != nil {
		return err
	}

	ev := Event{Type: TypeMessageRead, Payload: MessageReadPayload{
		MessageID: res.Receipt.MessageID,
		UserID:    res.Receipt.UserID,
		ReadAt:    res.Receipt.ReadAt,
	}}

	// The sender always learns their message was seen.
	s.hub.Notify(res.Message.SenderID, ev)

	// Channel-scoped reads feed the shared "seen by" state.
	if res.Message.ChannelID != nil {
		s.hub.Broadcast(RoomKey{Kind: RoomChannel, ID: *res.Message.ChannelID}, ev, nil)
	}
	return nil
}

func (s *Server) sendError(c *wsConn, err error) {
	_ = c.Send(Event{Type: TypeError, Payload: ErrorPayload{Message: errs.MessageOf(err)}})
}

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
