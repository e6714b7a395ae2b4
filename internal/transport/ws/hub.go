package ws

import (
	"sync"

	"github.com/zyphex-tech/realtime-service/internal/domain"
)

type RoomKind string

const (
	RoomChannel RoomKind = "channel"
	RoomProject RoomKind = "project"
)

// RoomKey identifies an in-memory fan-out room. Rooms exist only while
// they have members; they are created lazily on first join and removed
// when the last member leaves.
type RoomKey struct {
	Kind RoomKind
	ID   string
}

func joinedEventType(k RoomKind) string {
	if k == RoomProject {
		return TypeUserJoinedProject
	}
	return TypeUserJoinedChannel
}

func leftEventType(k RoomKind) string {
	if k == RoomProject {
		return TypeUserLeftProject
	}
	return TypeUserLeftChannel
}

type Conn interface {
	Send(ev Event) error
	Close() error
	ID() string
	User() domain.User
}

// Hub holds the process-local presence and room membership state. It is
// constructed once at startup and passed to every consumer by reference,
// so tests can run any number of isolated instances.
//
// Presence maps a user to the SET of that user's live connections: a
// second device does not evict the first, and notifications fan out to
// every entry.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[RoomKey]map[Conn]struct{}
	joined   map[Conn]map[RoomKey]struct{}
	presence map[string]map[Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[RoomKey]map[Conn]struct{}),
		joined:   make(map[Conn]map[RoomKey]struct{}),
		presence: make(map[string]map[Conn]struct{}),
	}
}

// Register records a freshly authenticated connection in presence. This
// is the connection's private per-user delivery channel.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	uid := c.User().ID
	set, ok := h.presence[uid]
	if !ok {
		set = make(map[Conn]struct{})
		h.presence[uid] = set
	}
	set[c] = struct{}{}
	h.joined[c] = make(map[RoomKey]struct{})
}

// Unregister removes the connection from presence and from every room it
// is still in, and returns the rooms it was removed from so the caller
// can broadcast the leave events. Only the closing connection is
// evicted; other devices of the same user stay registered.
func (h *Hub) Unregister(c Conn) []RoomKey {
	h.mu.Lock()
	defer h.mu.Unlock()

	uid := c.User().ID
	if set, ok := h.presence[uid]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.presence, uid)
		}
	}

	keys := make([]RoomKey, 0, len(h.joined[c]))
	for key := range h.joined[c] {
		h.removeFromRoom(c, key)
		keys = append(keys, key)
	}
	delete(h.joined, c)
	return keys
}

// Join adds the connection to the room and records the room in the
// connection's own room set. Returns false if it was already a member.
func (h *Hub) Join(c Conn, key RoomKey) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.joined[c]
	if !ok {
		// Not registered; nothing to do.
		return false
	}
	if _, already := set[key]; already {
		return false
	}
	set[key] = struct{}{}

	rs, ok := h.rooms[key]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[key] = rs
	}
	rs[c] = struct{}{}
	return true
}

// Leave is the inverse of Join. Returns false if the connection was not
// a member, in which case nothing changes.
func (h *Hub) Leave(c Conn, key RoomKey) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.joined[c]
	if !ok {
		return false
	}
	if _, member := set[key]; !member {
		return false
	}
	delete(set, key)
	h.removeFromRoom(c, key)
	return true
}

// caller must hold h.mu
func (h *Hub) removeFromRoom(c Conn, key RoomKey) {
	if rs, ok := h.rooms[key]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, key)
		}
	}
}

// Broadcast delivers the event to every connection in the room, best
// effort. except, when non-nil, is skipped (used for join/leave/typing
// events that never echo to their originator).
func (h *Hub) Broadcast(key RoomKey, ev Event, except Conn) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[key] {
		if c == except {
			continue
		}
		_ = c.Send(ev)
	}
}

// Notify delivers the event to every live connection of the user. When
// the user has no registered connection this is a silent no-op: the
// durable message record, not this notification, is the source of truth.
func (h *Hub) Notify(userID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.presence[userID] {
		_ = c.Send(ev)
	}
}

// Outward surface consumed by REST handlers and other in-process
// subsystems.

func (h *Hub) NotifyUser(userID, event string, payload any) {
	h.Notify(userID, Event{Type: event, Payload: payload})
}

func (h *Hub) BroadcastToChannel(channelID, event string, payload any) {
	h.Broadcast(RoomKey{Kind: RoomChannel, ID: channelID}, Event{Type: event, Payload: payload}, nil)
}

func (h *Hub) BroadcastToProject(projectID, event string, payload any) {
	h.Broadcast(RoomKey{Kind: RoomProject, ID: projectID}, Event{Type: event, Payload: payload}, nil)
}

func (h *Hub) BroadcastToRole(role domain.Role, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ev := Event{Type: event, Payload: payload}
	for c := range h.joined {
		if c.User().Role == role {
			_ = c.Send(ev)
		}
	}
}

func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.presence[userID]) > 0
}

// RoomMembers returns the distinct user ids currently in the room.
func (h *Hub) RoomMembers(kind RoomKind, id string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0, len(h.rooms[RoomKey{Kind: kind, ID: id}]))
	for c := range h.rooms[RoomKey{Kind: kind, ID: id}] {
		uid := c.User().ID
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		out = append(out, uid)
	}
	return out
}

func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.joined)
}
