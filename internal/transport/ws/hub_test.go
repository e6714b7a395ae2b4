package ws

import (
	"sync"
	"testing"

	"github.com/zyphex-tech/realtime-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id   string
	user domain.User

	mu     sync.Mutex
	events []Event
}

func newFakeConn(id string, user domain.User) *fakeConn {
	return &fakeConn{id: id, user: user}
}

func (c *fakeConn) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *fakeConn) Close() error      { return nil }
func (c *fakeConn) ID() string        { return c.id }
func (c *fakeConn) User() domain.User { return c.user }

func (c *fakeConn) received() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

var (
	alice = domain.User{ID: "alice", Name: "Alice", Role: domain.RoleTeamMember}
	bob   = domain.User{ID: "bob", Name: "Bob", Role: domain.RoleTeamMember}
	carol = domain.User{ID: "carol", Name: "Carol", Role: domain.RoleAdmin}
)

func TestHub_JoinAndBroadcast(t *testing.T) {
	hub := NewHub()
	a := newFakeConn("c1", alice)
	b := newFakeConn("c2", bob)
	hub.Register(a)
	hub.Register(b)

	general := RoomKey{Kind: RoomChannel, ID: "general"}
	require.True(t, hub.Join(a, general))
	require.True(t, hub.Join(b, general))

	// Second join of the same room is a no-op.
	assert.False(t, hub.Join(a, general))

	hub.Broadcast(general, Event{Type: TypeNewMessage}, nil)
	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 1)

	// except skips the originator.
	hub.Broadcast(general, Event{Type: TypeUserTyping}, a)
	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 2)
}

func TestHub_LeaveRemovesMembership(t *testing.T) {
	hub := NewHub()
	a := newFakeConn("c1", alice)
	hub.Register(a)

	key := RoomKey{Kind: RoomProject, ID: "apollo"}
	require.True(t, hub.Join(a, key))
	require.True(t, hub.Leave(a, key))

	// Leaving twice is a no-op, and the empty room is gone.
	assert.False(t, hub.Leave(a, key))
	assert.Empty(t, hub.RoomMembers(RoomProject, "apollo"))

	hub.Broadcast(key, Event{Type: TypeNewMessage}, nil)
	assert.Empty(t, a.received())
}

func TestHub_UnregisterCleansEverything(t *testing.T) {
	hub := NewHub()
	a := newFakeConn("c1", alice)
	b := newFakeConn("c2", bob)
	hub.Register(a)
	hub.Register(b)

	general := RoomKey{Kind: RoomChannel, ID: "general"}
	apollo := RoomKey{Kind: RoomProject, ID: "apollo"}
	hub.Join(a, general)
	hub.Join(a, apollo)
	hub.Join(b, general)

	left := hub.Unregister(a)
	assert.ElementsMatch(t, []RoomKey{general, apollo}, left)

	assert.False(t, hub.IsUserOnline("alice"))
	assert.Equal(t, []string{"bob"}, hub.RoomMembers(RoomChannel, "general"))
	assert.Empty(t, hub.RoomMembers(RoomProject, "apollo"))

	// Notify after unregister is a silent no-op.
	hub.NotifyUser("alice", TypeNewMessage, nil)
	assert.Empty(t, a.received())
}

func TestHub_MultiDevicePresence(t *testing.T) {
	hub := NewHub()
	phone := newFakeConn("c1", alice)
	laptop := newFakeConn("c2", alice)
	hub.Register(phone)
	hub.Register(laptop)

	// A second device does not evict the first.
	hub.Notify("alice", Event{Type: TypeNewMessage})
	assert.Len(t, phone.received(), 1)
	assert.Len(t, laptop.received(), 1)

	hub.Unregister(phone)
	assert.True(t, hub.IsUserOnline("alice"))

	hub.Notify("alice", Event{Type: TypeNewMessage})
	assert.Len(t, phone.received(), 1)
	assert.Len(t, laptop.received(), 2)

	hub.Unregister(laptop)
	assert.False(t, hub.IsUserOnline("alice"))
}

func TestHub_RoomMembersDeduplicatesUsers(t *testing.T) {
	hub := NewHub()
	phone := newFakeConn("c1", alice)
	laptop := newFakeConn("c2", alice)
	hub.Register(phone)
	hub.Register(laptop)

	general := RoomKey{Kind: RoomChannel, ID: "general"}
	hub.Join(phone, general)
	hub.Join(laptop, general)

	assert.Equal(t, []string{"alice"}, hub.RoomMembers(RoomChannel, "general"))
	assert.Equal(t, 2, hub.ConnectedCount())
}

func TestHub_BroadcastToRole(t *testing.T) {
	hub := NewHub()
	a := newFakeConn("c1", alice)
	c := newFakeConn("c2", carol)
	hub.Register(a)
	hub.Register(c)

	hub.BroadcastToRole(domain.RoleAdmin, "maintenance", map[string]string{"window": "22:00"})
	assert.Empty(t, a.received())
	require.Len(t, c.received(), 1)
	assert.Equal(t, "maintenance", c.received()[0].Type)
}

func TestHub_OutwardBroadcasts(t *testing.T) {
	hub := NewHub()
	a := newFakeConn("c1", alice)
	b := newFakeConn("c2", bob)
	hub.Register(a)
	hub.Register(b)

	hub.Join(a, RoomKey{Kind: RoomChannel, ID: "general"})
	hub.Join(b, RoomKey{Kind: RoomProject, ID: "apollo"})

	hub.BroadcastToChannel("general", TypeNewMessage, nil)
	hub.BroadcastToProject("apollo", TypeNewMessage, nil)

	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 1)
}
