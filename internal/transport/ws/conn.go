package ws

import (
	"time"

	"github.com/zyphex-tech/realtime-service/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type wsConn struct {
	conn   *websocket.Conn
	id     string
	user   domain.User
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn, user domain.User) *wsConn {
	return &wsConn{
		conn:   c,
		id:     uuid.New().String(),
		user:   user,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// Send serializes concurrent writers; gorilla allows one writer at a time.
func (c *wsConn) Send(ev Event) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(ev)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) ID() string        { return c.id }
func (c *wsConn) User() domain.User { return c.user }
