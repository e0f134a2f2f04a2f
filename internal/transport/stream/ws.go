package stream

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type wsConn struct {
	conn      *websocket.Conn
	roomCode  string
	sendMu    chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newWSConn(c *websocket.Conn, roomCode string) *wsConn {
	return &wsConn{
		conn:     c,
		roomCode: roomCode,
		sendMu:   make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

func (c *wsConn) Send(ev Event) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(ev)
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}

func (c *wsConn) RoomCode() string { return c.roomCode }

// WS endpoint: GET /ws/rooms/{code}?token=...
// One-way: the server pushes the same events the SSE stream carries; inbound
// frames are drained only to detect the peer going away.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomCode, ok := s.authorize(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "room", roomCode, "err", err)
		return
	}

	c := newWSConn(conn, roomCode)
	s.hub.Add(c)

	if err := c.Send(Event{Name: EventConnected, Payload: map[string]any{
		"ok": true,
		"at": time.Now().UTC(),
	}}); err != nil {
		slog.Debug("ws connected ack failed", "room", roomCode, "err", err)
	}

	go s.pingLoop(c)
	s.readLoop(c)

	s.hub.Remove(c)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomCode, "err", err)
	}
}

func (s *Server) readLoop(c *wsConn) {
	c.conn.SetReadLimit(1 << 16)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.heartbeatEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.heartbeatEvery))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) pingLoop(c *wsConn) {
	ticker := time.NewTicker(s.heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}
