package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

type sseConn struct {
	mu        sync.Mutex
	w         http.ResponseWriter
	flusher   http.Flusher
	roomCode  string
	closed    chan struct{}
	closeOnce sync.Once
}

func newSSEConn(w http.ResponseWriter, flusher http.Flusher, roomCode string) *sseConn {
	return &sseConn{
		w:        w,
		flusher:  flusher,
		roomCode: roomCode,
		closed:   make(chan struct{}),
	}
}

func (c *sseConn) Send(ev Event) error {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	return c.write(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Name, data))
}

func (c *sseConn) heartbeat() error {
	return c.write(":heartbeat\n\n")
}

func (c *sseConn) write(chunk string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return http.ErrHandlerTimeout
	default:
	}
	if _, err := fmt.Fprint(c.w, chunk); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

func (c *sseConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *sseConn) RoomCode() string { return c.roomCode }

// SSE endpoint: GET /api/rooms/{code}/stream?token=...
// Held open indefinitely: a connected ack first, then mutation events, with a
// heartbeat comment every 15s to surface half-open connections.
func (s *Server) HandleSSE(w http.ResponseWriter, r *http.Request) {
	roomCode, ok := s.authorize(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	c := newSSEConn(w, flusher, roomCode)
	if err := c.Send(Event{Name: EventConnected, Payload: map[string]any{
		"ok": true,
		"at": time.Now().UTC(),
	}}); err != nil {
		return
	}

	s.hub.Add(c)
	defer func() {
		s.hub.Remove(c)
		_ = c.Close()
	}()

	ticker := time.NewTicker(s.heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.closed:
			return
		case <-ticker.C:
			if err := c.heartbeat(); err != nil {
				return
			}
		}
	}
}
