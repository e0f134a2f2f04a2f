package stream

import (
	"sync"
)

// Conn is one live subscriber connection, either SSE or WebSocket.
type Conn interface {
	Send(ev Event) error
	Close() error
	RoomCode() string
}

// Hub tracks the open subscriber connections per room and fans events out to
// them. It only reaches subscribers of this process instance; there is no
// cross-process delivery.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{} // roomCode -> set of connections
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Conn]struct{})}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[c.RoomCode()]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[c.RoomCode()] = rs
	}
	rs[c] = struct{}{}
}

// Remove deregisters a connection; the room's set is dropped once empty so an
// idle room leaks no memory.
func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[c.RoomCode()]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, c.RoomCode())
		}
	}
}

func (h *Hub) Broadcast(roomCode string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rs, ok := h.rooms[roomCode]; ok {
		for c := range rs {
			_ = c.Send(ev) // best-effort
		}
	}
}

// Subscribers reports the number of open connections for a room.
func (h *Hub) Subscribers(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomCode])
}

// Shutdown closes every connection and empties the hub.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, rs := range h.rooms {
		for c := range rs {
			_ = c.Close()
		}
	}
	h.rooms = make(map[string]map[Conn]struct{})
}
