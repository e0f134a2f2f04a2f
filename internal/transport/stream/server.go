package stream

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/unitydai0310-hub/exchange-diary/internal/auth"
	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
)

// RoomChecker is the slice of the store the stream endpoints need.
type RoomChecker interface {
	Exists(ctx context.Context, roomCode string) (bool, error)
}

// Server authenticates live-stream subscribers and registers them on the hub.
// Both endpoints take the token as a query parameter; a header is awkward for
// EventSource and browser WebSocket clients.
type Server struct {
	hub      *Hub
	codec    *auth.Codec
	rooms    RoomChecker
	upgrader websocket.Upgrader

	heartbeatEvery time.Duration
}

func NewServer(hub *Hub, codec *auth.Codec, rooms RoomChecker) *Server {
	return &Server{
		hub:   hub,
		codec: codec,
		rooms: rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		heartbeatEvery: 15 * time.Second,
	}
}

// authorize resolves the query-parameter token against the requested room.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	roomCode := domain.NormalizeRoomCode(chi.URLParam(r, "code"))
	token := strings.TrimSpace(r.URL.Query().Get("token"))

	session, err := s.codec.Verify(token)
	if err != nil || session.RoomCode != roomCode {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return "", false
	}

	exists, err := s.rooms.Exists(r.Context(), roomCode)
	if err != nil || !exists {
		http.Error(w, `{"error":"room not found"}`, http.StatusNotFound)
		return "", false
	}
	return roomCode, true
}
