package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unitydai0310-hub/exchange-diary/internal/auth"
	httpmw "github.com/unitydai0310-hub/exchange-diary/internal/transport/http/middleware"
	"github.com/unitydai0310-hub/exchange-diary/internal/transport/stream"
)

func NewRouter(h *Handler, codec *auth.Codec, streamServer *stream.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/api/health", h.Health)
	r.Get("/api/push/public-key", h.PushPublicKey)

	r.Post("/api/rooms/create", h.CreateRoom)
	r.Post("/api/rooms/join", h.JoinRoom)

	// live streams authenticate via query-parameter token, no timeout
	r.Get("/api/rooms/{code}/stream", streamServer.HandleSSE)
	r.Get("/ws/rooms/{code}", streamServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(codec))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/api/rooms/{code}", func(rr chi.Router) {
			rr.Get("/", h.GetRoom)
			rr.Post("/entries", h.PostEntry)
			rr.Post("/entries/{entryID}/reactions", h.ToggleReaction)
			rr.Post("/entries/{entryID}/comments", h.AddComment)
			rr.Post("/lottery/draw", h.DrawLottery)
			rr.Post("/push/subscription", h.UpsertSubscription)
			rr.Delete("/push/subscription", h.RemoveSubscription)
		})
	})

	return r
}
