package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/unitydai0310-hub/exchange-diary/internal/auth"
	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
)

type ctxKey string

const ctxKeySession ctxKey = "session"

// AuthMiddleware requires a valid Bearer token whose room matches the {code}
// path parameter, and stores the session in the request context.
func AuthMiddleware(codec *auth.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w)
				return
			}

			session, err := codec.Verify(strings.TrimSpace(header[7:]))
			if err != nil {
				unauthorized(w)
				return
			}
			if code := domain.NormalizeRoomCode(chi.URLParam(r, "code")); code != "" && session.RoomCode != code {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SessionFromCtx(ctx context.Context) *auth.Session {
	if v := ctx.Value(ctxKeySession); v != nil {
		if s, ok := v.(*auth.Session); ok {
			return s
		}
	}
	return nil
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
}
