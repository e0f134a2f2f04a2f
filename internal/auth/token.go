// Package auth issues and verifies the stateless session tokens that bind a
// room code to a nickname. Tokens are HMAC-signed and self-contained, so any
// process holding the secret can verify them without touching storage; the
// live-stream endpoint relies on that to authenticate via query parameter.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Session is what a verified token proves: this nickname belongs to this
// room. It is never persisted server-side.
type Session struct {
	RoomCode string
	Nickname string
}

type roomClaims struct {
	RoomCode string `json:"roomCode"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue signs a token for the given room and nickname. Only the issue time is
// recorded; no expiry is enforced on verification.
func (c *Codec) Issue(roomCode, nickname string) (string, error) {
	claims := roomClaims{
		RoomCode: domain.NormalizeRoomCode(roomCode),
		Nickname: domain.NormalizeNickname(nickname),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks the signature and extracts the session. It returns
// ErrInvalidToken on any malformed, tampered or incomplete input, never an
// internal error, so callers can always answer with a uniform 401.
func (c *Codec) Verify(tokenStr string) (*Session, error) {
	claims := &roomClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.RoomCode == "" || claims.Nickname == "" {
		return nil, ErrInvalidToken
	}
	return &Session{RoomCode: claims.RoomCode, Nickname: claims.Nickname}, nil
}
