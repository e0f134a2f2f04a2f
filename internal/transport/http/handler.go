package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unitydai0310-hub/exchange-diary/internal/auth"
	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
	"github.com/unitydai0310-hub/exchange-diary/internal/push"
	"github.com/unitydai0310-hub/exchange-diary/internal/service"
	httpmw "github.com/unitydai0310-hub/exchange-diary/internal/transport/http/middleware"
)

type Handler struct {
	roomSvc    *service.RoomService
	entrySvc   *service.EntryService
	lotterySvc *service.LotteryService
	subSvc     *service.SubscriptionService
	notifier   *push.Notifier
}

func NewHandler(room *service.RoomService, entry *service.EntryService, lottery *service.LotteryService, sub *service.SubscriptionService, notifier *push.Notifier) *Handler {
	return &Handler{
		roomSvc:    room,
		entrySvc:   entry,
		lotterySvc: lottery,
		subSvc:     sub,
		notifier:   notifier,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses. Unexpected
// failures are logged and surfaced as a generic 500 without internals.
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("handler."+op+":", slog.Any("err", err))
		writeJSON(w, status, ErrorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotHost), errors.Is(err, domain.ErrNotAssignee):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrEntryExists),
		errors.Is(err, domain.ErrLotteryDrawn),
		errors.Is(err, domain.ErrNoMembers),
		errors.Is(err, domain.ErrRoomFull):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidReaction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return false
	}
	return true
}

// session never returns nil behind the auth middleware; the nil branch guards
// against a route wired without it.
func session(w http.ResponseWriter, r *http.Request) *auth.Session {
	s := httpmw.SessionFromCtx(r.Context())
	if s == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	}
	return s
}

// POST /api/rooms/create
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.roomSvc.CreateRoom(r.Context(), req.Nickname, req.RoomName)
	if err != nil {
		writeError(w, "CreateRoom", err)
		return
	}
	writeJSON(w, http.StatusCreated, membershipResponse(res))
}

// POST /api/rooms/join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req JoinRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.roomSvc.JoinRoom(r.Context(), req.RoomCode, req.Nickname)
	if err != nil {
		writeError(w, "JoinRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, membershipResponse(res))
}

// GET /api/rooms/{code}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	sess := session(w, r)
	if sess == nil {
		return
	}
	snap, err := h.roomSvc.GetRoom(r.Context(), sess)
	if err != nil {
		writeError(w, "GetRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, RoomResponse{
		Room: RoomView{
			Code:               snap.Room.Code,
			Name:               snap.Room.Name,
			HostNickname:       snap.Room.HostNickname,
			Members:            snap.Room.Members,
			CreatedAt:          snap.Room.CreatedAt,
			LotteryAssignments: snap.Room.LotteryAssignments,
			MePushEnabled:      snap.MePushEnabled,
		},
		Me:      snap.Me,
		Entries: snap.Entries,
	})
}

// POST /api/rooms/{code}/entries
func (h *Handler) PostEntry(w http.ResponseWriter, r *http.Request) {
	sess := session(w, r)
	if sess == nil {
		return
	}
	var req PostEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.entrySvc.PostEntry(r.Context(), sess, req)
	if err != nil {
		writeError(w, "PostEntry", err)
		return
	}
	writeJSON(w, http.StatusCreated, EntryResponse{Entry: entry})
}

// POST /api/rooms/{code}/entries/{entryID}/reactions
func (h *Handler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	sess := session(w, r)
	if sess == nil {
		return
	}
	var req ReactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	state, err := h.entrySvc.ToggleReaction(r.Context(), sess, chi.URLParam(r, "entryID"), req.Emoji)
	if err != nil {
		writeError(w, "ToggleReaction", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// POST /api/rooms/{code}/entries/{entryID}/comments
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	sess := session(w, r)
	if sess == nil {
		return
	}
	var req CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.entrySvc.AddComment(r.Context(), sess, chi.URLParam(r, "entryID"), req.Body)
	if err != nil {
		writeError(w, "AddComment", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// POST /api/rooms/{code}/lottery/draw
func (h *Handler) DrawLottery(w http.ResponseWriter, r *http.Request) {
	sess := session(w, r)
	if sess == nil {
		return
	}
	var req DrawLotteryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.lotterySvc.Draw(r.Context(), sess, req.Date)
	if err != nil {
		writeError(w, "DrawLottery", err)
		return
	}
	writeJSON(w, http.StatusCreated, DrawLotteryResponse{Assignment: result, Reused: false})
}

// POST /api/rooms/{code}/push/subscription
func (h *Handler) UpsertSubscription(w http.ResponseWriter, r *http.Request) {
	sess := session(w, r)
	if sess == nil {
		return
	}
	var req SubscriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.subSvc.Upsert(r.Context(), sess, req.Subscription); err != nil {
		writeError(w, "UpsertSubscription", err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// DELETE /api/rooms/{code}/push/subscription
func (h *Handler) RemoveSubscription(w http.ResponseWriter, r *http.Request) {
	sess := session(w, r)
	if sess == nil {
		return
	}
	var req RemoveSubscriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.subSvc.Remove(r.Context(), sess, req.Endpoint); err != nil {
		writeError(w, "RemoveSubscription", err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// GET /api/push/public-key
func (h *Handler) PushPublicKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PublicKeyResponse{PublicKey: h.notifier.PublicKey()})
}

// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC(),
	})
}

func membershipResponse(res *service.MembershipResult) MembershipResponse {
	return MembershipResponse{
		Token:     res.Token,
		RoomCode:  res.RoomCode,
		RoomName:  res.RoomName,
		Nickname:  res.Nickname,
		InviteURL: fmt.Sprintf("/?room=%s", res.RoomCode),
	}
}
