package http

import (
	"time"

	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
	"github.com/unitydai0310-hub/exchange-diary/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateRoomRequest struct {
	Nickname string `json:"nickname"`
	RoomName string `json:"roomName"`
}

type JoinRoomRequest struct {
	Nickname string `json:"nickname"`
	RoomCode string `json:"roomCode"`
}

type MembershipResponse struct {
	Token     string `json:"token"`
	RoomCode  string `json:"roomCode"`
	RoomName  string `json:"roomName"`
	Nickname  string `json:"nickname"`
	InviteURL string `json:"inviteUrl"`
}

type RoomView struct {
	Code               string                         `json:"code"`
	Name               string                         `json:"name"`
	HostNickname       string                         `json:"hostNickname"`
	Members            []string                       `json:"members"`
	CreatedAt          time.Time                      `json:"createdAt"`
	LotteryAssignments map[string]*domain.Assignment `json:"lotteryAssignments"`
	MePushEnabled      bool                           `json:"mePushEnabled"`
}

type RoomResponse struct {
	Room    RoomView        `json:"room"`
	Me      string          `json:"me"`
	Entries []*domain.Entry `json:"entries"`
}

type PostEntryRequest = service.PostEntryInput

type EntryResponse struct {
	Entry *domain.Entry `json:"entry"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

type CommentRequest struct {
	Body string `json:"body"`
}

type DrawLotteryRequest struct {
	Date string `json:"date"`
}

type DrawLotteryResponse struct {
	Assignment *service.AssignmentResult `json:"assignment"`
	Reused     bool                      `json:"reused"`
}

type SubscriptionRequest struct {
	Subscription domain.PushSubscription `json:"subscription"`
}

type RemoveSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}
