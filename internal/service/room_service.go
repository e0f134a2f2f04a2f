package service

import (
	"context"
	"time"

	"github.com/unitydai0310-hub/exchange-diary/internal/auth"
	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
	"github.com/unitydai0310-hub/exchange-diary/internal/store"
)

type RoomService struct {
	store store.RoomStore
	codec *auth.Codec
}

func NewRoomService(st store.RoomStore, codec *auth.Codec) *RoomService {
	return &RoomService{store: st, codec: codec}
}

// MembershipResult is what create and join hand back to the client: the
// session token plus enough of the room to render the invite.
type MembershipResult struct {
	Token    string
	RoomCode string
	RoomName string
	Nickname string
}

// CreateRoom creates a room with the creator as sole member and host.
func (s *RoomService) CreateRoom(ctx context.Context, nickname, roomName string) (*MembershipResult, error) {
	nickname = domain.NormalizeNickname(nickname)
	if nickname == "" {
		return nil, validationf("nickname is required")
	}
	if roomName == "" {
		roomName = domain.DefaultRoomName
	}

	roomCode, err := s.freshRoomCode(ctx)
	if err != nil {
		return nil, err
	}

	room := &domain.Room{
		Code:               roomCode,
		Name:               roomName,
		CreatedAt:          time.Now().UTC(),
		HostNickname:       nickname,
		Members:            []string{nickname},
		Entries:            []*domain.Entry{},
		LotteryAssignments: map[string]*domain.Assignment{},
		PushSubscriptions:  map[string][]domain.PushSubscription{},
	}
	if err := saveRoom(ctx, s.store, room); err != nil {
		return nil, err
	}

	token, err := s.codec.Issue(roomCode, nickname)
	if err != nil {
		return nil, err
	}
	return &MembershipResult{
		Token:    token,
		RoomCode: roomCode,
		RoomName: room.Name,
		Nickname: nickname,
	}, nil
}

// JoinRoom appends the nickname if absent; re-joining is a no-op that still
// issues a fresh token.
func (s *RoomService) JoinRoom(ctx context.Context, roomCode, nickname string) (*MembershipResult, error) {
	nickname = domain.NormalizeNickname(nickname)
	roomCode = domain.NormalizeRoomCode(roomCode)
	if nickname == "" || roomCode == "" {
		return nil, validationf("nickname and room code are required")
	}

	room, err := loadRoom(ctx, s.store, roomCode)
	if err != nil {
		return nil, err
	}

	if !room.HasMember(nickname) {
		if len(room.Members) >= domain.MaxRoomMembers {
			return nil, domain.ErrRoomFull
		}
		room.Members = append(room.Members, nickname)
		if err := saveRoom(ctx, s.store, room); err != nil {
			return nil, err
		}
	}

	token, err := s.codec.Issue(roomCode, nickname)
	if err != nil {
		return nil, err
	}
	return &MembershipResult{
		Token:    token,
		RoomCode: roomCode,
		RoomName: room.Name,
		Nickname: nickname,
	}, nil
}

// Snapshot is the authenticated full-room view a client refetches to
// reconcile after reconnecting to the stream.
type Snapshot struct {
	Room          *domain.Room
	Me            string
	Entries       []*domain.Entry // sorted for display
	MePushEnabled bool
}

func (s *RoomService) GetRoom(ctx context.Context, sess *auth.Session) (*Snapshot, error) {
	room, err := loadRoom(ctx, s.store, sess.RoomCode)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Room:          room,
		Me:            sess.Nickname,
		Entries:       room.SortedEntries(),
		MePushEnabled: len(room.PushSubscriptions[sess.Nickname]) > 0,
	}, nil
}

func (s *RoomService) freshRoomCode(ctx context.Context) (string, error) {
	code := domain.MakeRoomCode()
	for i := 0; i < 20; i++ {
		taken, err := s.store.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			break
		}
		code = domain.MakeRoomCode()
	}
	return code, nil
}
