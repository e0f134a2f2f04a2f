package service

import (
	"context"
	"strings"
	"time"

	"github.com/unitydai0310-hub/exchange-diary/internal/auth"
	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
	"github.com/unitydai0310-hub/exchange-diary/internal/push"
	"github.com/unitydai0310-hub/exchange-diary/internal/store"
	"github.com/unitydai0310-hub/exchange-diary/internal/transport/stream"
)

type LotteryService struct {
	store    store.RoomStore
	hub      *stream.Hub
	notifier *push.Notifier
}

func NewLotteryService(st store.RoomStore, hub *stream.Hub, notifier *push.Notifier) *LotteryService {
	return &LotteryService{store: st, hub: hub, notifier: notifier}
}

// AssignmentResult is the public assignment payload, both the draw response
// and the lottery-updated broadcast.
type AssignmentResult struct {
	Date    string    `json:"date"`
	Winners []string  `json:"winners"`
	DrawnBy string    `json:"drawnBy"`
	DrawnAt time.Time `json:"drawnAt"`
}

// Draw picks tomorrow's assignees for the requested date (defaulting to
// tomorrow). Only the host may draw, and a date with winners can never be
// re-rolled.
func (s *LotteryService) Draw(ctx context.Context, sess *auth.Session, requestedDate string) (*AssignmentResult, error) {
	room, err := loadRoom(ctx, s.store, sess.RoomCode)
	if err != nil {
		return nil, err
	}

	if len(room.Members) == 0 {
		return nil, domain.ErrNoMembers
	}
	if room.HostNickname == "" || sess.Nickname != room.HostNickname {
		return nil, domain.ErrNotHost
	}

	date := strings.TrimSpace(requestedDate)
	if !domain.IsDateKey(date) {
		date = domain.TomorrowDateKey(time.Now())
	}

	if existing := room.LotteryAssignments[date]; existing != nil && len(existing.Winners) > 0 {
		return nil, domain.ErrLotteryDrawn
	}

	assignment := &domain.Assignment{
		Winners: domain.PickWinners(room.Members, domain.DailyWinnerCount),
		DrawnBy: sess.Nickname,
		DrawnAt: time.Now().UTC(),
	}
	room.LotteryAssignments[date] = assignment

	if err := saveRoom(ctx, s.store, room); err != nil {
		return nil, err
	}

	result := &AssignmentResult{
		Date:    date,
		Winners: assignment.Winners,
		DrawnBy: assignment.DrawnBy,
		DrawnAt: assignment.DrawnAt,
	}
	s.hub.Broadcast(room.Code, stream.Event{Name: stream.EventLotteryUpdated, Payload: result})
	go s.notifier.NotifyLotteryWinners(room, date, assignment.Winners)

	return result, nil
}
