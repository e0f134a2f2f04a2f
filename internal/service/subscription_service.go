package service

import (
	"context"
	"strings"

	"github.com/unitydai0310-hub/exchange-diary/internal/auth"
	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
	"github.com/unitydai0310-hub/exchange-diary/internal/store"
)

type SubscriptionService struct {
	store store.RoomStore
}

func NewSubscriptionService(st store.RoomStore) *SubscriptionService {
	return &SubscriptionService{store: st}
}

// Upsert stores a push subscription under the member's nickname, replacing
// any earlier registration of the same endpoint.
func (s *SubscriptionService) Upsert(ctx context.Context, sess *auth.Session, sub domain.PushSubscription) error {
	sub.Endpoint = strings.TrimSpace(sub.Endpoint)
	sub.Keys.P256dh = strings.TrimSpace(sub.Keys.P256dh)
	sub.Keys.Auth = strings.TrimSpace(sub.Keys.Auth)
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return validationf("subscription endpoint and key material are required")
	}

	room, err := loadRoom(ctx, s.store, sess.RoomCode)
	if err != nil {
		return err
	}

	merged := []domain.PushSubscription{sub}
	for _, existing := range room.PushSubscriptions[sess.Nickname] {
		if existing.Endpoint != sub.Endpoint {
			merged = append(merged, existing)
		}
	}
	room.PushSubscriptions[sess.Nickname] = merged

	return saveRoom(ctx, s.store, room)
}

// Remove drops the endpoint from the member's subscription list, removing the
// nickname key entirely when its list becomes empty.
func (s *SubscriptionService) Remove(ctx context.Context, sess *auth.Session, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return validationf("endpoint is required")
	}

	room, err := loadRoom(ctx, s.store, sess.RoomCode)
	if err != nil {
		return err
	}

	kept := []domain.PushSubscription{}
	for _, existing := range room.PushSubscriptions[sess.Nickname] {
		if existing.Endpoint != endpoint {
			kept = append(kept, existing)
		}
	}
	if len(kept) == 0 {
		delete(room.PushSubscriptions, sess.Nickname)
	} else {
		room.PushSubscriptions[sess.Nickname] = kept
	}

	return saveRoom(ctx, s.store, room)
}
