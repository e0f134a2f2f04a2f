// Package service implements the room mutation operations. Every operation
// follows the same sequence: load the document, normalize it, re-check
// preconditions against the fresh copy, mutate in memory, persist, then
// notify. There is no cross-operation atomicity; at this scale concurrent
// writers degrade to last-writer-wins.
package service

import (
	"context"
	"fmt"

	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
	"github.com/unitydai0310-hub/exchange-diary/internal/store"
)

// loadRoom fetches and repairs the room document. The returned copy is
// transient; it must be discarded once the operation completes.
func loadRoom(ctx context.Context, st store.RoomStore, roomCode string) (*domain.Room, error) {
	raw, err := st.Get(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	return domain.Normalize(raw, roomCode), nil
}

func saveRoom(ctx context.Context, st store.RoomStore, room *domain.Room) error {
	if err := st.Put(ctx, room.Code, room); err != nil {
		return fmt.Errorf("save room %s: %w", room.Code, err)
	}
	return nil
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}
