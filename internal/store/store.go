// Package store holds the durable representation of room documents behind a
// small get/put contract. Backends are interchangeable; callers must treat
// each get+mutate+put cycle as non-atomic.
package store

import (
	"context"
	"encoding/json"
)

// RoomStore owns the durable room documents. Get returns the stored document
// as-is; repairing it is the document model's job, not the store's. A missing
// room surfaces as domain.ErrRoomNotFound.
type RoomStore interface {
	Get(ctx context.Context, roomCode string) (json.RawMessage, error)
	Put(ctx context.Context, roomCode string, doc any) error
	Exists(ctx context.Context, roomCode string) (bool, error)
}
