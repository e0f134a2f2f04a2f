package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
)

// RedisStore keeps each room under its own key, mirroring the file backend's
// observable behavior over a remote key-value service.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func roomKey(roomCode string) string {
	return "room:" + roomCode
}

func (s *RedisStore) Get(ctx context.Context, roomCode string) (json.RawMessage, error) {
	data, err := s.client.Get(ctx, roomKey(roomCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (s *RedisStore) Put(ctx context.Context, roomCode string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", roomCode, err)
	}
	if err := s.client.Set(ctx, roomKey(roomCode), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, roomCode string) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(roomCode)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
