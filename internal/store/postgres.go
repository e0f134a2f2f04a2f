package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
)

// PostgresStore keeps one jsonb document per room code. The table is a plain
// key-value surface so the contract stays identical to the other backends.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS rooms (
			room_code  text PRIMARY KEY,
			doc        jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`
	if _, err := pool.Exec(ctx, query); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create rooms table: %w", err)
	}
	return &PostgresStore{db: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, roomCode string) (json.RawMessage, error) {
	var doc []byte
	query := `SELECT doc FROM rooms WHERE room_code=$1`
	err := s.db.QueryRow(ctx, query, roomCode).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *PostgresStore) Put(ctx context.Context, roomCode string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", roomCode, err)
	}
	query := `
		INSERT INTO rooms (room_code, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (room_code) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`
	if _, err := s.db.Exec(ctx, query, roomCode, data); err != nil {
		return err
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, roomCode string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM rooms WHERE room_code=$1)`
	if err := s.db.QueryRow(ctx, query, roomCode).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}
