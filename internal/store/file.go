package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
)

// fileDB is the on-disk shape: one JSON document holding every room keyed by
// its code, rewritten as a whole on each Put.
type fileDB struct {
	Rooms map[string]json.RawMessage `json:"rooms"`
}

// FileStore keeps all rooms in a single JSON file. The directory and file are
// created lazily on first use. A process-local mutex serializes the
// read-modify-write cycle of Put against concurrent handlers.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(ctx context.Context, roomCode string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.read()
	if err != nil {
		return nil, err
	}
	raw, ok := db.Rooms[roomCode]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return raw, nil
}

func (s *FileStore) Put(ctx context.Context, roomCode string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.read()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", roomCode, err)
	}
	db.Rooms[roomCode] = raw

	return s.write(db)
}

func (s *FileStore) Exists(ctx context.Context, roomCode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.read()
	if err != nil {
		return false, err
	}
	_, ok := db.Rooms[roomCode]
	return ok, nil
}

func (s *FileStore) read() (*fileDB, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	db := &fileDB{Rooms: map[string]json.RawMessage{}}
	if len(data) == 0 {
		return db, nil
	}
	// a corrupt table starts over empty; individual documents are repaired
	// by the document model on read
	var parsed fileDB
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Rooms != nil {
		db.Rooms = parsed.Rooms
	}
	return db, nil
}

func (s *FileStore) write(db *fileDB) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) ensure() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	return s.write(&fileDB{Rooms: map[string]json.RawMessage{}})
}
