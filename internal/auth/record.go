package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/resilience"
)

// DefaultRecordKey identifies the persisted session record.
const DefaultRecordKey = "storefront:currentUser"

// RecordStore keeps the serialized session across restarts. Load returns
// models.ErrRecordNotPersisted when nothing is stored.
type RecordStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// sessionRecord is the persisted snapshot of the current user. It never
// carries the password.
type sessionRecord struct {
	ID     int            `json:"id"`
	Email  string         `json:"email"`
	Name   string         `json:"name"`
	Orders []models.Order `json:"orders"`
}

func encodeRecord(u models.User) ([]byte, error) {
	orders := u.Orders
	if orders == nil {
		orders = []models.Order{}
	}
	return json.Marshal(sessionRecord{ID: u.ID, Email: u.Email, Name: u.Name, Orders: orders})
}

func decodeRecord(data []byte) (models.User, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", models.ErrMalformedRecord, err)
	}
	if rec.ID <= 0 || rec.Email == "" {
		return models.User{}, fmt.Errorf("%w: missing id or email", models.ErrMalformedRecord)
	}
	if rec.Orders == nil {
		rec.Orders = []models.Order{}
	}
	return models.User{ID: rec.ID, Email: rec.Email, Name: rec.Name, Orders: rec.Orders}, nil
}

// RedisRecordStore persists the record under a fixed Redis key. Writes
// are retried a few times before giving up.
type RedisRecordStore struct {
	client *cache.Client
	key    string
}

func NewRedisRecordStore(client *cache.Client, key string) *RedisRecordStore {
	if key == "" {
		key = DefaultRecordKey
	}
	return &RedisRecordStore{client: client, key: key}
}

func (s *RedisRecordStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key)
	if errors.Is(err, cache.ErrMiss) {
		return nil, models.ErrRecordNotPersisted
	}
	return data, err
}

func (s *RedisRecordStore) Save(ctx context.Context, data []byte) error {
	return resilience.Retry(ctx, 3, 100*time.Millisecond, func() error {
		return s.client.Set(ctx, s.key, data, 0)
	})
}

func (s *RedisRecordStore) Clear(ctx context.Context) error {
	return resilience.Retry(ctx, 3, 100*time.Millisecond, func() error {
		return s.client.Delete(ctx, s.key)
	})
}

// FileRecordStore persists the record as a file in the user's profile.
type FileRecordStore struct {
	path string
}

func NewFileRecordStore(path string) *FileRecordStore {
	return &FileRecordStore{path: path}
}

// DefaultRecordPath is the record file under the user config directory.
func DefaultRecordPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "storefront", "session.json"), nil
}

func (s *FileRecordStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, models.ErrRecordNotPersisted
	}
	return data, err
}

// Save writes to a temp file and renames it over the record so a crash
// never leaves a half-written record.
func (s *FileRecordStore) Save(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileRecordStore) Clear(ctx context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryRecordStore keeps the record for the life of the process only.
type MemoryRecordStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{}
}

func (s *MemoryRecordStore) Load(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, models.ErrRecordNotPersisted
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemoryRecordStore) Save(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *MemoryRecordStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}
