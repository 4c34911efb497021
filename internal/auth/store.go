package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"storefront/internal/models"
	"storefront/internal/telemetry"
)

// Store owns the authenticated identity of the running client. Other
// components read it through Current and IsAuthenticated.
type Store struct {
	mu       sync.RWMutex
	registry *Registry
	records  RecordStore
	current  int
}

func NewStore(registry *Registry, records RecordStore) *Store {
	return &Store{registry: registry, records: records}
}

// Restore loads the persisted session. Missing records leave the store
// logged out; malformed ones are erased and treated the same way.
func (s *Store) Restore(ctx context.Context) {
	data, err := s.records.Load(ctx)
	if errors.Is(err, models.ErrRecordNotPersisted) {
		return
	}
	if err != nil {
		slog.Warn("Failed to load session record", "error", err)
		telemetry.RecordSessionEvent("restore", err)
		return
	}

	user, err := decodeRecord(data)
	if err == nil {
		user, err = s.registry.Adopt(user)
	}
	if err != nil {
		slog.Warn("Discarding session record", "error", err)
		telemetry.RecordSessionEvent("restore", err)
		if clearErr := s.records.Clear(ctx); clearErr != nil {
			slog.Error("Failed to clear session record", "error", clearErr)
		}
		return
	}

	s.mu.Lock()
	s.current = user.ID
	s.mu.Unlock()

	telemetry.RecordSessionEvent("restore", nil)
	slog.Info("Session restored", "user_id", user.ID)
}

func (s *Store) Login(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.registry.Authenticate(email, password)
	telemetry.RecordSessionEvent("login", err)
	if err != nil {
		slog.Info("Login rejected", "email", email)
		return models.User{}, err
	}

	s.establish(ctx, user)
	slog.Info("User logged in", "user_id", user.ID)
	return user, nil
}

// Register creates a user and logs it in.
func (s *Store) Register(ctx context.Context, email, password, name string) (models.User, error) {
	if email == "" {
		return models.User{}, models.NewValidationError("email", "is required")
	}
	if password == "" {
		return models.User{}, models.NewValidationError("password", "is required")
	}

	user, err := s.registry.Create(email, password, name)
	telemetry.RecordSessionEvent("register", err)
	if err != nil {
		return models.User{}, err
	}

	s.establish(ctx, user)
	slog.Info("User registered", "user_id", user.ID)
	return user, nil
}

func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = 0
	s.mu.Unlock()

	if err := s.records.Clear(ctx); err != nil {
		slog.Error("Failed to clear session record", "error", err)
	}
	telemetry.RecordSessionEvent("logout", nil)
}

func (s *Store) Current() (models.User, bool) {
	s.mu.RLock()
	id := s.current
	s.mu.RUnlock()

	if id == 0 {
		return models.User{}, false
	}
	return s.registry.FindByID(id)
}

func (s *Store) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

// AppendOrder adds order to the history of userID. The session record is
// re-persisted only while that user is still the one logged in.
func (s *Store) AppendOrder(ctx context.Context, userID int, order models.Order) (models.User, error) {
	user, err := s.registry.AppendOrder(userID, order)
	if err != nil {
		return models.User{}, err
	}

	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == userID {
		s.persist(ctx, user)
	} else {
		slog.Info("Order recorded for a user no longer logged in", "user_id", userID, "order_id", order.ID)
	}
	return user, nil
}

func (s *Store) establish(ctx context.Context, user models.User) {
	s.mu.Lock()
	s.current = user.ID
	s.mu.Unlock()

	s.persist(ctx, user)
}

// persist failures are logged, not returned: the in-memory session stays
// valid for this run.
func (s *Store) persist(ctx context.Context, user models.User) {
	data, err := encodeRecord(user)
	if err == nil {
		err = s.records.Save(ctx, data)
	}
	if err != nil {
		slog.Error("Failed to persist session record", "user_id", user.ID, "error", err)
	}
}
