package home

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
	"github.com/oshokin/lost-item-tracker/internal/logger"
	repository "github.com/oshokin/lost-item-tracker/internal/repository/home"
)

var (
	// ErrStorageUnavailable is returned when the backing store cannot be reached.
	ErrStorageUnavailable = repository.ErrUnavailable
	// ErrStorage wraps every other persistence failure.
	ErrStorage = errors.New("home location storage error")
	// ErrUserRequired is returned when no user ID is provided.
	ErrUserRequired = errors.New("user id must be provided")
)

// Store mirrors the home location of the session user.
// Writes are serialized and hold the lock across persistence, so readers
// never see memory that disagrees with a completed write.
type Store struct {
	// repo handles persistent storage of home locations.
	repo repository.Repository

	// mu protects the fields below.
	mu     sync.RWMutex
	userID string
	home   geo.Coordinate
	isSet  bool
}

// NewStore creates a store backed by the provided repository.
func NewStore(repo repository.Repository) *Store {
	return &Store{
		repo: repo,
	}
}

// Load fetches the persisted home of userID and makes it the session mirror.
// The boolean is false when the user never saved a home.
func (s *Store) Load(ctx context.Context, userID string) (geo.Coordinate, bool, error) {
	if userID == "" {
		return geo.Coordinate{}, false, ErrUserRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	home, err := s.repo.Load(ctx, userID)

	switch {
	case err == nil:
		s.userID, s.home, s.isSet = userID, home, true

		logger.DebugKV(ctx, "Home location loaded", "user_id", userID, "home", home.String())

		return home, true, nil
	case errors.Is(err, repository.ErrNotFound):
		s.userID, s.home, s.isSet = userID, geo.Coordinate{}, false

		return geo.Coordinate{}, false, nil
	default:
		return geo.Coordinate{}, false, wrapStorage("load home", err)
	}
}

// Save validates and persists home, then updates the mirror.
func (s *Store) Save(ctx context.Context, userID string, home geo.Coordinate) error {
	if userID == "" {
		return ErrUserRequired
	}

	if err := home.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, userID, home); err != nil {
		logger.ErrorKV(ctx, "Failed to persist home location", "user_id", userID, "error", err)

		return wrapStorage("save home", err)
	}

	if s.userID == "" || s.userID == userID {
		s.userID, s.home, s.isSet = userID, home, true
	}

	logger.InfoKV(ctx, "Home location saved", "user_id", userID, "home", home.String())

	return nil
}

// Clear removes the persisted home, then unsets the mirror.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUserRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Clear(ctx, userID); err != nil {
		logger.ErrorKV(ctx, "Failed to clear home location", "user_id", userID, "error", err)

		return wrapStorage("clear home", err)
	}

	if s.userID == "" || s.userID == userID {
		s.userID, s.home, s.isSet = userID, geo.Coordinate{}, false
	}

	logger.InfoKV(ctx, "Home location cleared", "user_id", userID)

	return nil
}

// Home returns the mirrored home location.
func (s *Store) Home() (geo.Coordinate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.home, s.isSet
}

func wrapStorage(op string, err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
