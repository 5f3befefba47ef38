package home

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
	repository "github.com/oshokin/lost-item-tracker/internal/repository/home"
)

var errTestBroken = errors.New("test broken backend")

// memoryRepository is a minimal in-memory Repository implementation for tests.
type memoryRepository struct {
	mu      sync.Mutex
	homes   map[string]geo.Coordinate
	loadErr error
	saveErr error
	saves   int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{homes: make(map[string]geo.Coordinate)}
}

func (m *memoryRepository) Load(_ context.Context, userID string) (geo.Coordinate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return geo.Coordinate{}, m.loadErr
	}

	home, ok := m.homes[userID]
	if !ok {
		return geo.Coordinate{}, repository.ErrNotFound
	}

	return home, nil
}

func (m *memoryRepository) Save(_ context.Context, userID string, home geo.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}

	m.saves++
	m.homes[userID] = home

	return nil
}

func (m *memoryRepository) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}

	delete(m.homes, userID)

	return nil
}

func (m *memoryRepository) Close() error { return nil }

// TestStore_LoadMissingAndExisting covers the never-set and set cases.
func TestStore_LoadMissingAndExisting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemoryRepository()
	s := NewStore(repo)

	_, ok, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok = s.Home()
	require.False(t, ok)

	repo.homes["alice"] = geo.Coordinate{Latitude: 10, Longitude: 76}

	home, ok, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, geo.Coordinate{Latitude: 10, Longitude: 76}, home)

	mirrored, ok := s.Home()
	require.True(t, ok)
	require.Equal(t, home, mirrored)
}

// TestStore_LoadErrors distinguishes unavailable storage from other failures.
func TestStore_LoadErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	repo := newMemoryRepository()
	repo.loadErr = repository.ErrUnavailable

	_, _, err := NewStore(repo).Load(ctx, "alice")
	require.ErrorIs(t, err, ErrStorageUnavailable)
	require.NotErrorIs(t, err, ErrStorage)

	repo.loadErr = errTestBroken

	_, _, err = NewStore(repo).Load(ctx, "alice")
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, errTestBroken)

	_, _, err = NewStore(repo).Load(ctx, "")
	require.ErrorIs(t, err, ErrUserRequired)
}

// TestStore_SaveAndClear verifies persistence happens before the mirror changes.
func TestStore_SaveAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemoryRepository()
	s := NewStore(repo)

	_, _, err := s.Load(ctx, "alice")
	require.NoError(t, err)

	home := geo.Coordinate{Latitude: 10, Longitude: 76}
	require.NoError(t, s.Save(ctx, "alice", home))
	require.Equal(t, 1, repo.saves)

	got, ok := s.Home()
	require.True(t, ok)
	require.Equal(t, home, got)

	// A failed save leaves the mirror untouched.
	repo.saveErr = errTestBroken

	err = s.Save(ctx, "alice", geo.Coordinate{Latitude: 11, Longitude: 77})
	require.ErrorIs(t, err, ErrStorage)

	got, ok = s.Home()
	require.True(t, ok)
	require.Equal(t, home, got)

	require.ErrorIs(t, s.Clear(ctx, "alice"), ErrStorage)

	_, ok = s.Home()
	require.True(t, ok)

	repo.saveErr = nil
	require.NoError(t, s.Clear(ctx, "alice"))

	_, ok = s.Home()
	require.False(t, ok)
	require.NotContains(t, repo.homes, "alice")
}

// TestStore_SaveRejectsInvalid checks validation before persistence.
func TestStore_SaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepository()
	s := NewStore(repo)

	err := s.Save(context.Background(), "alice", geo.Coordinate{Latitude: 95})
	require.ErrorIs(t, err, geo.ErrInvalidCoordinate)
	require.Zero(t, repo.saves)

	require.ErrorIs(t, s.Save(context.Background(), "", geo.Coordinate{}), ErrUserRequired)
	require.ErrorIs(t, s.Clear(context.Background(), ""), ErrUserRequired)
}

// TestStore_ConcurrentReadsSeeWholeValues runs readers against a writer.
func TestStore_ConcurrentReadsSeeWholeValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(newMemoryRepository())

	_, _, err := s.Load(ctx, "alice")
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		torn atomic.Int64
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := range 200 {
			// Latitude and longitude always move together.
			v := float64(i % 80)
			_ = s.Save(ctx, "alice", geo.Coordinate{Latitude: v, Longitude: v})
		}
	}()

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 500 {
				home, ok := s.Home()
				if ok && home.Latitude != home.Longitude {
					torn.Add(1)
				}
			}
		}()
	}

	wg.Wait()
	require.Zero(t, torn.Load())
}
