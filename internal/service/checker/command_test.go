package checker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lost-item-tracker/internal/api/grpc/reminder"
	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
)

// TestChanged detects state, counter, error and home changes.
func TestChanged(t *testing.T) {
	t.Parallel()

	home := &geo.Coordinate{Latitude: 10, Longitude: 76}
	base := reminder.StatusView{State: "armed", Home: home}

	require.True(t, changed(nil, &base))
	require.False(t, changed(&base, &reminder.StatusView{State: "armed", Home: &geo.Coordinate{Latitude: 10, Longitude: 76}}))

	notified := base
	notified.State = "notified"
	require.True(t, changed(&base, &notified))

	counted := base
	counted.Episodes = 1
	require.True(t, changed(&base, &counted))

	failed := base
	failed.LastError = "position timeout"
	require.True(t, changed(&base, &failed))

	cleared := base
	cleared.Home = nil
	require.True(t, changed(&base, &cleared))
	require.False(t, changed(&cleared, &cleared))

	moved := base
	moved.Home = &geo.Coordinate{Latitude: 11, Longitude: 76}
	require.True(t, changed(&base, &moved))
}

// TestDescribe renders optional fields only when present.
func TestDescribe(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	distance := 222.39

	line := describe(now, &reminder.StatusView{
		State:     "notified",
		Episodes:  1,
		Home:      &geo.Coordinate{Latitude: 10, Longitude: 76},
		Distance:  &distance,
		LastError: "position timeout",
	})
	require.Equal(t, `08:30:00 state=notified reminders=1 home=10.000000,76.000000 distance=222.4m error="position timeout"`, line)

	require.Equal(t, "08:30:00 state=idle reminders=0", describe(now, &reminder.StatusView{State: "idle"}))
}

// TestRun_MissingConfig returns the load error.
func TestRun_MissingConfig(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
}
