package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, the threshold band and defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	require.Error(t, Validate(new(Config)))

	// Bad socket.
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	// Return threshold must stay below departure.
	cfg := Default()
	cfg.Reminder = ReminderConfig{DepartureThreshold: 50, ReturnThreshold: 80}
	require.Error(t, Validate(cfg))

	// Redis needs an address.
	cfg = Default()
	cfg.Storage = StorageConfig{Driver: "redis"}
	require.Error(t, Validate(cfg))

	// Replay needs a track.
	cfg = Default()
	cfg.Position.Source = "replay"
	require.Error(t, Validate(cfg))

	// Unknown notification platform.
	cfg = Default()
	cfg.Notification.Platform = "pager"
	require.Error(t, Validate(cfg))

	// Defaults.
	cfg = &Config{ServerAddress: "127.0.0.1:0"}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultUserID, cfg.UserID)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, "file", cfg.Storage.Driver)
	require.Equal(t, DefaultStorageFilename, cfg.Storage.Path)
	require.InDelta(t, 200.0, cfg.Reminder.DepartureThreshold, 0)
	require.InDelta(t, 50.0, cfg.Reminder.ReturnThreshold, 0)
	require.Equal(t, "push", cfg.Position.Source)
	require.Equal(t, DefaultMaxFixAge, cfg.Position.MaxFixAge)
	require.Equal(t, DefaultPositionTimeout, cfg.Position.Timeout)
	require.True(t, cfg.Position.HighAccuracyEnabled())
	require.Equal(t, DefaultNotificationTitle, cfg.Notification.Title)
	require.Equal(t, DefaultNotificationBody, cfg.Notification.Body)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := Default()
	settings.ServerAddress = "127.0.0.1:50051"
	settings.UserID = "alice"
	settings.Storage = StorageConfig{Driver: "sqlite", Path: filepath.Join(dir, "home.db")}
	settings.Reminder = ReminderConfig{DepartureThreshold: 300, ReturnThreshold: 40}
	settings.Position.MaxFixAge = 3 * time.Second

	require.NoError(t, Save(path, settings))

	loaded, err := LoadWithEnv(path, "")
	require.NoError(t, err)
	require.Equal(t, settings.ServerAddress, loaded.ServerAddress)
	require.Equal(t, "alice", loaded.UserID)
	require.Equal(t, settings.Storage, loaded.Storage)
	require.Equal(t, settings.Reminder, loaded.Reminder)
	require.Equal(t, 3*time.Second, loaded.Position.MaxFixAge)
	require.True(t, loaded.Position.HighAccuracyEnabled())

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoadWithEnv_DotenvOverrides verifies values from a dotenv file override YAML.
func TestLoadWithEnv_DotenvOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	envFile := filepath.Join(dir, "custom.env")

	require.NoError(t, os.WriteFile(path, []byte("server_addr: 127.0.0.1:50061\nuser_id: bob\n"), DefaultFilePermissions))
	require.NoError(t, os.WriteFile(envFile, []byte(
		"LOST_ITEM_USER_ID=carol\n"+
			"LOST_ITEM_STORAGE_DRIVER=redis\n"+
			"LOST_ITEM_REDIS_ADDR=127.0.0.1:6379\n"+
			"LOST_ITEM_REDIS_PASSWORD=secret\n"+
			"LOST_ITEM_REDIS_DB=3\n",
	), DefaultFilePermissions))

	cfg, err := LoadWithEnv(path, envFile)
	require.NoError(t, err)
	require.Equal(t, "carol", cfg.UserID)
	require.Equal(t, "redis", cfg.Storage.Driver)
	require.Equal(t, "127.0.0.1:6379", cfg.Storage.RedisAddress)
	require.Equal(t, "secret", cfg.Storage.RedisPassword)
	require.Equal(t, 3, cfg.Storage.RedisDB)
}

// TestLoadWithEnv_BadRedisDB reports a parse error for a non-numeric database.
func TestLoadWithEnv_BadRedisDB(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	envFile := filepath.Join(dir, "bad.env")

	require.NoError(t, os.WriteFile(path, []byte("server_addr: 127.0.0.1:50061\n"), DefaultFilePermissions))
	require.NoError(t, os.WriteFile(envFile, []byte("LOST_ITEM_REDIS_DB=zero\n"), DefaultFilePermissions))

	_, err := LoadWithEnv(path, envFile)
	require.Error(t, err)
}

// TestLoad_MissingFile surfaces read errors.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestLoad_PositionOptions keeps an omitted accuracy mode on, an explicit
// false off, and negative durations as "disabled".
func TestLoad_PositionOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		yaml         string
		highAccuracy bool
		maxFixAge    time.Duration
		timeout      time.Duration
	}{
		{
			name:         "omitted",
			yaml:         "position:\n  source: push\n",
			highAccuracy: true,
			maxFixAge:    DefaultMaxFixAge,
			timeout:      DefaultPositionTimeout,
		},
		{
			name:         "explicit",
			yaml:         "position:\n  high_accuracy: false\n  max_fix_age: 30s\n  timeout: 2s\n",
			highAccuracy: false,
			maxFixAge:    30 * time.Second,
			timeout:      2 * time.Second,
		},
		{
			name:         "disabled checks",
			yaml:         "position:\n  high_accuracy: true\n  max_fix_age: -1s\n  timeout: -1s\n",
			highAccuracy: true,
			maxFixAge:    -time.Second,
			timeout:      -time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "settings.yaml")
			contents := "server_addr: 127.0.0.1:50061\n" + tt.yaml
			require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

			cfg, err := LoadWithEnv(path, "")
			require.NoError(t, err)
			require.Equal(t, tt.highAccuracy, cfg.Position.HighAccuracyEnabled())
			require.Equal(t, tt.maxFixAge, cfg.Position.MaxFixAge)
			require.Equal(t, tt.timeout, cfg.Position.Timeout)
		})
	}
}
