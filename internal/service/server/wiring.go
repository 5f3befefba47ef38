package server

import (
	"context"
	"fmt"

	"github.com/oshokin/lost-item-tracker/internal/config"
	repository "github.com/oshokin/lost-item-tracker/internal/repository/home"
	"github.com/oshokin/lost-item-tracker/internal/service/notifier"
	"github.com/oshokin/lost-item-tracker/internal/service/position"
)

// Storage drivers.
const (
	driverFile   = "file"
	driverSQLite = "sqlite"
	driverRedis  = "redis"
)

// Position sources.
const (
	sourceReplay      = "replay"
	sourcePush        = "push"
	sourceUnsupported = "unsupported"
)

// platformDesktop selects OS alerts; anything else logs them.
const platformDesktop = "desktop"

// appName is shown by desktop notification daemons.
const appName = "Lost Item Tracker"

// newRepository opens the configured home location backend.
func newRepository(ctx context.Context, cfg *config.StorageConfig) (repository.Repository, error) {
	switch cfg.Driver {
	case driverFile:
		return repository.NewFileRepository(cfg.Path), nil
	case driverSQLite:
		return repository.NewSQLiteRepository(ctx, cfg.Path)
	case driverRedis:
		return repository.NewRedisFromConfig(ctx, repository.RedisConfig{
			Addr:      cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// newDevice creates the configured position source. The push device is
// returned separately because ReportFix feeds it.
func newDevice(cfg *config.PositionConfig) (position.Device, *position.PushDevice, error) {
	switch cfg.Source {
	case sourceReplay:
		track, err := position.LoadTrack(cfg.TrackFile)
		if err != nil {
			return nil, nil, err
		}

		return position.NewReplayDevice(track), nil, nil
	case sourcePush:
		push := position.NewPushDevice()

		return push, push, nil
	case sourceUnsupported:
		return position.UnsupportedDevice{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown position source %q", cfg.Source)
	}
}

// newPlatform creates the configured alert platform.
func newPlatform(cfg *config.NotificationConfig) notifier.Platform {
	if cfg.Platform == platformDesktop {
		return notifier.NewDesktopPlatform(appName)
	}

	return notifier.LogPlatform{}
}
