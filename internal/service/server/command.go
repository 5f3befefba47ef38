package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/lost-item-tracker/internal/api/grpc/reminder"
	"github.com/oshokin/lost-item-tracker/internal/config"
	"github.com/oshokin/lost-item-tracker/internal/domain/reminder"
	"github.com/oshokin/lost-item-tracker/internal/logger"
	"github.com/oshokin/lost-item-tracker/internal/service/engine"
	"github.com/oshokin/lost-item-tracker/internal/service/home"
	"github.com/oshokin/lost-item-tracker/internal/service/notifier"
	"github.com/oshokin/lost-item-tracker/internal/service/position"
	"github.com/oshokin/lost-item-tracker/internal/version"
)

// Options controls the reminder-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// AllowMultipleInstances skips the single-instance check.
	AllowMultipleInstances bool
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the reminder engine and its gRPC control plane and blocks until
// the context is canceled or either of them stops.
//
//nolint:funlen // Linear wiring of the process.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "reminder-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	if !opts.AllowMultipleInstances {
		if err = ensureSingleInstance(ctx); err != nil {
			return err
		}
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	repo, err := newRepository(ctx, &settings.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close storage", "error", closeErr)
		}
	}()

	device, push, err := newDevice(&settings.Position)
	if err != nil {
		return fmt.Errorf("open position source: %w", err)
	}

	machine, err := reminder.NewMachine(reminder.Thresholds{
		Departure: settings.Reminder.DepartureThreshold,
		Return:    settings.Reminder.ReturnThreshold,
	})
	if err != nil {
		return fmt.Errorf("create reminder machine: %w", err)
	}

	sampler := position.NewSampler(device, position.Options{
		HighAccuracy: settings.Position.HighAccuracyEnabled(),
		MaxFixAge:    settings.Position.MaxFixAge,
		Timeout:      settings.Position.Timeout,
	})

	eng := engine.New(
		engine.Options{
			UserID: settings.UserID,
			Title:  settings.Notification.Title,
			Body:   settings.Notification.Body,
		},
		home.NewStore(repo),
		sampler,
		notifier.NewDispatcher(newPlatform(&settings.Notification)),
		machine,
	)

	svc := newService(eng, push, settings.Position.Source)

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	// Create and configure gRPC server with reminder service.
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(auditInterceptor))
	api.RegisterReminderServiceServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Reminder server listening",
		"listen_address", listenAddress,
		"version", version.Short(),
		"user_id", settings.UserID,
		"storage", settings.Storage.Driver,
		"position_source", settings.Position.Source,
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return eng.Run(groupCtx)
	})

	group.Go(func() error {
		if serveErr := grpcServer.Serve(lis); serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", serveErr)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()

		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	// Extract port from config address (e.g., "server.example.com:8080" -> ":8080").
	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
