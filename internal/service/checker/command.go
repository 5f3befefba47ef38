package checker

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oshokin/lost-item-tracker/internal/api/grpc/reminder"
	"github.com/oshokin/lost-item-tracker/internal/config"
	"github.com/oshokin/lost-item-tracker/internal/logger"
	"github.com/oshokin/lost-item-tracker/internal/service/common"
)

// Options controls the checker polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// PollInterval defines the interval between status checks.
	PollInterval time.Duration
	// Out receives one line per change; os.Stdout when nil.
	Out io.Writer
}

// DefaultPollInterval defines the default polling interval for status checks.
const DefaultPollInterval = 2 * time.Second

// Run polls the status until the context is canceled. Failed polls are
// logged and retried on the next tick.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "reminder-watch")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	// Determine server address: command line argument overrides config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	dialOptions := []common.Option{common.WithCallTimeout(cfg.Timeout)}
	if actor, actorErr := common.DetectActor(); actorErr == nil {
		dialOptions = append(dialOptions, common.WithActor(actor))
	}

	// Establish gRPC connection with timeout from configuration.
	client, err := common.Dial(ctx, serverAddress, dialOptions...)
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	// Ensure connection cleanup on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Watching reminder status", "server_address", serverAddress, "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var previous *reminder.StatusView

	for {
		view, pollErr := client.GetStatus(ctx)

		switch {
		case pollErr != nil:
			logger.ErrorKV(ctx, "Status check failed", "error", pollErr)
		case changed(previous, view):
			if _, err = fmt.Fprintln(out, describe(time.Now(), view)); err != nil {
				return err
			}

			previous = view
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-ticker.C:
		}
	}
}

// changed reports whether current differs from previous in a way worth printing.
func changed(previous, current *reminder.StatusView) bool {
	if previous == nil {
		return true
	}

	if previous.State != current.State || previous.Episodes != current.Episodes {
		return true
	}

	if previous.LastError != current.LastError {
		return true
	}

	switch {
	case previous.Home == nil && current.Home == nil:
		return false
	case previous.Home == nil || current.Home == nil:
		return true
	default:
		return *previous.Home != *current.Home
	}
}

// describe renders one status line.
func describe(now time.Time, view *reminder.StatusView) string {
	line := fmt.Sprintf("%s state=%s reminders=%d", now.Format(time.TimeOnly), view.State, view.Episodes)

	if view.Home != nil {
		line += " home=" + view.Home.String()
	}

	if view.Distance != nil {
		line += fmt.Sprintf(" distance=%.1fm", *view.Distance)
	}

	if view.LastError != "" {
		line += fmt.Sprintf(" error=%q", view.LastError)
	}

	return line
}
