package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oshokin/lost-item-tracker/internal/api/grpc/reminder"
	"github.com/oshokin/lost-item-tracker/internal/config"
	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
	"github.com/oshokin/lost-item-tracker/internal/logger"
	"github.com/oshokin/lost-item-tracker/internal/service/common"
	"github.com/oshokin/lost-item-tracker/internal/service/position"
)

// Options configures reminder-ctl behavior.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// UserID overrides the user from config when specified.
	UserID string

	// Out receives human-readable output; os.Stdout when nil.
	Out io.Writer
}

// session is an open connection plus the resolved settings.
type session struct {
	client *common.Client
	userID string
	out    io.Writer
}

func connect(ctx context.Context, opts *Options) (*session, error) {
	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	userID := cfg.UserID
	if opts.UserID != "" {
		userID = opts.UserID
	}

	dialOptions := []common.Option{common.WithCallTimeout(cfg.Timeout)}

	// Identify current user and hostname for audit logging.
	if actor, actorErr := common.DetectActor(); actorErr == nil {
		dialOptions = append(dialOptions, common.WithActor(actor))
	} else {
		logger.WarnKV(ctx, "Unable to detect actor", "error", actorErr)
	}

	client, err := common.Dial(ctx, serverAddress, dialOptions...)
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &session{
		client: client,
		userID: userID,
		out:    out,
	}, nil
}

func (s *session) close() {
	_ = s.client.Close()
}

// Status prints the engine status.
func Status(ctx context.Context, opts *Options) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer s.close()

	view, err := s.client.GetStatus(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(s.out, formatStatus(view))

	return err
}

// SetHome saves an explicit home location.
func SetHome(ctx context.Context, opts *Options, home geo.Coordinate) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer s.close()

	saved, err := s.client.SaveHome(ctx, home)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(s.out, "home saved: %s\n", saved)

	return err
}

// SaveCurrentHome saves the latest fix seen by the server as home.
func SaveCurrentHome(ctx context.Context, opts *Options) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer s.close()

	saved, err := s.client.SaveCurrentHome(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(s.out, "home saved from current location: %s\n", saved)

	return err
}

// ClearHome removes the home location.
func ClearHome(ctx context.Context, opts *Options) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer s.close()

	if err = s.client.ClearHome(ctx); err != nil {
		return err
	}

	_, err = fmt.Fprintln(s.out, "home cleared")

	return err
}

// Recheck re-evaluates the latest fix on the server and prints the result.
func Recheck(ctx context.Context, opts *Options) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer s.close()

	view, err := s.client.Recheck(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(s.out, formatStatus(view))

	return err
}

// Report sends one fix, or a named failure when failure is not empty.
func Report(ctx context.Context, opts *Options, sample position.Sample, failure string) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer s.close()

	if sample.Timestamp.IsZero() && failure == "" {
		sample.Timestamp = time.Now()
	}

	return s.client.ReportFix(ctx, s.userID, sample, failure)
}

// Simulate plays a track file against the server at the recorded pace.
// Failed reports are logged and the playback goes on.
func Simulate(ctx context.Context, opts *Options, trackPath string) error {
	ctx = logger.WithName(ctx, "reminder-ctl")

	track, err := position.LoadTrack(trackPath)
	if err != nil {
		return err
	}

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer s.close()

	samples, err := position.NewReplayDevice(track).Watch(ctx, s.userID, position.Options{})
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Replaying track", "track", trackPath, "steps", len(track.Steps), "user_id", s.userID)

	var sent, failed int

	for sample := range samples {
		failure := position.FailureName(sample.Err)

		if err = s.client.ReportFix(ctx, s.userID, sample, failure); err != nil {
			failed++

			logger.ErrorKV(ctx, "ReportFix failed", "error", err)

			continue
		}

		sent++
	}

	logger.InfoKV(ctx, "Track finished", "sent", sent, "failed", failed)

	return ctx.Err()
}

// formatStatus converts a status view to a readable multi-line message.
func formatStatus(view *reminder.StatusView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "user: %s\nstate: %s\n", view.UserID, view.State)

	switch {
	case view.Loading:
		b.WriteString("home: loading\n")
	case view.Home != nil:
		fmt.Fprintf(&b, "home: %s\n", view.Home)
	default:
		b.WriteString("home: <not set>\n")
	}

	if view.CurrentFix != nil {
		fmt.Fprintf(&b, "current: %s (±%.0f m)\n", view.CurrentFix, view.Accuracy)
	} else {
		b.WriteString("current: <unknown>\n")
	}

	if view.Distance != nil {
		fmt.Fprintf(&b, "distance: %.1f m\n", *view.Distance)
	}

	fmt.Fprintf(&b, "band: return < %.0f m, departure > %.0f m\n", view.Return, view.Departure)
	fmt.Fprintf(&b, "reminders sent: %d\nnotifications: %s\nwatching: %t (high accuracy: %t)",
		view.Episodes, view.Permission, view.Watching, view.HighAccuracy)

	if view.LastError != "" {
		fmt.Fprintf(&b, "\nlast error: %s", view.LastError)
	}

	return b.String()
}
