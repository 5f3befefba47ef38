package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/lost-item-tracker/internal/config"
	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
	"github.com/oshokin/lost-item-tracker/internal/service/checker"
	"github.com/oshokin/lost-item-tracker/internal/service/client"
	"github.com/oshokin/lost-item-tracker/internal/service/position"
	"github.com/oshokin/lost-item-tracker/internal/version"
)

var (
	// options shared by every subcommand.
	options client.Options

	// accuracy of a reported fix in meters; negative means unknown.
	accuracy float64
	// failure reports a named failure instead of a fix.
	failure string
	// pollInterval between status checks of the watch command.
	pollInterval time.Duration

	// rootCmd represents the base command for controlling the reminder server.
	rootCmd = &cobra.Command{
		Use:   "reminder-ctl",
		Short: "Control a running reminder server.",
		Long: `Inspects and controls the leave-home reminder engine over gRPC.

Server address and user are loaded from the configuration file and can be
overridden with flags.`,
		SilenceUsage: true,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the reminder state, home location and last distance.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSignals(func(ctx context.Context) error {
				return client.Status(ctx, withOutput(cmd))
			})
		},
	}

	recheckCmd = &cobra.Command{
		Use:   "recheck",
		Short: "Measure the latest fix again without waiting for a new one.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSignals(func(ctx context.Context) error {
				return client.Recheck(ctx, withOutput(cmd))
			})
		},
	}

	homeCmd = &cobra.Command{
		Use:   "home",
		Short: "Manage the home location.",
	}

	homeSetCmd = &cobra.Command{
		Use:   "set <latitude> <longitude>",
		Short: "Save an explicit home location.",
		Example: `  reminder-ctl home set 10.0000 76.0000
  reminder-ctl home set -- -33.8688 151.2093`,
		Args: cobra.ExactArgs(2), //nolint:mnd // Latitude and longitude.
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := parseCoordinate(args[0], args[1])
			if err != nil {
				return err
			}

			return withSignals(func(ctx context.Context) error {
				return client.SetHome(ctx, withOutput(cmd), home)
			})
		},
	}

	homeCurrentCmd = &cobra.Command{
		Use:   "current",
		Short: "Save the current location as home.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSignals(func(ctx context.Context) error {
				return client.SaveCurrentHome(ctx, withOutput(cmd))
			})
		},
	}

	homeClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove the home location.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSignals(func(ctx context.Context) error {
				return client.ClearHome(ctx, withOutput(cmd))
			})
		},
	}

	reportCmd = &cobra.Command{
		Use:   "report [latitude longitude]",
		Short: "Report one position fix, or a failure with --error.",
		Example: `  reminder-ctl report 10.0020 76.0000 --accuracy 5
  reminder-ctl report -- -33.8688 151.2093
  reminder-ctl report --error permission_denied`,
		Args: func(cmd *cobra.Command, args []string) error {
			if failure != "" {
				return cobra.NoArgs(cmd, args)
			}

			return cobra.ExactArgs(2)(cmd, args) //nolint:mnd // Latitude and longitude.
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var sample position.Sample

			if failure == "" {
				fix, err := parseCoordinate(args[0], args[1])
				if err != nil {
					return err
				}

				sample = position.Sample{
					Latitude:  fix.Latitude,
					Longitude: fix.Longitude,
					Timestamp: time.Now(),
				}

				if accuracy >= 0 {
					sample.Accuracy = &accuracy
				}
			}

			return withSignals(func(ctx context.Context) error {
				return client.Report(ctx, withOutput(cmd), sample, failure)
			})
		},
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Poll the server and print every reminder state change.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSignals(func(ctx context.Context) error {
				return checker.Run(ctx, &checker.Options{
					ConfigPath:    options.ConfigPath,
					ServerAddress: options.ServerAddress,
					PollInterval:  pollInterval,
					Out:           cmd.OutOrStdout(),
				})
			})
		},
	}

	simulateCmd = &cobra.Command{
		Use:   "simulate <track-file>",
		Short: "Replay a YAML track against the server.",
		Long: `Replays a YAML track file against the server at the recorded pace.

Each step waits "after", then reports either lat/lng (with optional accuracy)
or an error (permission_denied, unavailable, timeout).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSignals(func(ctx context.Context) error {
				return client.Simulate(ctx, withOutput(cmd), args[0])
			})
		},
	}
)

// Execute runs the reminder-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withSignals runs fn with a context canceled on SIGTERM/SIGINT.
func withSignals(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return fn(ctx)
}

func withOutput(cmd *cobra.Command) *client.Options {
	opts := options
	opts.Out = cmd.OutOrStdout()

	return &opts
}

func parseCoordinate(latitude, longitude string) (geo.Coordinate, error) {
	lat, err := strconv.ParseFloat(latitude, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("latitude: %w", err)
	}

	lng, err := strconv.ParseFloat(longitude, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("longitude: %w", err)
	}

	return geo.NewCoordinate(lat, lng)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&options.ServerAddress, "server", "s", "", "server address override")
	rootCmd.PersistentFlags().StringVarP(&options.UserID, "user", "u", "", "user ID override")

	reportCmd.Flags().Float64VarP(&accuracy, "accuracy", "a", -1, "fix accuracy in meters")
	reportCmd.Flags().StringVarP(&failure, "error", "e", "", "report a failure: permission_denied, unavailable or timeout")

	watchCmd.Flags().DurationVarP(&pollInterval, "interval", "i", checker.DefaultPollInterval, "poll interval")

	homeCmd.AddCommand(homeSetCmd, homeCurrentCmd, homeClearCmd)
	rootCmd.AddCommand(statusCmd, recheckCmd, homeCmd, reportCmd, watchCmd, simulateCmd)
}
