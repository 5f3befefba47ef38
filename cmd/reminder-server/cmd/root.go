package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/lost-item-tracker/internal/config"
	"github.com/oshokin/lost-item-tracker/internal/service/server"
	"github.com/oshokin/lost-item-tracker/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// allowMultiple skips the single-instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the reminder server.
	rootCmd = &cobra.Command{
		Use:   "reminder-server [listen-address]",
		Short: "Run the leave-home reminder engine and its gRPC control plane.",
		Long: `Starts the proximity reminder engine for the configured user.

The engine watches the position source, measures every fix against the saved
home location and shows one reminder each time the user leaves home. It
re-arms once the user is back within the return distance.

The gRPC server listens on the port of server_addr from the configuration file.
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:8080).
Home locations are stored in a JSON file, SQLite or Redis depending on storage.driver.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:             configPath,
				ListenAddress:          listenAddress,
				AllowMultipleInstances: allowMultiple,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the reminder-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single-instance check")
}
