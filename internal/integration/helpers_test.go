package integration

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lost-item-tracker/internal/config"
	"github.com/oshokin/lost-item-tracker/internal/service/common"
	"github.com/oshokin/lost-item-tracker/internal/service/server"
)

const (
	testUser    = "alice"
	waitTimeout = 5 * time.Second
	waitTick    = 20 * time.Millisecond
)

// reservePort asks the OS for a free localhost port.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// writeConfig saves a push-source configuration for addr and returns its path.
func writeConfig(t *testing.T, addr string, storage config.StorageConfig) string {
	t.Helper()

	cfg := config.Default()
	cfg.ServerAddress = addr
	cfg.UserID = testUser
	cfg.LogLevel = "warn"
	cfg.Timeout = 3 * time.Second
	cfg.Storage = storage
	cfg.Position.Source = "push"
	cfg.Position.Timeout = time.Minute
	cfg.Notification.Platform = "log"

	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))

	return cfgPath
}

// startServer runs the real reminder server and returns a function that
// stops it and waits for Run to return.
func startServer(t *testing.T, cfgPath string) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			ConfigPath:             cfgPath,
			ListenAddress:          "",
			AllowMultipleInstances: true,
		})
	}()

	return func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(waitTimeout):
			t.Fatal("server did not stop")
		}
	}
}

// dial connects a client and waits until the server answers.
func dial(t *testing.T, addr string) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), addr,
		common.WithCallTimeout(time.Second),
		common.WithActor(common.Actor{Hostname: "test-host", Username: "test-user"}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	require.Eventually(t, func() bool {
		_, statusErr := c.GetStatus(context.Background())

		return statusErr == nil
	}, waitTimeout, waitTick)

	return c
}
