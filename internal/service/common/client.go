//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"

	api "github.com/oshokin/lost-item-tracker/internal/api/grpc/reminder"
	"github.com/oshokin/lost-item-tracker/internal/config"
	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
	"github.com/oshokin/lost-item-tracker/internal/service/position"
	"github.com/oshokin/lost-item-tracker/internal/version"
)

// Client wraps the ReminderService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the reminder server.
	conn *grpc.ClientConn
	// api is the ReminderService client stub.
	api *api.ReminderServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor is attached to every call as metadata.
	actor string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor attaches the caller identity to every call.
func WithActor(actor Actor) Option {
	return func(c *Client) {
		c.actor = actor.String()
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the reminder server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(version.UserAgent("reminder-ctl")),
	)
	if err != nil {
		return nil, fmt.Errorf("dial reminder server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewReminderServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetStatus retrieves the engine status.
func (c *Client) GetStatus(ctx context.Context) (*api.StatusView, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetStatus(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	return api.FromStatusStruct(resp)
}

// SaveHome stores home as the home location.
func (c *Client) SaveHome(ctx context.Context, home geo.Coordinate) (geo.Coordinate, error) {
	if err := home.Validate(); err != nil {
		return geo.Coordinate{}, err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SaveHome(callCtx, api.SaveHomeRequest(home))
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("save home: %w", err)
	}

	return api.HomeFromResponse(resp)
}

// SaveCurrentHome stores the latest fix seen by the server as home.
func (c *Client) SaveCurrentHome(ctx context.Context) (geo.Coordinate, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SaveHome(callCtx, api.SaveCurrentHomeRequest())
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("save current home: %w", err)
	}

	return api.HomeFromResponse(resp)
}

// ClearHome removes the home location.
func (c *Client) ClearHome(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.ClearHome(callCtx, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("clear home: %w", err)
	}

	return nil
}

// Recheck asks the server to measure its latest fix again.
func (c *Client) Recheck(ctx context.Context) (*api.StatusView, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Recheck(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("recheck: %w", err)
	}

	return api.FromStatusStruct(resp)
}

// ReportFix pushes a position sample, or a named failure when failure is set.
func (c *Client) ReportFix(ctx context.Context, userID string, sample position.Sample, failure string) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.ReportFix(callCtx, api.ReportFixRequest(userID, sample, failure)); err != nil {
		return fmt.Errorf("report fix: %w", err)
	}

	return nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline. The actor is
// attached as outgoing metadata.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.actor != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, ActorMetadataKey, c.actor)
	}

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
