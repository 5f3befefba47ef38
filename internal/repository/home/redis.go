package home

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
)

// DefaultKeyPrefix is prepended to user hash keys.
const DefaultKeyPrefix = "lost-item-tracker:users:"

// RedisRepository keeps one hash per user. Saving sets only the home fields
// of the hash, so other user fields survive.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// RedisConfig contains connection options for Redis.
type RedisConfig struct {
	// Addr is the Redis server address (e.g., "localhost:6379").
	Addr string
	// Password is the Redis password (empty for no auth).
	Password string
	// DB is the Redis database number (0-15).
	DB int
	// KeyPrefix defaults to DefaultKeyPrefix.
	KeyPrefix string
}

// NewRedisRepository wraps an existing client.
func NewRedisRepository(client *redis.Client, keyPrefix string) *RedisRepository {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	return &RedisRepository{
		client: client,
		prefix: keyPrefix,
	}
}

// NewRedisFromConfig connects to Redis and verifies the connection.
func NewRedisFromConfig(ctx context.Context, cfg RedisConfig) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis: connect: %w", errors.Join(ErrUnavailable, err))
	}

	return NewRedisRepository(client, cfg.KeyPrefix), nil
}

// Load reads the home fields of the user hash.
func (r *RedisRepository) Load(ctx context.Context, userID string) (geo.Coordinate, error) {
	values, err := r.client.HMGet(ctx, r.key(userID), fieldLatitude, fieldLongitude).Result()
	if err != nil {
		return geo.Coordinate{}, classifyRedis("load home", err)
	}

	if len(values) != 2 || values[0] == nil || values[1] == nil {
		return geo.Coordinate{}, ErrNotFound
	}

	lat, latErr := parseFloat(values[0])
	lng, lngErr := parseFloat(values[1])

	if latErr != nil || lngErr != nil {
		return geo.Coordinate{}, fmt.Errorf("user %q: %w", userID, errors.Join(ErrCorrupted, latErr, lngErr))
	}

	return decode(lat, lng)
}

// Save sets the home fields of the user hash.
func (r *RedisRepository) Save(ctx context.Context, userID string, home geo.Coordinate) error {
	err := r.client.HSet(ctx, r.key(userID),
		fieldLatitude, strconv.FormatFloat(home.Latitude, 'f', -1, 64),
		fieldLongitude, strconv.FormatFloat(home.Longitude, 'f', -1, 64),
		fieldUpdatedAt, time.Now().UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		return classifyRedis("save home", err)
	}

	return nil
}

// Clear removes the home fields of the user hash.
func (r *RedisRepository) Clear(ctx context.Context, userID string) error {
	err := r.client.HDel(ctx, r.key(userID), fieldLatitude, fieldLongitude, fieldUpdatedAt).Err()
	if err != nil {
		return classifyRedis("clear home", err)
	}

	return nil
}

// Close closes the Redis connection.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) key(userID string) string {
	return r.prefix + userID
}

func parseFloat(v any) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected value type %T", v)
	}

	return strconv.ParseFloat(s, 64)
}

// classifyRedis marks network and closed-client failures as ErrUnavailable.
func classifyRedis(op string, err error) error {
	var netErr net.Error

	if errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, io.EOF) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("redis: %s: %w", op, errors.Join(ErrUnavailable, err))
	}

	return fmt.Errorf("redis: %s: %w", op, err)
}
