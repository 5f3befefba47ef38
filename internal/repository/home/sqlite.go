package home

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	// Pure Go SQLite driver registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
)

// SQLiteRepository keeps user documents in a SQLite users table.
// Only the home columns are written, other user columns are preserved.
type SQLiteRepository struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewSQLiteRepository opens (or creates) the database at path.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	// A single connection keeps writes serialized inside SQLite.
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("sqlite: enable WAL mode: %w", errors.Join(ErrUnavailable, err))
	}

	if err = createSchema(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id         TEXT PRIMARY KEY,
		display_name    TEXT,
		home_lat        REAL,
		home_lng        REAL,
		home_updated_at DATETIME
	);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: create schema: %w", err)
	}

	return nil
}

// Load returns the saved home of the user.
func (r *SQLiteRepository) Load(ctx context.Context, userID string) (geo.Coordinate, error) {
	if r.closed.Load() {
		return geo.Coordinate{}, ErrUnavailable
	}

	var lat, lng sql.NullFloat64

	err := r.db.QueryRowContext(ctx,
		"SELECT home_lat, home_lng FROM users WHERE user_id = ?",
		userID,
	).Scan(&lat, &lng)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return geo.Coordinate{}, ErrNotFound
	case err != nil:
		return geo.Coordinate{}, classifySQL("load home", err)
	case !lat.Valid || !lng.Valid:
		return geo.Coordinate{}, ErrNotFound
	}

	return decode(lat.Float64, lng.Float64)
}

// Save upserts the home columns of the user row.
func (r *SQLiteRepository) Save(ctx context.Context, userID string, home geo.Coordinate) error {
	if r.closed.Load() {
		return ErrUnavailable
	}

	query := `
	INSERT INTO users (user_id, home_lat, home_lng, home_updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE SET
		home_lat = excluded.home_lat,
		home_lng = excluded.home_lng,
		home_updated_at = excluded.home_updated_at
	`

	_, err := r.db.ExecContext(ctx, query, userID, home.Latitude, home.Longitude, time.Now().UTC())
	if err != nil {
		return classifySQL("save home", err)
	}

	return nil
}

// Clear nulls the home columns of the user row.
func (r *SQLiteRepository) Clear(ctx context.Context, userID string) error {
	if r.closed.Load() {
		return ErrUnavailable
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET home_lat = NULL, home_lng = NULL, home_updated_at = NULL WHERE user_id = ?",
		userID,
	)
	if err != nil {
		return classifySQL("clear home", err)
	}

	return nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}

	return r.db.Close()
}

// classifySQL marks connection-level failures as ErrUnavailable.
func classifySQL(op string, err error) error {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("sqlite: %s: %w", op, errors.Join(ErrUnavailable, err))
	}

	return fmt.Errorf("sqlite: %s: %w", op, err)
}
