package home

import (
	"context"
	"errors"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
)

// Repository defines persistence operations for the home location.
type Repository interface {
	// Load returns the saved home or ErrNotFound.
	Load(ctx context.Context, userID string) (geo.Coordinate, error)
	// Save overwrites the home of the user, keeping other user fields.
	Save(ctx context.Context, userID string, home geo.Coordinate) error
	// Clear removes the home of the user, keeping other user fields.
	Clear(ctx context.Context, userID string) error
	// Close releases the backend.
	Close() error
}

var (
	// ErrNotFound is returned when the user never saved a home location.
	ErrNotFound = errors.New("home location not found")
	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrCorrupted is returned when a stored home cannot be decoded.
	ErrCorrupted = errors.New("stored home location is corrupted")
)

// Field names shared by the backends. They follow the user document layout
// of the web client: users/{uid}.homeLocation = {lat, lng}.
const (
	fieldHomeLocation = "homeLocation"
	fieldLatitude     = "lat"
	fieldLongitude    = "lng"
	fieldUpdatedAt    = "homeUpdatedAt"
)

// decode validates a stored pair of degrees.
func decode(latitude, longitude float64) (geo.Coordinate, error) {
	c, err := geo.NewCoordinate(latitude, longitude)
	if err != nil {
		return geo.Coordinate{}, errors.Join(ErrCorrupted, err)
	}

	return c, nil
}
