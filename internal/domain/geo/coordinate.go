package geo

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MaxLatitude is the absolute latitude bound in degrees.
	MaxLatitude = 90.0
	// MaxLongitude is the absolute longitude bound in degrees.
	MaxLongitude = 180.0
)

// ErrInvalidCoordinate is returned when a coordinate is outside the valid range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is an immutable geographic point in decimal degrees.
type Coordinate struct {
	// Latitude in degrees, [-90, 90].
	Latitude float64
	// Longitude in degrees, [-180, 180].
	Longitude float64
}

// NewCoordinate builds a validated coordinate.
func NewCoordinate(latitude, longitude float64) (Coordinate, error) {
	c := Coordinate{
		Latitude:  latitude,
		Longitude: longitude,
	}

	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}

	return c, nil
}

// Validate reports whether the coordinate lies within the valid ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -MaxLatitude || c.Latitude > MaxLatitude {
		return fmt.Errorf("latitude %v out of range: %w", c.Latitude, ErrInvalidCoordinate)
	}

	if math.IsNaN(c.Longitude) || c.Longitude < -MaxLongitude || c.Longitude > MaxLongitude {
		return fmt.Errorf("longitude %v out of range: %w", c.Longitude, ErrInvalidCoordinate)
	}

	return nil
}

// String renders the coordinate as "lat,lng" with six decimals (~0.1 m).
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}
