package position

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
)

var (
	// ErrPermissionDenied is reported when the user refused location access.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnavailable is reported when the device cannot determine a position.
	ErrUnavailable = errors.New("position unavailable")
	// ErrTimeout is reported when no fix arrives within the configured window.
	ErrTimeout = errors.New("position timeout")
	// ErrUnsupported is the terminal failure of platforms without location support.
	ErrUnsupported = errors.New("location capability not supported")
)

// Options are the knobs passed to the device.
type Options struct {
	// HighAccuracy asks for the most precise fixes available.
	HighAccuracy bool
	// MaxFixAge drops fixes whose timestamp is older than this. Zero or negative disables the check.
	MaxFixAge time.Duration
	// Timeout reports ErrTimeout when the device stays silent this long. Zero or negative disables it.
	Timeout time.Duration
}

// Sample is a raw reading from a device: either a position or an error.
type Sample struct {
	Latitude  float64
	Longitude float64
	// Accuracy in meters, nil when the device does not report it.
	Accuracy  *float64
	Timestamp time.Time
	Err       error
}

// Device is a platform location capability.
type Device interface {
	// Watch starts delivering samples for userID until ctx is canceled.
	// It returns ErrUnsupported when the capability is absent.
	Watch(ctx context.Context, userID string, opts Options) (<-chan Sample, error)
}

// Fix is a normalized, validated position.
type Fix struct {
	Coordinate geo.Coordinate
	// Accuracy in meters; zero when unknown.
	Accuracy  float64
	Timestamp time.Time
}

// Event carries either a Fix or an error, never both.
type Event struct {
	Fix Fix
	Err error
}

// Failed reports whether the event is a failure.
func (e Event) Failed() bool {
	return e.Err != nil
}

// typed returns err unchanged when it already carries a known failure,
// otherwise it wraps it in ErrUnavailable.
func typed(err error) error {
	for _, known := range []error{ErrPermissionDenied, ErrUnavailable, ErrTimeout, ErrUnsupported} {
		if errors.Is(err, known) {
			return err
		}
	}

	return errors.Join(ErrUnavailable, err)
}

// failures maps wire names to sampler failures.
//
//nolint:gochecknoglobals // Read-only lookup table.
var failures = map[string]error{
	"permission_denied": ErrPermissionDenied,
	"unavailable":       ErrUnavailable,
	"timeout":           ErrTimeout,
}

// FailureByName resolves permission_denied, unavailable or timeout.
func FailureByName(name string) (error, bool) { //nolint:revive // The bool reports a known name.
	err, ok := failures[name]

	return err, ok
}

// FailureName is the inverse of FailureByName; it returns "" for other errors.
func FailureName(err error) string {
	for name, failure := range failures {
		if errors.Is(err, failure) {
			return name
		}
	}

	return ""
}
