package engine

import (
	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
	"github.com/oshokin/lost-item-tracker/internal/domain/reminder"
	"github.com/oshokin/lost-item-tracker/internal/service/notifier"
	"github.com/oshokin/lost-item-tracker/internal/service/position"
)

// Status is a point-in-time view of the engine.
type Status struct {
	UserID string
	State  reminder.State

	Home    geo.Coordinate
	HasHome bool
	// Loading is true while the home location is being fetched.
	Loading bool

	CurrentFix position.Fix
	HasFix     bool

	LastDistance float64
	HasDistance  bool

	// LastError is the latest sampler or storage failure; a good fix clears it.
	LastError error
	// Watching is false once the position stream has ended.
	Watching bool
	// HighAccuracy mirrors the accuracy mode the device was asked for.
	HighAccuracy bool

	Episodes   int
	Permission notifier.PermissionStatus
	Thresholds reminder.Thresholds
}

// Status returns the latest snapshot.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.status
}
