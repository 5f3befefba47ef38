package reminder

import (
	"errors"
	"fmt"
)

// State is the reminder state of a session.
type State int

const (
	// StateIdle means there is no home point or no fix yet.
	StateIdle State = iota
	// StateArmed means the next departure will produce a notification.
	StateArmed
	// StateNotified means the reminder for the current departure already fired.
	StateNotified
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateNotified:
		return "notified"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	// DefaultDepartureThreshold is the distance in meters beyond which the user is away.
	DefaultDepartureThreshold = 200.0
	// DefaultReturnThreshold is the distance in meters within which the user is back.
	DefaultReturnThreshold = 50.0
)

// ErrInvalidThresholds is returned when the return threshold is not below the departure one.
var ErrInvalidThresholds = errors.New("return threshold must be positive and below departure threshold")

// Thresholds is the hysteresis band in meters.
type Thresholds struct {
	// Departure is exceeded (strictly) to fire a notification.
	Departure float64
	// Return must be undercut (strictly) to re-arm.
	Return float64
}

// DefaultThresholds returns the 200 m / 50 m band.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Departure: DefaultDepartureThreshold,
		Return:    DefaultReturnThreshold,
	}
}

// Validate checks the band invariant.
func (t Thresholds) Validate() error {
	if t.Return <= 0 || t.Return >= t.Departure {
		return fmt.Errorf("return=%v departure=%v: %w", t.Return, t.Departure, ErrInvalidThresholds)
	}

	return nil
}

// Next is the transition function. It returns the next state and whether a
// notification must be dispatched.
func Next(current State, distance float64, hasHome bool, t Thresholds) (State, bool) {
	if !hasHome {
		return StateIdle, false
	}

	switch current {
	case StateIdle:
		return StateArmed, false
	case StateArmed:
		if distance > t.Departure {
			return StateNotified, true
		}

		return StateArmed, false
	case StateNotified:
		if distance < t.Return {
			return StateArmed, false
		}

		return StateNotified, false
	default:
		return StateIdle, false
	}
}
