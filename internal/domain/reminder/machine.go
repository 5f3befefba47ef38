package reminder

import (
	"github.com/google/uuid"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
)

// EffectKind enumerates side effects requested by the machine.
type EffectKind int

// EffectNotify asks the caller to dispatch the leave-home notification.
const EffectNotify EffectKind = iota + 1

// Effect is a side effect the caller executes after a transition.
type Effect struct {
	// Kind of the effect.
	Kind EffectKind
	// EpisodeID uniquely identifies the departure episode.
	EpisodeID string
	// Episode is the 1-based departure counter within the session.
	Episode int
	// Distance from home in meters at the moment of the transition.
	Distance float64
}

// Machine tracks the reminder state across fixes.
type Machine struct {
	thresholds Thresholds
	state      State

	lastDistance float64
	hasDistance  bool
	episodes     int

	newEpisodeID func() string
}

// Option customizes a Machine.
type Option func(*Machine)

// WithEpisodeIDGenerator overrides the episode ID source.
func WithEpisodeIDGenerator(fn func() string) Option {
	return func(m *Machine) {
		if fn != nil {
			m.newEpisodeID = fn
		}
	}
}

// NewMachine creates an idle machine for the provided band.
func NewMachine(t Thresholds, opts ...Option) (*Machine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		thresholds:   t,
		state:        StateIdle,
		newEpisodeID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// OnFix feeds a position fix. When hasHome is false the machine goes idle
// and the fix is not measured.
func (m *Machine) OnFix(home geo.Coordinate, hasHome bool, fix geo.Coordinate) (State, []Effect) {
	if !hasHome {
		m.Reset()

		return m.state, nil
	}

	distance := geo.Distance(home, fix)
	m.lastDistance = distance
	m.hasDistance = true

	next, notify := Next(m.state, distance, true, m.thresholds)
	m.state = next

	if !notify {
		return m.state, nil
	}

	m.episodes++

	effect := Effect{
		Kind:      EffectNotify,
		EpisodeID: m.newEpisodeID(),
		Episode:   m.episodes,
		Distance:  distance,
	}

	return m.state, []Effect{effect}
}

// OnFailure records a sampler failure. State and last distance are kept.
func (m *Machine) OnFailure() State {
	return m.state
}

// Reset moves the machine to idle and forgets the last distance.
// The episode counter is kept for the session.
func (m *Machine) Reset() {
	m.state = StateIdle
	m.lastDistance = 0
	m.hasDistance = false
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// LastDistance returns the most recent distance from home, if any.
func (m *Machine) LastDistance() (float64, bool) {
	return m.lastDistance, m.hasDistance
}

// Episodes returns how many notifications were requested in this session.
func (m *Machine) Episodes() int {
	return m.episodes
}

// Thresholds returns the configured band.
func (m *Machine) Thresholds() Thresholds {
	return m.thresholds
}
