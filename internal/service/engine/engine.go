package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
	"github.com/oshokin/lost-item-tracker/internal/domain/reminder"
	"github.com/oshokin/lost-item-tracker/internal/logger"
	"github.com/oshokin/lost-item-tracker/internal/service/notifier"
	"github.com/oshokin/lost-item-tracker/internal/service/position"
)

var (
	// ErrNoCurrentLocation is returned when saving home from the current fix
	// before any fix arrived.
	ErrNoCurrentLocation = errors.New("no current location available")
	// ErrNotRunning is returned by commands sent while the loop is stopped.
	ErrNotRunning = errors.New("reminder engine is not running")
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("reminder engine is already running")
)

// HomeStore persists the home location of the user.
type HomeStore interface {
	Load(ctx context.Context, userID string) (geo.Coordinate, bool, error)
	Save(ctx context.Context, userID string, home geo.Coordinate) error
	Clear(ctx context.Context, userID string) error
	// Home returns the session mirror kept by the last Load, Save or Clear.
	Home() (geo.Coordinate, bool)
}

// Subscriber opens a position stream for a user.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (*position.Subscription, error)
}

// Notifier shows the reminder alert.
type Notifier interface {
	RequestPermission(ctx context.Context) notifier.PermissionStatus
	Notify(ctx context.Context, title, body string) error
}

// Options configure an Engine.
type Options struct {
	// UserID owns the home location and the position stream.
	UserID string
	// Title and Body are the alert text.
	Title string
	Body  string
}

// Engine is the reminder loop of one user.
type Engine struct {
	opts     Options
	store    HomeStore
	sampler  Subscriber
	notifier Notifier
	machine  *reminder.Machine

	commands chan command
	stopped  chan struct{}
	started  chan struct{}
	once     sync.Once

	// Owned by the loop goroutine.
	currentFix position.Fix
	hasFix     bool

	mu     sync.RWMutex
	status Status
}

// New creates a stopped engine.
func New(opts Options, store HomeStore, sampler Subscriber, dispatcher Notifier, machine *reminder.Machine) *Engine {
	e := &Engine{
		opts:     opts,
		store:    store,
		sampler:  sampler,
		notifier: dispatcher,
		machine:  machine,
		commands: make(chan command),
		stopped:  make(chan struct{}),
		started:  make(chan struct{}),
	}

	e.status = Status{
		UserID:     opts.UserID,
		State:      machine.State(),
		Thresholds: machine.Thresholds(),
	}

	return e
}

// Run loads the home location, subscribes to positions and processes
// events until ctx is canceled. Sampler and storage failures are recorded
// in the status and never stop the loop.
func (e *Engine) Run(ctx context.Context) error {
	alreadyRunning := true

	e.once.Do(func() {
		alreadyRunning = false
	})

	if alreadyRunning {
		return ErrAlreadyRunning
	}

	defer close(e.stopped)

	ctx = logger.WithFields(logger.WithName(ctx, "engine"), "user_id", e.opts.UserID)

	e.loadHome(ctx)

	permission := e.notifier.RequestPermission(ctx)
	e.update(func(s *Status) {
		s.Permission = permission
	})

	sub, err := e.sampler.Subscribe(ctx, e.opts.UserID)
	if err != nil {
		return fmt.Errorf("subscribe to positions: %w", err)
	}

	defer sub.Cancel()

	e.update(func(s *Status) {
		s.Watching = true
		s.HighAccuracy = sub.Options().HighAccuracy
	})

	close(e.started)

	logger.InfoKV(ctx, "Reminder engine started", "state", e.machine.State().String())

	events := sub.Events()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Reminder engine stopped")

			return nil
		case ev, ok := <-events:
			if !ok {
				logger.Warnf(ctx, "Position stream ended")

				events = nil

				e.update(func(s *Status) {
					s.Watching = false
				})

				continue
			}

			e.handleEvent(ctx, ev)
		case cmd := <-e.commands:
			cmd.reply <- cmd.run(ctx, e)
		}
	}
}

// Started is closed once the loop accepts events and commands.
func (e *Engine) Started() <-chan struct{} {
	return e.started
}

func (e *Engine) loadHome(ctx context.Context) {
	e.update(func(s *Status) {
		s.Loading = true
	})

	home, ok, err := e.store.Load(ctx, e.opts.UserID)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to load home location", "error", err)
	}

	e.update(func(s *Status) {
		s.Loading = false
		s.Home, s.HasHome = home, ok
		s.LastError = err
	})
}

func (e *Engine) handleEvent(ctx context.Context, ev position.Event) {
	if ev.Failed() {
		state := e.machine.OnFailure()

		logger.WarnKV(ctx, "Position failure", "error", ev.Err, "state", state.String())

		e.update(func(s *Status) {
			s.LastError = ev.Err
		})

		return
	}

	e.currentFix, e.hasFix = ev.Fix, true

	e.evaluate(ctx)

	e.update(func(s *Status) {
		s.LastError = nil
	})
}

// evaluate feeds the current fix into the machine and executes effects.
func (e *Engine) evaluate(ctx context.Context) {
	if !e.hasFix {
		e.publish()

		return
	}

	home, hasHome := e.store.Home()
	previous := e.machine.State()
	state, effects := e.machine.OnFix(home, hasHome, e.currentFix.Coordinate)

	if state != previous {
		distance, _ := e.machine.LastDistance()

		logger.InfoKV(ctx, "Reminder state changed",
			"from", previous.String(),
			"to", state.String(),
			"distance_m", distance,
		)
	}

	e.publish()

	for _, effect := range effects {
		e.execute(ctx, effect)
	}
}

func (e *Engine) execute(ctx context.Context, effect reminder.Effect) {
	if effect.Kind != reminder.EffectNotify {
		return
	}

	ctx = logger.WithFields(ctx, "episode_id", effect.EpisodeID, "episode", effect.Episode)

	if err := e.notifier.Notify(ctx, e.opts.Title, e.opts.Body); err != nil {
		logger.WarnKV(ctx, "Reminder notification was not delivered", "error", err)

		return
	}

	logger.InfoKV(ctx, "Reminder notification dispatched", "distance_m", effect.Distance)
}

// publish copies loop-owned state into the snapshot.
func (e *Engine) publish() {
	distance, hasDistance := e.machine.LastDistance()
	home, hasHome := e.store.Home()

	e.update(func(s *Status) {
		s.State = e.machine.State()
		s.Home, s.HasHome = home, hasHome
		s.CurrentFix, s.HasFix = e.currentFix, e.hasFix
		s.LastDistance, s.HasDistance = distance, hasDistance
		s.Episodes = e.machine.Episodes()
	})
}

func (e *Engine) update(fn func(s *Status)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn(&e.status)
}
