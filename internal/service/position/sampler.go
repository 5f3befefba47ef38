package position

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
	"github.com/oshokin/lost-item-tracker/internal/logger"
)

// Sampler subscribes to a device and normalizes its samples.
type Sampler struct {
	device Device
	opts   Options
	now    func() time.Time
}

// NewSampler creates a sampler over device.
func NewSampler(device Device, opts Options) *Sampler {
	return &Sampler{
		device: device,
		opts:   opts,
		now:    time.Now,
	}
}

// Subscription is a live stream of events. Events is closed when the
// device stops, after a terminal ErrUnsupported, or on Cancel.
type Subscription struct {
	opts   Options
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Options returns the knobs the device was asked to watch with.
func (s *Subscription) Options() Options {
	return s.opts
}

// Events returns the event stream.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Cancel stops the subscription and waits until the pump has exited.
// No event is delivered after Cancel returns. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed once the subscription has fully stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Subscribe starts watching the device for userID.
// An absent capability yields a subscription with one terminal ErrUnsupported event.
func (s *Sampler) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)

	sub := &Subscription{
		opts:   s.opts,
		events: make(chan Event),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	logger.DebugKV(ctx, "Watching position",
		"user_id", userID,
		"high_accuracy", s.opts.HighAccuracy,
		"max_fix_age", s.opts.MaxFixAge.String(),
		"timeout", s.opts.Timeout.String(),
	)

	raw, err := s.device.Watch(subCtx, userID, s.opts)

	switch {
	case err == nil:
		go s.pump(subCtx, sub, raw)
	case errors.Is(err, ErrUnsupported):
		logger.WarnKV(ctx, "Location capability is not supported", "user_id", userID)

		go s.terminal(subCtx, sub, err)
	default:
		cancel()

		return nil, fmt.Errorf("watch position: %w", err)
	}

	return sub, nil
}

// terminal delivers a single failure and closes the stream.
func (s *Sampler) terminal(ctx context.Context, sub *Subscription, err error) {
	defer close(sub.done)
	defer close(sub.events)

	select {
	case sub.events <- Event{Err: err}:
	case <-ctx.Done():
	}
}

//nolint:cyclop // One select loop owns the timer and the stream.
func (s *Sampler) pump(ctx context.Context, sub *Subscription, raw <-chan Sample) {
	defer close(sub.done)
	defer close(sub.events)

	var (
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	if s.opts.Timeout > 0 {
		timer = time.NewTimer(s.opts.Timeout)
		defer timer.Stop()

		timeoutC = timer.C
	}

	resetTimer := func() {
		if timer != nil {
			timer.Reset(s.opts.Timeout)
		}
	}

	deliver := func(ev Event) bool {
		select {
		case sub.events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-timeoutC:
			if !deliver(Event{Err: ErrTimeout}) {
				return
			}

			resetTimer()
		case sample, ok := <-raw:
			if !ok {
				return
			}

			ev, keep := s.normalize(ctx, sample)
			if !keep {
				continue
			}

			resetTimer()

			if !deliver(ev) {
				return
			}

			if errors.Is(ev.Err, ErrUnsupported) {
				return
			}
		}
	}
}

// normalize converts a raw sample into an event; false means drop it.
func (s *Sampler) normalize(ctx context.Context, sample Sample) (Event, bool) {
	if sample.Err != nil {
		return Event{Err: typed(sample.Err)}, true
	}

	coordinate, err := geo.NewCoordinate(sample.Latitude, sample.Longitude)
	if err != nil {
		return Event{Err: errors.Join(ErrUnavailable, err)}, true
	}

	now := s.now()

	timestamp := sample.Timestamp
	if timestamp.IsZero() {
		timestamp = now
	}

	if s.opts.MaxFixAge > 0 && now.Sub(timestamp) > s.opts.MaxFixAge {
		logger.DebugKV(ctx, "Dropping stale fix", "age", now.Sub(timestamp).String(), "max_age", s.opts.MaxFixAge.String())

		return Event{}, false
	}

	fix := Fix{
		Coordinate: coordinate,
		Timestamp:  timestamp,
	}

	if sample.Accuracy != nil {
		fix.Accuracy = *sample.Accuracy
	}

	return Event{Fix: fix}, true
}
