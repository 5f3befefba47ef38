package position

import (
	"context"
	"errors"
	"sync"
)

// ErrNotWatching is returned by Push when nobody watches the user.
var ErrNotWatching = errors.New("no active position watch for user")

// PushDevice receives samples from a remote reporter (for example the
// phone app calling ReportFix) and hands them to the watcher of the user.
type PushDevice struct {
	mu       sync.RWMutex
	watchers map[string]*watcher
}

type watcher struct {
	ch   chan Sample
	done chan struct{}
	opts Options
}

// pushBuffer absorbs short bursts of reports while the engine is busy.
const pushBuffer = 16

// NewPushDevice creates an empty push device.
func NewPushDevice() *PushDevice {
	return &PushDevice{
		watchers: make(map[string]*watcher),
	}
}

// Watch registers the single watcher of userID until ctx is canceled.
// A newer watch replaces an older one.
func (d *PushDevice) Watch(ctx context.Context, userID string, opts Options) (<-chan Sample, error) {
	w := &watcher{
		ch:   make(chan Sample, pushBuffer),
		done: make(chan struct{}),
		opts: opts,
	}

	d.mu.Lock()
	if previous, ok := d.watchers[userID]; ok {
		close(previous.done)
	}

	d.watchers[userID] = w
	d.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-w.done:
			return
		}

		d.mu.Lock()
		defer d.mu.Unlock()

		if d.watchers[userID] == w {
			delete(d.watchers, userID)
			close(w.done)
		}
	}()

	return w.ch, nil
}

// Push delivers a sample to the watcher of userID.
func (d *PushDevice) Push(ctx context.Context, userID string, sample Sample) error {
	d.mu.RLock()
	w, ok := d.watchers[userID]
	d.mu.RUnlock()

	if !ok {
		return ErrNotWatching
	}

	select {
	case w.ch <- sample:
		return nil
	case <-w.done:
		return ErrNotWatching
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Watching reports whether userID currently has a watcher.
func (d *PushDevice) Watching(userID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.watchers[userID]

	return ok
}

// WatchOptions returns the options of the active watch of userID, so a
// reporter can match its own accuracy mode to what the watcher asked for.
func (d *PushDevice) WatchOptions(userID string) (Options, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	w, ok := d.watchers[userID]
	if !ok {
		return Options{}, false
	}

	return w.opts, true
}

// UnsupportedDevice models a platform without a location capability.
type UnsupportedDevice struct{}

// Watch always reports ErrUnsupported.
func (UnsupportedDevice) Watch(context.Context, string, Options) (<-chan Sample, error) {
	return nil, ErrUnsupported
}
