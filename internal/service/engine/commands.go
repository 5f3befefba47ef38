package engine

import (
	"context"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
)

type result struct {
	home geo.Coordinate
	err  error
}

type command struct {
	run   func(ctx context.Context, e *Engine) result
	reply chan result
}

// SaveHome persists home and re-arms the machine against the current fix.
func (e *Engine) SaveHome(ctx context.Context, home geo.Coordinate) error {
	res := e.send(ctx, func(ctx context.Context, e *Engine) result {
		return result{home: home, err: e.saveHome(ctx, home)}
	})

	return res.err
}

// SaveHomeFromCurrent uses the latest fix as the home location.
func (e *Engine) SaveHomeFromCurrent(ctx context.Context) (geo.Coordinate, error) {
	res := e.send(ctx, func(ctx context.Context, e *Engine) result {
		if !e.hasFix {
			return result{err: ErrNoCurrentLocation}
		}

		home := e.currentFix.Coordinate

		return result{home: home, err: e.saveHome(ctx, home)}
	})

	return res.home, res.err
}

// ClearHome removes the home location; the machine goes idle.
func (e *Engine) ClearHome(ctx context.Context) error {
	res := e.send(ctx, func(ctx context.Context, e *Engine) result {
		if err := e.store.Clear(ctx, e.opts.UserID); err != nil {
			e.update(func(s *Status) {
				s.LastError = err
			})

			return result{err: err}
		}

		e.machine.Reset()
		e.publish()

		return result{}
	})

	return res.err
}

// Recheck measures the latest fix again without waiting for a new one.
// It is queued behind fixes and commands that arrived earlier, so a
// departure already handled by the stream is never dispatched twice.
func (e *Engine) Recheck(ctx context.Context) error {
	res := e.send(ctx, func(ctx context.Context, e *Engine) result {
		if !e.hasFix {
			return result{err: ErrNoCurrentLocation}
		}

		e.evaluate(ctx)

		return result{}
	})

	return res.err
}

// saveHome runs on the loop goroutine. A new home starts a new arming
// cycle, so the machine is reset before the current fix is measured.
func (e *Engine) saveHome(ctx context.Context, home geo.Coordinate) error {
	if err := e.store.Save(ctx, e.opts.UserID, home); err != nil {
		e.update(func(s *Status) {
			s.LastError = err
		})

		return err
	}

	e.machine.Reset()
	e.evaluate(ctx)

	return nil
}

// send hands fn to the loop and waits for its result.
func (e *Engine) send(ctx context.Context, fn func(ctx context.Context, e *Engine) result) result {
	cmd := command{
		run:   fn,
		reply: make(chan result, 1),
	}

	select {
	case e.commands <- cmd:
	case <-e.stopped:
		return result{err: ErrNotRunning}
	case <-ctx.Done():
		return result{err: ctx.Err()}
	}

	return <-cmd.reply
}
