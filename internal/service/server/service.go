package server

import (
	"context"
	"fmt"

	"github.com/oshokin/lost-item-tracker/internal/service/engine"
	"github.com/oshokin/lost-item-tracker/internal/service/position"
)

// service joins the engine with the push device for the transport layer.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	*engine.Engine

	// push receives reported fixes; nil when the source does not accept them.
	push   *position.PushDevice
	source string
}

func newService(eng *engine.Engine, push *position.PushDevice, source string) *service {
	return &service{
		Engine: eng,
		push:   push,
		source: source,
	}
}

// ReportFix forwards a reported sample to the push device.
func (s *service) ReportFix(ctx context.Context, userID string, sample position.Sample) error {
	if s.push == nil {
		return fmt.Errorf("position source %q does not accept reports: %w", s.source, position.ErrNotWatching)
	}

	return s.push.Push(ctx, userID, sample)
}
