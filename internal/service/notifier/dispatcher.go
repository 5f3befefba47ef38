package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/lost-item-tracker/internal/logger"
)

// PermissionStatus is the user's answer to the notification prompt.
type PermissionStatus int

const (
	// PermissionUndetermined means the platform has not been asked yet.
	PermissionUndetermined PermissionStatus = iota
	// PermissionGranted allows alerts.
	PermissionGranted
	// PermissionDenied blocks alerts.
	PermissionDenied
	// PermissionUnsupported means the platform cannot show alerts at all.
	PermissionUnsupported
)

// String implements fmt.Stringer.
func (p PermissionStatus) String() string {
	switch p {
	case PermissionUndetermined:
		return "undetermined"
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	case PermissionUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("permission(%d)", int(p))
	}
}

var (
	// ErrDispatch wraps every failed delivery.
	ErrDispatch = errors.New("notification dispatch failed")
	// ErrPermissionDenied is joined to ErrDispatch when the user refused alerts.
	ErrPermissionDenied = errors.New("notification permission denied")
	// ErrUnsupported is joined to ErrDispatch when the platform has no alerts.
	ErrUnsupported = errors.New("notifications not supported")
)

// Platform is an alert capability of the host.
type Platform interface {
	// RequestPermission asks the user (or the host) to allow alerts.
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	// Show displays a single alert without waiting for the user.
	Show(ctx context.Context, title, body string) error
}

// Dispatcher sends alerts through a Platform.
type Dispatcher struct {
	platform Platform

	mu     sync.Mutex
	status PermissionStatus
}

// NewDispatcher creates a dispatcher with an undetermined permission.
func NewDispatcher(platform Platform) *Dispatcher {
	return &Dispatcher{
		platform: platform,
	}
}

// RequestPermission asks the platform once; later calls return the cached
// answer unless it is still undetermined.
func (d *Dispatcher) RequestPermission(ctx context.Context) PermissionStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.requestLocked(ctx)
}

func (d *Dispatcher) requestLocked(ctx context.Context) PermissionStatus {
	if d.status != PermissionUndetermined {
		return d.status
	}

	status, err := d.platform.RequestPermission(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Notification permission request failed", "error", err)

		return PermissionUndetermined
	}

	logger.InfoKV(ctx, "Notification permission resolved", "status", status.String())

	d.status = status

	return status
}

// Permission returns the cached status without asking.
func (d *Dispatcher) Permission() PermissionStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.status
}

// Notify shows one alert. Every failure wraps ErrDispatch.
func (d *Dispatcher) Notify(ctx context.Context, title, body string) error {
	d.mu.Lock()
	status := d.requestLocked(ctx)
	d.mu.Unlock()

	switch status {
	case PermissionGranted:
	case PermissionDenied:
		return fmt.Errorf("%w: %w", ErrDispatch, ErrPermissionDenied)
	case PermissionUnsupported:
		return fmt.Errorf("%w: %w", ErrDispatch, ErrUnsupported)
	default:
		return fmt.Errorf("%w: permission %s", ErrDispatch, status)
	}

	if err := d.platform.Show(ctx, title, body); err != nil {
		return fmt.Errorf("%w: %w", ErrDispatch, err)
	}

	return nil
}
