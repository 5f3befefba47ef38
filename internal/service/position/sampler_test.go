package position

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
)

var errTestDevice = errors.New("test device failure")

type failingDevice struct{}

func (failingDevice) Watch(context.Context, string, Options) (<-chan Sample, error) {
	return nil, errTestDevice
}

func collect(sub *Subscription) []Event {
	var events []Event
	for ev := range sub.Events() {
		events = append(events, ev)
	}

	return events
}

func ptr(v float64) *float64 { return &v }

// TestSampler_ReplayNormalizes plays a track with fixes, failures and an invalid point.
func TestSampler_ReplayNormalizes(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		track := &Track{Steps: []TrackStep{
			{After: time.Second, Latitude: 10, Longitude: 76, Accuracy: ptr(4.5)},
			{After: time.Second, Error: "permission_denied"},
			{After: time.Second, Latitude: 123, Longitude: 76},
			{After: time.Second, Error: "unavailable"},
			{After: time.Second, Latitude: 10.002, Longitude: 76},
		}}

		sub, err := NewSampler(NewReplayDevice(track), Options{}).Subscribe(context.Background(), "alice")
		require.NoError(t, err)

		defer sub.Cancel()

		events := collect(sub)
		require.Len(t, events, 5)

		require.False(t, events[0].Failed())
		require.Equal(t, geo.Coordinate{Latitude: 10, Longitude: 76}, events[0].Fix.Coordinate)
		require.InDelta(t, 4.5, events[0].Fix.Accuracy, 0)
		require.False(t, events[0].Fix.Timestamp.IsZero())

		require.ErrorIs(t, events[1].Err, ErrPermissionDenied)
		require.Equal(t, Fix{}, events[1].Fix)

		require.ErrorIs(t, events[2].Err, ErrUnavailable)
		require.ErrorIs(t, events[2].Err, geo.ErrInvalidCoordinate)

		require.ErrorIs(t, events[3].Err, ErrUnavailable)

		require.False(t, events[4].Failed())
		require.Zero(t, events[4].Fix.Accuracy)
	})
}

// TestSampler_TimeoutAndRecovery reports a timeout when the device is silent.
func TestSampler_TimeoutAndRecovery(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		device := NewPushDevice()

		sub, err := NewSampler(device, Options{Timeout: 5 * time.Second}).Subscribe(ctx, "alice")
		require.NoError(t, err)

		start := time.Now()

		ev := <-sub.Events()
		require.ErrorIs(t, ev.Err, ErrTimeout)
		require.Equal(t, 5*time.Second, time.Since(start))

		require.NoError(t, device.Push(ctx, "alice", Sample{Latitude: 10, Longitude: 76}))

		ev = <-sub.Events()
		require.False(t, ev.Failed())
		require.Equal(t, geo.Coordinate{Latitude: 10, Longitude: 76}, ev.Fix.Coordinate)

		// The window restarts after each delivered event.
		ev = <-sub.Events()
		require.ErrorIs(t, ev.Err, ErrTimeout)
		require.Equal(t, 10*time.Second, time.Since(start))

		sub.Cancel()

		_, open := <-sub.Events()
		require.False(t, open)
	})
}

// TestSampler_DropsStaleFixes checks the maximum fix age.
func TestSampler_DropsStaleFixes(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		device := NewPushDevice()

		sub, err := NewSampler(device, Options{MaxFixAge: 10 * time.Second}).Subscribe(ctx, "alice")
		require.NoError(t, err)

		defer sub.Cancel()

		stale := Sample{Latitude: 1, Longitude: 1, Timestamp: time.Now().Add(-11 * time.Second)}
		fresh := Sample{Latitude: 2, Longitude: 2, Timestamp: time.Now().Add(-9 * time.Second)}

		require.NoError(t, device.Push(ctx, "alice", stale))
		require.NoError(t, device.Push(ctx, "alice", fresh))

		ev := <-sub.Events()
		require.False(t, ev.Failed())
		require.Equal(t, geo.Coordinate{Latitude: 2, Longitude: 2}, ev.Fix.Coordinate)
		require.Equal(t, fresh.Timestamp, ev.Fix.Timestamp)
	})
}

// TestSampler_DisabledChecks keeps old fixes and never times out when the
// limits are negative.
func TestSampler_DisabledChecks(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		device := NewPushDevice()

		sub, err := NewSampler(device, Options{MaxFixAge: -time.Second, Timeout: -time.Second}).Subscribe(ctx, "alice")
		require.NoError(t, err)

		defer sub.Cancel()

		time.Sleep(time.Hour)
		synctest.Wait()

		old := Sample{Latitude: 1, Longitude: 1, Timestamp: time.Now().Add(-24 * time.Hour)}
		require.NoError(t, device.Push(ctx, "alice", old))

		ev := <-sub.Events()
		require.False(t, ev.Failed())
		require.Equal(t, old.Timestamp, ev.Fix.Timestamp)
	})
}

// TestSampler_PassesAccuracyMode hands the accuracy mode to the device.
func TestSampler_PassesAccuracyMode(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		device := NewPushDevice()

		_, ok := device.WatchOptions("alice")
		require.False(t, ok)

		opts := Options{HighAccuracy: true, MaxFixAge: 10 * time.Second, Timeout: 5 * time.Second}

		sub, err := NewSampler(device, opts).Subscribe(context.Background(), "alice")
		require.NoError(t, err)
		require.Equal(t, opts, sub.Options())

		watched, ok := device.WatchOptions("alice")
		require.True(t, ok)
		require.True(t, watched.HighAccuracy)

		sub.Cancel()
		synctest.Wait()

		_, ok = device.WatchOptions("alice")
		require.False(t, ok)
	})
}

// TestSampler_Unsupported emits one terminal failure and closes.
func TestSampler_Unsupported(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		sub, err := NewSampler(UnsupportedDevice{}, Options{Timeout: time.Second}).
			Subscribe(context.Background(), "alice")
		require.NoError(t, err)

		events := collect(sub)
		require.Len(t, events, 1)
		require.ErrorIs(t, events[0].Err, ErrUnsupported)

		<-sub.Done()
		sub.Cancel()
	})
}

// TestSampler_CancelStopsDelivery ensures nothing is delivered after Cancel and the device is released.
func TestSampler_CancelStopsDelivery(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		device := NewPushDevice()

		sub, err := NewSampler(device, Options{}).Subscribe(ctx, "alice")
		require.NoError(t, err)
		require.True(t, device.Watching("alice"))

		// Pending sample that nobody reads: the pump is blocked delivering it.
		require.NoError(t, device.Push(ctx, "alice", Sample{Latitude: 1, Longitude: 1}))
		synctest.Wait()

		sub.Cancel()
		sub.Cancel()

		_, open := <-sub.Events()
		require.False(t, open)

		synctest.Wait()
		require.False(t, device.Watching("alice"))
		require.ErrorIs(t, device.Push(ctx, "alice", Sample{}), ErrNotWatching)
	})
}

// TestSampler_SubscribeError propagates device start failures.
func TestSampler_SubscribeError(t *testing.T) {
	t.Parallel()

	sub, err := NewSampler(failingDevice{}, Options{}).Subscribe(context.Background(), "alice")
	require.ErrorIs(t, err, errTestDevice)
	require.Nil(t, sub)
}

// TestSampler_UnknownErrorsBecomeUnavailable maps foreign device errors.
func TestSampler_UnknownErrorsBecomeUnavailable(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		device := NewPushDevice()

		sub, err := NewSampler(device, Options{}).Subscribe(ctx, "alice")
		require.NoError(t, err)

		defer sub.Cancel()

		require.NoError(t, device.Push(ctx, "alice", Sample{Err: errTestDevice}))

		ev := <-sub.Events()
		require.ErrorIs(t, ev.Err, ErrUnavailable)
		require.ErrorIs(t, ev.Err, errTestDevice)
	})
}

// TestPushDevice_ReplacesWatcher keeps a single watcher per user.
func TestPushDevice_ReplacesWatcher(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		device := NewPushDevice()

		firstCtx, cancelFirst := context.WithCancel(context.Background())
		defer cancelFirst()

		_, err := device.Watch(firstCtx, "alice", Options{})
		require.NoError(t, err)

		secondCtx, cancelSecond := context.WithCancel(context.Background())

		second, err := device.Watch(secondCtx, "alice", Options{})
		require.NoError(t, err)

		// Cancelling the replaced watch keeps the new one registered.
		cancelFirst()
		synctest.Wait()
		require.True(t, device.Watching("alice"))

		require.NoError(t, device.Push(context.Background(), "alice", Sample{Latitude: 3, Longitude: 3}))
		require.InDelta(t, 3.0, (<-second).Latitude, 0)

		require.ErrorIs(t, device.Push(context.Background(), "bob", Sample{}), ErrNotWatching)

		cancelSecond()
		synctest.Wait()
		require.False(t, device.Watching("alice"))
	})
}

// TestParseTrack validates track files.
func TestParseTrack(t *testing.T) {
	t.Parallel()

	track, err := ParseTrack([]byte(`
repeat: true
steps:
  - after: 2s
    lat: 10.0
    lng: 76.0
    accuracy: 8
  - after: 500ms
    error: timeout
`))
	require.NoError(t, err)
	require.True(t, track.Repeat)
	require.Len(t, track.Steps, 2)
	require.Equal(t, 2*time.Second, track.Steps[0].After)
	require.InDelta(t, 8.0, *track.Steps[0].Accuracy, 0)
	require.Equal(t, "timeout", track.Steps[1].Error)

	_, err = ParseTrack([]byte("steps: []"))
	require.Error(t, err)

	_, err = ParseTrack([]byte("steps:\n  - error: lost\n"))
	require.ErrorIs(t, err, errUnknownStepError)

	_, err = ParseTrack([]byte("steps: [unterminated"))
	require.Error(t, err)
}

func TestFailureByName(t *testing.T) {
	t.Parallel()

	err, ok := FailureByName("permission_denied")
	require.True(t, ok)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, ok = FailureByName("unsupported")
	require.False(t, ok)
}

func TestFailureName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "timeout", FailureName(ErrTimeout))
	require.Equal(t, "unavailable", FailureName(errors.Join(ErrUnavailable, errTestDevice)))
	require.Empty(t, FailureName(errTestDevice))
}
