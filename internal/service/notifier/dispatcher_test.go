package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var errShow = errors.New("show failed")

type fakePlatform struct {
	mu       sync.Mutex
	answers  []PermissionStatus
	asked    int
	shown    []string
	showErr  error
	askError error
}

func (p *fakePlatform) RequestPermission(context.Context) (PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.asked++

	if p.askError != nil {
		return PermissionUndetermined, p.askError
	}

	answer := p.answers[0]
	if len(p.answers) > 1 {
		p.answers = p.answers[1:]
	}

	return answer, nil
}

func (p *fakePlatform) Show(_ context.Context, title, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.showErr != nil {
		return p.showErr
	}

	p.shown = append(p.shown, title+"|"+body)

	return nil
}

// TestDispatcher_RequestPermissionOnce caches a resolved answer.
func TestDispatcher_RequestPermissionOnce(t *testing.T) {
	t.Parallel()

	platform := &fakePlatform{answers: []PermissionStatus{PermissionGranted, PermissionDenied}}
	dispatcher := NewDispatcher(platform)

	require.Equal(t, PermissionUndetermined, dispatcher.Permission())
	require.Equal(t, PermissionGranted, dispatcher.RequestPermission(context.Background()))
	require.Equal(t, PermissionGranted, dispatcher.RequestPermission(context.Background()))
	require.Equal(t, 1, platform.asked)
	require.Equal(t, PermissionGranted, dispatcher.Permission())
}

// TestDispatcher_UndeterminedIsAskedAgain re-asks while no answer is known.
func TestDispatcher_UndeterminedIsAskedAgain(t *testing.T) {
	t.Parallel()

	platform := &fakePlatform{answers: []PermissionStatus{PermissionUndetermined, PermissionGranted}}
	dispatcher := NewDispatcher(platform)

	require.Equal(t, PermissionUndetermined, dispatcher.RequestPermission(context.Background()))
	require.Equal(t, PermissionGranted, dispatcher.RequestPermission(context.Background()))
	require.Equal(t, 2, platform.asked)
}

// TestDispatcher_RequestError stays undetermined.
func TestDispatcher_RequestError(t *testing.T) {
	t.Parallel()

	platform := &fakePlatform{askError: errors.New("bus down")}
	dispatcher := NewDispatcher(platform)

	require.Equal(t, PermissionUndetermined, dispatcher.RequestPermission(context.Background()))

	err := dispatcher.Notify(context.Background(), "t", "b")
	require.ErrorIs(t, err, ErrDispatch)
	require.Equal(t, 2, platform.asked)
}

// TestDispatcher_Notify covers delivery and its failures.
func TestDispatcher_Notify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		answer    PermissionStatus
		showErr   error
		wantErr   error
		wantShown int
	}{
		{name: "granted", answer: PermissionGranted, wantShown: 1},
		{name: "denied", answer: PermissionDenied, wantErr: ErrPermissionDenied},
		{name: "unsupported", answer: PermissionUnsupported, wantErr: ErrUnsupported},
		{name: "platform error", answer: PermissionGranted, showErr: errShow, wantErr: errShow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			platform := &fakePlatform{answers: []PermissionStatus{tt.answer}, showErr: tt.showErr}
			dispatcher := NewDispatcher(platform)

			err := dispatcher.Notify(context.Background(), "Wait!", "Keys")
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrDispatch)
				require.ErrorIs(t, err, tt.wantErr)
			}

			require.Len(t, platform.shown, tt.wantShown)
			require.Equal(t, 1, platform.asked)
		})
	}
}

// TestDesktopPlatform_Command picks the tool per OS.
func TestDesktopPlatform_Command(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{goos: "linux", want: "notify-send"},
		{goos: "darwin", want: "osascript"},
		{goos: "windows", want: "powershell.exe"},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			t.Parallel()

			p := &DesktopPlatform{goos: tt.goos, appName: "lost-item-tracker"}

			name, args, err := p.command("It's me", "Keys")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedOS)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, name)
			require.NotEmpty(t, args)
		})
	}
}

// TestDesktopPlatform_RequestPermission reports unsupported without the tool.
func TestDesktopPlatform_RequestPermission(t *testing.T) {
	t.Parallel()

	found := &DesktopPlatform{goos: "linux", lookPath: func(string) (string, error) { return "/usr/bin/notify-send", nil }}
	status, err := found.RequestPermission(context.Background())
	require.NoError(t, err)
	require.Equal(t, PermissionGranted, status)

	missing := &DesktopPlatform{goos: "linux", lookPath: func(string) (string, error) { return "", errors.New("not found") }}
	status, err = missing.RequestPermission(context.Background())
	require.NoError(t, err)
	require.Equal(t, PermissionUnsupported, status)

	other := &DesktopPlatform{goos: "plan9", lookPath: func(string) (string, error) { return "", nil }}
	status, err = other.RequestPermission(context.Background())
	require.NoError(t, err)
	require.Equal(t, PermissionUnsupported, status)
}

func TestBalloonScript_QuotesArguments(t *testing.T) {
	t.Parallel()

	script := balloonScript("It's", "Keys")
	require.Contains(t, script, "'It''s'")
	require.Contains(t, script, "'Keys'")
}

func TestPermissionStatus_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "granted", PermissionGranted.String())
	require.Equal(t, "permission(9)", PermissionStatus(9).String())
}
