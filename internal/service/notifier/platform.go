package notifier

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/oshokin/lost-item-tracker/internal/logger"
)

// ErrUnsupportedOS indicates the current OS has no known alert command.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// windowsBalloonTimeout is the balloon tip display time in milliseconds.
const windowsBalloonTimeout = "10000"

// DesktopPlatform shows alerts with the tools that ship with the OS:
// - Linux:   `notify-send`
// - macOS:   `osascript` (display notification)
// - Windows: `powershell.exe` balloon tip
// Commands are started asynchronously; the OS takes over the rest.
type DesktopPlatform struct {
	goos     string
	appName  string
	lookPath func(file string) (string, error)
}

// NewDesktopPlatform creates a platform for the running OS.
func NewDesktopPlatform(appName string) *DesktopPlatform {
	return &DesktopPlatform{
		goos:     runtime.GOOS,
		appName:  appName,
		lookPath: exec.LookPath,
	}
}

// RequestPermission reports granted when the alert tool is installed.
// Desktop sessions have no consent prompt.
func (p *DesktopPlatform) RequestPermission(_ context.Context) (PermissionStatus, error) {
	name, _, err := p.command("", "")
	if err != nil {
		return PermissionUnsupported, nil
	}

	if _, err = p.lookPath(name); err != nil {
		return PermissionUnsupported, nil
	}

	return PermissionGranted, nil
}

// Show starts the alert command and reaps it in the background.
func (p *DesktopPlatform) Show(ctx context.Context, title, body string) error {
	name, args, err := p.command(title, body)
	if err != nil {
		return err
	}

	//nolint:gosec // Fixed binaries; title and body are passed as arguments.
	cmd := exec.CommandContext(context.WithoutCancel(ctx), name, args...)
	if err = cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	go func() {
		if waitErr := cmd.Wait(); waitErr != nil {
			logger.WarnKV(ctx, "Alert command failed", "command", name, "error", waitErr)
		}
	}()

	return nil
}

func (p *DesktopPlatform) command(title, body string) (string, []string, error) {
	osName := strings.ToLower(p.goos)

	switch {
	case strings.Contains(osName, "linux"):
		return "notify-send", []string{"--app-name", p.appName, title, body}, nil
	case strings.Contains(osName, "darwin"):
		return "osascript", []string{
			"-e", "on run argv",
			"-e", "display notification (item 2 of argv) with title (item 1 of argv)",
			"-e", "end run",
			title, body,
		}, nil
	case strings.Contains(osName, "windows"):
		return "powershell.exe", []string{"-NoProfile", "-NonInteractive", "-Command", balloonScript(title, body)}, nil
	default:
		return "", nil, fmt.Errorf("%s: %w", p.goos, ErrUnsupportedOS)
	}
}

func balloonScript(title, body string) string {
	return strings.Join([]string{
		"Add-Type -AssemblyName System.Windows.Forms",
		"$n = New-Object System.Windows.Forms.NotifyIcon",
		"$n.Icon = [System.Drawing.SystemIcons]::Information",
		"$n.Visible = $true",
		fmt.Sprintf("$n.ShowBalloonTip(%s, %s, %s, 'Info')", windowsBalloonTimeout, psQuote(title), psQuote(body)),
		"Start-Sleep -Milliseconds " + windowsBalloonTimeout,
		"$n.Dispose()",
	}, "; ")
}

// psQuote makes a PowerShell single-quoted literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// LogPlatform writes alerts to the structured log. It is used on headless
// hosts and in simulations.
type LogPlatform struct{}

// RequestPermission always grants.
func (LogPlatform) RequestPermission(context.Context) (PermissionStatus, error) {
	return PermissionGranted, nil
}

// Show logs the alert.
func (LogPlatform) Show(ctx context.Context, title, body string) error {
	logger.InfoKV(ctx, "Reminder notification", "title", title, "body", body)

	return nil
}
