package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/lost-item-tracker/internal/logger"
)

// ErrAlreadyRunning is returned when another server process owns the device.
var ErrAlreadyRunning = errors.New("another reminder server is already running")

// linuxCommLength is the length Linux truncates process names to.
const linuxCommLength = 15

// ensureSingleInstance fails when another process runs the same executable.
// Only one process may subscribe to the position device of the host.
func ensureSingleInstance(ctx context.Context) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if pid, found := findOtherInstance(processList, os.Getpid(), filepath.Base(executable)); found {
		logger.ErrorKV(ctx, "Reminder server is already running", "pid", pid)

		return fmt.Errorf("pid %d: %w", pid, ErrAlreadyRunning)
	}

	return nil
}

// findOtherInstance returns the PID of a process named name, other than self.
func findOtherInstance(processList []ps.Process, self int, name string) (int, bool) {
	for _, process := range processList {
		if process.Pid() == self {
			continue
		}

		if sameExecutable(process.Executable(), name) {
			return process.Pid(), true
		}
	}

	return 0, false
}

func sameExecutable(candidate, name string) bool {
	if candidate == name {
		return true
	}

	return len(candidate) == linuxCommLength && strings.HasPrefix(name, candidate)
}
