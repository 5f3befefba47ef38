package position

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Track is a scripted sequence of samples.
type Track struct {
	// Repeat restarts the track after the last step.
	Repeat bool        `yaml:"repeat"`
	Steps  []TrackStep `yaml:"steps"`
}

// TrackStep is one sample played after a delay.
type TrackStep struct {
	// After is the delay before the step is emitted.
	After     time.Duration `yaml:"after"`
	Latitude  float64       `yaml:"lat"`
	Longitude float64       `yaml:"lng"`
	Accuracy  *float64      `yaml:"accuracy,omitempty"`
	// Error is permission_denied, unavailable or timeout.
	Error string `yaml:"error,omitempty"`
}

var (
	errEmptyTrack       = errors.New("track has no steps")
	errUnknownStepError = errors.New("unknown step error")
)

// LoadTrack reads a YAML track file.
func LoadTrack(path string) (*Track, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read track: %w", err)
	}

	return ParseTrack(contents)
}

// ParseTrack decodes and validates a YAML track.
func ParseTrack(contents []byte) (*Track, error) {
	var track Track
	if err := yaml.Unmarshal(contents, &track); err != nil {
		return nil, fmt.Errorf("unmarshal track: %w", err)
	}

	if len(track.Steps) == 0 {
		return nil, errEmptyTrack
	}

	for i, step := range track.Steps {
		if step.Error == "" {
			continue
		}

		if _, ok := FailureByName(step.Error); !ok {
			return nil, fmt.Errorf("step %d: %w: %q", i, errUnknownStepError, step.Error)
		}
	}

	return &track, nil
}

// ReplayDevice plays a Track, for simulations and tests.
type ReplayDevice struct {
	track *Track
}

// NewReplayDevice creates a device over track.
func NewReplayDevice(track *Track) *ReplayDevice {
	return &ReplayDevice{
		track: track,
	}
}

// Watch plays the track; the channel is closed after the last step
// unless the track repeats.
func (d *ReplayDevice) Watch(ctx context.Context, _ string, _ Options) (<-chan Sample, error) {
	if d.track == nil || len(d.track.Steps) == 0 {
		return nil, errEmptyTrack
	}

	out := make(chan Sample)

	go func() {
		defer close(out)

		for {
			for _, step := range d.track.Steps {
				if !sleep(ctx, step.After) {
					return
				}

				sample := Sample{
					Latitude:  step.Latitude,
					Longitude: step.Longitude,
					Accuracy:  step.Accuracy,
					Timestamp: time.Now(),
				}

				if step.Error != "" {
					failure, _ := FailureByName(step.Error)
					sample = Sample{Err: failure}
				}

				select {
				case out <- sample:
				case <-ctx.Done():
					return
				}
			}

			if !d.track.Repeat {
				return
			}
		}
	}()

	return out, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
