// Package stabilizer waits for dropped files to stop changing before they are probed.
package stabilizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrStillWriting is returned when the file keeps changing past the timeout.
var ErrStillWriting = errors.New("file still being written")

// Defaults used when a PollStabilizer field is zero.
const (
	DefaultInterval = 500 * time.Millisecond
	DefaultChecks   = 2
	DefaultTimeout  = 60 * time.Second
)

// Stabilizer waits for a file to finish writing.
type Stabilizer interface {
	WaitForStable(ctx context.Context, path string) error
}

// PollStabilizer compares size and modification time between polls.
type PollStabilizer struct {
	// Interval between polls. Zero means DefaultInterval.
	Interval time.Duration
	// Checks is how many consecutive unchanged polls count as settled.
	// Zero or less returns immediately.
	Checks int
	// Timeout bounds the whole wait. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// NewPollStabilizer creates a polling stabilizer.
func NewPollStabilizer(interval time.Duration, checks int, timeout time.Duration) *PollStabilizer {
	return &PollStabilizer{
		Interval: interval,
		Checks:   checks,
		Timeout:  timeout,
	}
}

// snapshot identifies the file contents between polls.
type snapshot struct {
	size    int64
	modTime time.Time
}

func stat(path string) (snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return snapshot{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return snapshot{size: info.Size(), modTime: info.ModTime()}, nil
}

// WaitForStable returns nil once path has been unchanged for Checks
// consecutive polls after an initial snapshot. A vanished file yields an
// error wrapping fs.ErrNotExist; exceeding Timeout yields ErrStillWriting.
func (s *PollStabilizer) WaitForStable(ctx context.Context, path string) error {
	if s.Checks <= 0 {
		return nil
	}

	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	var expired <-chan time.Time
	if s.Timeout > 0 {
		timer := time.NewTimer(s.Timeout)
		defer timer.Stop()
		expired = timer.C
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev, err := stat(path)
	if err != nil {
		return err
	}

	unchanged := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-expired:
			return fmt.Errorf("%w after %s: %s", ErrStillWriting, s.Timeout, path)
		case <-ticker.C:
		}

		cur, err := stat(path)
		if err != nil {
			return err
		}
		if cur != prev {
			prev = cur
			unchanged = 0
			continue
		}
		if unchanged++; unchanged >= s.Checks {
			return nil
		}
	}
}
