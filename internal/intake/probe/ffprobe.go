// Package probe runs the external ffprobe utility against media files.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultBinary is the probe executable looked up on PATH.
const DefaultBinary = "ffprobe"

// DefaultTimeout bounds a single probe invocation.
const DefaultTimeout = 30 * time.Second

// waitDelay is how long Run waits for output pipes after the process is killed.
const waitDelay = 2 * time.Second

// ErrTimeout is returned when the probe does not finish within its timeout.
var ErrTimeout = errors.New("probe timed out")

// ShowEntries is the ffprobe field selection: per-stream codec and layout,
// per-container duration, bit rate and format name.
const ShowEntries = "stream=codec_type,codec_name,channels,sample_rate:format=duration,bit_rate,format_name"

// Result is the captured output of a probe run that started and exited.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Prober inspects a media file and returns the tool's raw output.
type Prober interface {
	// Probe runs the probe for path. A non-zero exit is reported through
	// Result.ExitCode, not as an error. Errors mean the probe could not run
	// to completion (missing binary, timeout, cancellation).
	Probe(ctx context.Context, path string) (*Result, error)
}

// FFProbe implements Prober by invoking ffprobe as a subprocess.
type FFProbe struct {
	// Binary is the executable name or path (default: ffprobe).
	Binary string
	// Timeout is the maximum run time before the process is killed.
	// Zero disables the timeout.
	Timeout time.Duration
}

// NewFFProbe creates a new ffprobe runner.
func NewFFProbe(binary string, timeout time.Duration) *FFProbe {
	if binary == "" {
		binary = DefaultBinary
	}
	return &FFProbe{
		Binary:  binary,
		Timeout: timeout,
	}
}

// Args returns the command-line arguments used to probe path.
func Args(path string) []string {
	// ffprobe treats a leading dash as an option
	if strings.HasPrefix(path, "-") {
		path = "./" + path
	}
	return []string{
		"-v", "error",
		"-show_entries", ShowEntries,
		"-of", "json",
		path,
	}
}

// Probe runs ffprobe against path and captures stdout, stderr and the exit code.
func (p *FFProbe) Probe(ctx context.Context, path string) (*Result, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary, Args(path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s %s", ErrTimeout, p.Binary, path)
		}
		return nil, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	return nil, fmt.Errorf("run %s: %w", p.Binary, err)
}
