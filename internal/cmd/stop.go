package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/TechnicallyShaun/nota-intake/internal/intake/pidfile"
)

// stopTimeout is the maximum time to wait for graceful shutdown before sending SIGKILL
const stopTimeout = 10 * time.Second

// ErrNotRunning indicates the intake service is not running
var ErrNotRunning = errors.New("intake service is not running")

// ErrStaleProcess indicates the PID file exists but the process is not running
var ErrStaleProcess = errors.New("stale PID file (process not running)")

// NewStopCmd creates the stop command
func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the intake service",
		Long: `Stop the intake service.

Reads the PID from ~/.nota/intake.pid and sends SIGINT for graceful shutdown.
If the process doesn't exit within 10 seconds, SIGKILL is sent to force termination.
The PID file is removed after the process exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := pidfile.Default()
			if err != nil {
				return err
			}
			return runStop(cmd.OutOrStdout(), pf, stopTimeout)
		},
	}
}

func runStop(out io.Writer, pf *pidfile.File, timeout time.Duration) error {
	pid, err := pf.Read()
	switch {
	case errors.Is(err, pidfile.ErrNoPIDFile):
		return ErrNotRunning
	case errors.Is(err, pidfile.ErrInvalidPID):
		removePIDFile(out, pf)
		return ErrStaleProcess
	case err != nil:
		return err
	}

	if !pidfile.Alive(pid) {
		removePIDFile(out, pf)
		return ErrStaleProcess
	}

	fmt.Fprintf(out, "Stopping intake service (PID %d)...\n", pid)

	if err := pidfile.Signal(pid, unix.SIGINT); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("send SIGINT: %w", err)
	}

	if !waitForExit(pid, timeout) {
		fmt.Fprintln(out, "Process did not exit gracefully, sending SIGKILL...")
		// Process may have exited between check and kill
		if err := pidfile.Signal(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("send SIGKILL: %w", err)
		}
		waitForExit(pid, 2*time.Second)
	}

	removePIDFile(out, pf)
	fmt.Fprintln(out, "Intake service stopped")
	return nil
}

func removePIDFile(out io.Writer, pf *pidfile.File) {
	if err := pf.Remove(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
	}
}

// waitForExit polls until the process exits or timeout is reached
func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	pollInterval := 100 * time.Millisecond

	for time.Now().Before(deadline) {
		if !pidfile.Alive(pid) {
			return true
		}
		time.Sleep(pollInterval)
	}

	return !pidfile.Alive(pid)
}
