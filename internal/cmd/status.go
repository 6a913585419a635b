package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/nota-intake/internal/intake"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/pidfile"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/status"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show intake service status",
		Long:  "Show whether the intake service is running and summarize today's log.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			pf, err := pidfile.Default()
			if err != nil {
				return err
			}
			return runStatus(cmd.OutOrStdout(), cfg, pf)
		},
	}
}

func runStatus(out io.Writer, cfg *intake.Config, pf *pidfile.File) error {
	running, pid, err := pf.IsRunning()
	switch {
	case errors.Is(err, pidfile.ErrInvalidPID):
		fmt.Fprintln(out, "Status:   stopped (invalid PID file)")
	case err != nil:
		return err
	case running:
		fmt.Fprintf(out, "Status:   running (PID %d)\n", pid)
	case pid != 0:
		fmt.Fprintf(out, "Status:   stopped (stale PID file for %d)\n", pid)
	default:
		fmt.Fprintln(out, "Status:   stopped")
	}

	fmt.Fprintf(out, "Watching: %s\n", cfg.WatchDir)

	stats, err := status.ParseTodayStats(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}

	fmt.Fprintf(out, "Today:    %d accepted, %d rejected, %d errors\n", stats.Accepted, stats.Rejected, stats.Errors)

	if last := stats.LastAccepted; last != nil {
		fmt.Fprintf(out, "Last accepted: %s at %s\n", status.BaseName(last.Path), status.FormatTimestamp(last.Timestamp))
	}
	if last := stats.LastRejected; last != nil {
		fmt.Fprintf(out, "Last rejected: %s (%s) at %s\n", status.BaseName(last.Path), last.Reason, status.FormatTimestamp(last.Timestamp))
	}
	if len(stats.Reasons) > 0 {
		reasons := make([]string, 0, len(stats.Reasons))
		for r, n := range stats.Reasons {
			reasons = append(reasons, fmt.Sprintf("%s=%d", r, n))
		}
		sort.Strings(reasons)
		fmt.Fprintf(out, "Rejections: %s\n", strings.Join(reasons, " "))
	}

	return nil
}
