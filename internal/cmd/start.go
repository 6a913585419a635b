package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/nota-intake/internal/intake"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/logging"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/pidfile"
)

// NewStartCmd creates the start command
func NewStartCmd() *cobra.Command {
	var watchDir, logLevel string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the intake service in foreground mode",
		Long: `Start the intake service in foreground mode.

The service watches a single directory (non-recursively) and validates every
new audio file with ffprobe. Accepted and rejected files are logged to
~/.nota/logs/intake-YYYY-MM-DD.log and mirrored to stderr.

Flags override environment variables, which override the config file.
The service runs until interrupted with Ctrl+C or "intake stop".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if watchDir != "" {
				cfg.WatchDir = watchDir
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			pf, err := pidfile.Default()
			if err != nil {
				return err
			}

			return runStart(cmd.Context(), cmd, cfg, pf)
		},
	}

	cmd.Flags().StringVar(&watchDir, "watch-dir", "", "directory to watch (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info or error (overrides config)")

	return cmd
}

func runStart(ctx context.Context, cmd *cobra.Command, cfg *intake.Config, pf *pidfile.File) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := logging.Config{
		LogDir:        cfg.LogDir,
		RetentionDays: cfg.LogRetentionDays,
		Mirror:        cmd.ErrOrStderr(),
	}.WithMinLevel(cfg.Level())

	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Close()

	if err := pf.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := pf.Remove(); err != nil {
			logger.Error("failed to remove PID file", err)
		}
	}()

	svc, err := intake.NewService(cfg, logger)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Starting intake service...")
	fmt.Fprintf(out, "Watching: %s\n", cfg.WatchDir)
	fmt.Fprintf(out, "Log:      %s\n", logger.LogPath())
	fmt.Fprintln(out, "Press Ctrl+C to stop")
	fmt.Fprintln(out)

	return svc.Run(ctx)
}
