package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/nota-intake/internal/intake"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/logging"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/probe"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/validator"
)

// ErrFilesRejected is returned by check when at least one file is rejected
var ErrFilesRejected = errors.New("files rejected")

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate audio files once",
		Long: `Validate the given files with the same rules as the running service and
print one line per file. Exits non-zero when any file is rejected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var logger logging.Logger = logging.Discard()
			if verbose {
				logger = logging.NewWriterLogger(cmd.ErrOrStderr(), logging.LevelDebug)
			}

			v := validator.New(
				probe.NewFFProbe(cfg.ProbePath, cfg.ProbeTimeout()),
				logger,
				validator.WithExtensions(cfg.Extensions),
			)
			return runCheck(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), v, args)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log probe details to stderr")

	return cmd
}

func runCheck(ctx context.Context, out, errOut io.Writer, v intake.Validator, paths []string) error {
	var bar *progressbar.ProgressBar
	if len(paths) > 1 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(errOut),
			progressbar.OptionSetDescription("checking"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	outcomes := make([]validator.Outcome, 0, len(paths))
	rejected := 0
	for _, path := range paths {
		outcome := v.Validate(ctx, path)
		if !outcome.Valid() {
			rejected++
		}
		outcomes = append(outcomes, outcome)
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	for _, outcome := range outcomes {
		fmt.Fprintln(out, outcome.String())
	}

	if rejected > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFilesRejected, rejected, len(paths))
	}
	return nil
}
