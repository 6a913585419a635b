package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/nota-intake/internal/intake"
)

// NewRootCmd creates the root command for the intake CLI
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "intake",
		Short:        "Audio drop-folder watcher",
		Long:         "Nota Intake - watches a drop folder and validates new audio files with ffprobe",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default ~/.nota/intake.json)")

	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewConfigCmd(nil))
	rootCmd.AddCommand(NewStartCmd())
	rootCmd.AddCommand(NewStopCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewCheckCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// configPath returns the --config value, or "" when unset or undefined.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

func loadConfig(cmd *cobra.Command) (*intake.Config, error) {
	cfg, err := intake.Load(configPath(cmd))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
