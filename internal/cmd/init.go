package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/nota-intake/internal/intake"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default config and watch directory",
		Long: `Write a default configuration file (~/.nota/intake.json unless --config is given)
and create the watch directory. An existing configuration is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(cmd)
			if path == "" {
				p, err := intake.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			return runInit(cmd, path)
		},
	}
}

func runInit(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	var cfg *intake.Config
	_, err := os.Stat(path)
	switch {
	case err == nil:
		cfg, err = intake.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		fmt.Fprintf(out, "Config already exists at %s\n", path)
	case errors.Is(err, os.ErrNotExist):
		cfg = &intake.Config{}
		cfg.ApplyDefaults()
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		fmt.Fprintf(out, "Wrote default config to %s\n", path)
	default:
		return err
	}

	if err := intake.EnsureWatchDir(cfg.WatchDir); err != nil {
		return err
	}
	fmt.Fprintf(out, "Watch directory: %s\n", cfg.WatchDir)
	return nil
}
