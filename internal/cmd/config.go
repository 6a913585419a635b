package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/nota-intake/internal/intake"
)

// Prompter defines the interface for reading user input
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// StdinPrompter reads from stdin
type StdinPrompter struct {
	reader *bufio.Reader
}

// NewStdinPrompter creates a prompter that reads from stdin
func NewStdinPrompter() *StdinPrompter {
	return &StdinPrompter{reader: bufio.NewReader(os.Stdin)}
}

// Prompt displays a prompt and reads user input
func (p *StdinPrompter) Prompt(prompt string) (string, error) {
	fmt.Print(prompt)
	input, err := p.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// ReaderPrompter reads from a provided reader (for testing)
type ReaderPrompter struct {
	reader *bufio.Reader
}

// NewReaderPrompter creates a prompter that reads from the provided reader
func NewReaderPrompter(r io.Reader) *ReaderPrompter {
	return &ReaderPrompter{reader: bufio.NewReader(r)}
}

// Prompt reads input from the reader
func (p *ReaderPrompter) Prompt(prompt string) (string, error) {
	input, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// NewConfigCmd creates the interactive config command
func NewConfigCmd(prompter Prompter) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Configure the intake service",
		Long:  "Interactive configuration for the intake service. Press Enter to keep the value shown.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := prompter
			if p == nil {
				p = NewStdinPrompter()
			}
			path := configPath(cmd)
			if path == "" {
				def, err := intake.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = def
			}
			return runConfig(cmd, p, path)
		},
	}
}

func runConfig(cmd *cobra.Command, prompter Prompter, path string) error {
	cfg, err := loadExisting(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Intake Service Configuration")
	fmt.Fprintln(out, "============================")
	fmt.Fprintln(out, "")

	if cfg.WatchDir, err = promptDefault(prompter, "Watch folder", cfg.WatchDir); err != nil {
		return err
	}
	if cfg.ProbePath, err = promptDefault(prompter, "ffprobe binary", cfg.ProbePath); err != nil {
		return err
	}

	exts, err := promptDefault(prompter, "Extensions", strings.Join(cfg.Extensions, ","))
	if err != nil {
		return err
	}
	cfg.Extensions = splitList(exts)

	tags, err := promptDefault(prompter, "Read embedded tags (y/n)", yesNo(cfg.ReadTags))
	if err != nil {
		return err
	}
	cfg.ReadTags = strings.HasPrefix(strings.ToLower(tags), "y")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "Configuration saved to %s\n", path)
	return nil
}

// loadExisting reads path if present, otherwise returns defaults. Environment
// overrides are not applied so they never end up persisted.
func loadExisting(path string) (*intake.Config, error) {
	cfg, err := intake.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = &intake.Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// promptDefault prompts for a value, returning current when the answer is empty
func promptDefault(prompter Prompter, label, current string) (string, error) {
	value, err := prompter.Prompt(fmt.Sprintf("%s [%s]: ", label, current))
	if err != nil {
		return "", err
	}
	if value == "" {
		return current, nil
	}
	return value, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
