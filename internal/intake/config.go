// Package intake provides the audio intake configuration and watch service.
package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TechnicallyShaun/nota-intake/internal/intake/logging"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/probe"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/validator"
)

// ConfigFileName is the name of the intake config file within ~/.nota
const ConfigFileName = "intake.json"

// Default values for optional configuration fields
const (
	DefaultWatchDir                = "input"
	DefaultProbeTimeoutMs          = 30000
	DefaultStabilizationIntervalMs = 500
	DefaultStabilizationChecks     = 2
	DefaultStabilizationTimeoutMs  = 60000
	DefaultLogLevel                = "info"
	DefaultLogRetentionDays        = 30
)

// Environment variables that override file configuration
const (
	EnvWatchDir  = "INTAKE_WATCH_DIR"
	EnvProbePath = "INTAKE_PROBE_PATH"
	EnvLogLevel  = "INTAKE_LOG_LEVEL"
)

// Config represents the intake service configuration
type Config struct {
	WatchDir   string   `json:"watch_dir"`
	Extensions []string `json:"extensions"`
	ProbePath  string   `json:"probe_path"`
	// ProbeTimeoutMs bounds a single probe run; negative disables the timeout
	ProbeTimeoutMs int `json:"probe_timeout_ms"`
	// Negative StabilizationChecks disables waiting for a file to stop growing
	StabilizationIntervalMs int `json:"stabilization_interval_ms"`
	StabilizationChecks     int `json:"stabilization_checks"`
	// StabilizationTimeoutMs bounds the wait; negative disables the bound
	StabilizationTimeoutMs int    `json:"stabilization_timeout_ms"`
	ReadTags               bool   `json:"read_tags"`
	LogDir                 string `json:"log_dir"`
	LogLevel               string `json:"log_level"`
	LogRetentionDays       int    `json:"log_retention_days"`
}

// Validation errors
var (
	ErrWatchDirRequired    = errors.New("watch_dir is required")
	ErrInvalidExtension    = errors.New("extensions must not be empty strings")
	ErrInvalidStabilizer   = errors.New("stabilization_interval_ms must not be negative")
	ErrInvalidLogRetention = errors.New("log_retention_days must not be negative")
)

// DefaultConfigPath returns ~/.nota/intake.json.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".nota", ConfigFileName), nil
}

// Load reads the configuration from path, or from DefaultConfigPath when
// path is empty. A missing default file is not an error: defaults are used.
// Environment overrides are applied and paths containing ~ are expanded.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := Read(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file yet
		cfg = &Config{}
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	cfg.expandPaths()
	return cfg, nil
}

// Read parses the file at path as-is, without defaults or environment
// overrides. The error wraps os.ErrNotExist when the file is missing.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path as indented JSON with 0644 permissions.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks that all required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.WatchDir == "" {
		return ErrWatchDirRequired
	}
	for _, ext := range c.Extensions {
		if strings.TrimSpace(strings.TrimPrefix(ext, ".")) == "" {
			return ErrInvalidExtension
		}
	}
	if c.StabilizationIntervalMs < 0 {
		return ErrInvalidStabilizer
	}
	if c.LogRetentionDays < 0 {
		return ErrInvalidLogRetention
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ApplyDefaults sets default values for optional fields that are empty or zero.
func (c *Config) ApplyDefaults() {
	if c.WatchDir == "" {
		c.WatchDir = DefaultWatchDir
	}
	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), validator.DefaultExtensions...)
	}
	if c.ProbePath == "" {
		c.ProbePath = probe.DefaultBinary
	}
	if c.ProbeTimeoutMs == 0 {
		c.ProbeTimeoutMs = DefaultProbeTimeoutMs
	}
	if c.StabilizationIntervalMs == 0 {
		c.StabilizationIntervalMs = DefaultStabilizationIntervalMs
	}
	if c.StabilizationChecks == 0 {
		c.StabilizationChecks = DefaultStabilizationChecks
	}
	if c.StabilizationTimeoutMs == 0 {
		c.StabilizationTimeoutMs = DefaultStabilizationTimeoutMs
	}
	if c.LogDir == "" {
		c.LogDir = logging.DefaultLogDir()
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogRetentionDays == 0 {
		c.LogRetentionDays = DefaultLogRetentionDays
	}
}

// ProbeTimeout returns the probe timeout; zero means none.
func (c *Config) ProbeTimeout() time.Duration {
	if c.ProbeTimeoutMs < 0 {
		return 0
	}
	return time.Duration(c.ProbeTimeoutMs) * time.Millisecond
}

// StabilizationInterval returns the poll interval between size checks.
func (c *Config) StabilizationInterval() time.Duration {
	return time.Duration(c.StabilizationIntervalMs) * time.Millisecond
}

// StabilizationTimeout returns the longest wait for a file to settle; zero means none.
func (c *Config) StabilizationTimeout() time.Duration {
	if c.StabilizationTimeoutMs < 0 {
		return 0
	}
	return time.Duration(c.StabilizationTimeoutMs) * time.Millisecond
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() logging.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvWatchDir); v != "" {
		c.WatchDir = v
	}
	if v := os.Getenv(EnvProbePath); v != "" {
		c.ProbePath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// expandPaths expands ~ to the user's home directory in path fields.
func (c *Config) expandPaths() {
	c.WatchDir = expandTilde(c.WatchDir)
	c.LogDir = expandTilde(c.LogDir)
	c.ProbePath = expandTilde(c.ProbePath)
}

// expandTilde expands ~ at the beginning of a path to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
