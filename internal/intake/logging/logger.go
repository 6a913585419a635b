// Package logging provides structured, daily-rotated logging for the intake service.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents a log severity level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (debug, info, error) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Logger handles structured logging
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Debug(msg string, fields ...Field)
	Close() error
}

// DefaultPrefix is the log file prefix used when none is configured.
const DefaultPrefix = "intake"

// Config configures the logger
type Config struct {
	// LogDir is the directory where log files are stored (default: ~/.nota/logs)
	LogDir string
	// Prefix is the log file prefix (e.g., "intake" produces intake-YYYY-MM-DD.log)
	Prefix string
	// RetentionDays is the number of days to retain old log files (default: 30)
	RetentionDays int
	// Component is the component name shown in brackets (e.g., "[watcher]")
	Component string
	// MinLevel is the minimum log level to write (default: LevelInfo)
	MinLevel Level
	// Mirror receives a copy of every written line when set (e.g. os.Stderr)
	Mirror io.Writer
	// minLevelSet tracks whether MinLevel was explicitly configured
	minLevelSet bool
}

// WithMinLevel returns a copy of Config with the specified minimum log level
func (c Config) WithMinLevel(level Level) Config {
	c.MinLevel = level
	c.minLevelSet = true
	return c
}

// DefaultLogDir returns ~/.nota/logs.
func DefaultLogDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".nota", "logs")
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		LogDir:        DefaultLogDir(),
		Prefix:        DefaultPrefix,
		RetentionDays: 30,
		Component:     "",
		MinLevel:      LevelInfo,
	}
}

// sink is the file shared by a logger and all of its component children.
type sink struct {
	mu          sync.Mutex
	dir         string
	prefix      string
	mirror      io.Writer
	file        *os.File
	currentDate string
	closed      bool
}

// FileLogger implements Logger with daily file rotation
type FileLogger struct {
	config Config
	sink   *sink
}

// New creates a new FileLogger with the given configuration
func New(config Config) (*FileLogger, error) {
	if config.LogDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		config.LogDir = filepath.Join(homeDir, ".nota", "logs")
	}
	if config.Prefix == "" {
		config.Prefix = DefaultPrefix
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = 30
	}
	if !config.minLevelSet {
		config.MinLevel = LevelInfo
	}

	if err := os.MkdirAll(config.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logger := &FileLogger{
		config: config,
		sink: &sink{
			dir:    config.LogDir,
			prefix: config.Prefix,
			mirror: config.Mirror,
		},
	}

	logger.sink.mu.Lock()
	err := logger.sink.rotateIfNeeded()
	logger.sink.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := logger.cleanOldLogs(); err != nil {
		// Cleanup failures never block startup
		logger.Error("failed to clean old logs", err)
	}

	return logger, nil
}

// Info logs an informational message
func (l *FileLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, nil, fields...)
}

// Error logs an error message
func (l *FileLogger) Error(msg string, err error, fields ...Field) {
	l.log(LevelError, msg, err, fields...)
}

// Debug logs a debug message
func (l *FileLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, nil, fields...)
}

// Close closes the underlying file. Children created with WithComponent
// share the file, so closing any of them closes all.
func (l *FileLogger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	l.sink.closed = true
	if l.sink.file != nil {
		err := l.sink.file.Close()
		l.sink.file = nil
		return err
	}
	return nil
}

// WithComponent returns a new logger with the specified component name
func (l *FileLogger) WithComponent(component string) *FileLogger {
	newConfig := l.config
	newConfig.Component = component
	return &FileLogger{
		config: newConfig,
		sink:   l.sink,
	}
}

func (l *FileLogger) log(level Level, msg string, err error, fields ...Field) {
	if level < l.config.MinLevel {
		return
	}

	line := FormatLine(time.Now(), level, l.config.Component, msg, err, fields...)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.closed {
		return
	}

	if rotateErr := l.sink.rotateIfNeeded(); rotateErr != nil {
		fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", rotateErr)
		return
	}

	if l.sink.file != nil {
		l.sink.file.WriteString(line)
	}
	if l.sink.mirror != nil {
		io.WriteString(l.sink.mirror, line)
	}
}

// FormatLine renders one log line, including the trailing newline.
// Format: 2026-01-22T14:30:00Z INFO  [service] message key=value
func FormatLine(ts time.Time, level Level, component, msg string, err error, fields ...Field) string {
	var sb strings.Builder
	sb.WriteString(ts.UTC().Format(time.RFC3339))
	sb.WriteString(" ")
	sb.WriteString(fmt.Sprintf("%-5s", level.String()))
	sb.WriteString(" ")

	if component != "" {
		sb.WriteString("[")
		sb.WriteString(component)
		sb.WriteString("] ")
	}

	sb.WriteString(msg)

	if err != nil {
		sb.WriteString(" error=")
		sb.WriteString(formatValue(err.Error()))
	}

	for _, f := range fields {
		sb.WriteString(" ")
		sb.WriteString(f.Key)
		sb.WriteString("=")
		sb.WriteString(formatValue(f.Value))
	}

	sb.WriteString("\n")
	return sb.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if val == "" || strings.ContainsAny(val, " \t\n\"") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case time.Duration:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// rotateIfNeeded must be called with s.mu held.
func (s *sink) rotateIfNeeded() error {
	today := time.Now().UTC().Format("2006-01-02")

	if s.currentDate == today && s.file != nil {
		return nil
	}

	if s.file != nil {
		s.file.Close()
		s.file = nil
	}

	path := filepath.Join(s.dir, FileName(s.prefix, today))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	s.file = file
	s.currentDate = today

	return nil
}

// FileName returns the log file name for a prefix and a YYYY-MM-DD date.
func FileName(prefix, date string) string {
	return fmt.Sprintf("%s-%s.log", prefix, date)
}

func (l *FileLogger) cleanOldLogs() error {
	entries, err := os.ReadDir(l.config.LogDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	prefix := l.config.Prefix + "-"
	cutoff := time.Now().UTC().AddDate(0, 0, -l.config.RetentionDays)

	var toDelete []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".log") {
			continue
		}

		dateStr := strings.TrimPrefix(name, prefix)
		dateStr = strings.TrimSuffix(dateStr, ".log")

		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			toDelete = append(toDelete, filepath.Join(l.config.LogDir, name))
		}
	}

	sort.Strings(toDelete)

	for _, path := range toDelete {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove old log file %s: %w", path, err)
		}
	}

	return nil
}

// LogPath returns the path to the current log file
func (l *FileLogger) LogPath() string {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.file != nil {
		return l.sink.file.Name()
	}

	today := time.Now().UTC().Format("2006-01-02")
	return filepath.Join(l.config.LogDir, FileName(l.config.Prefix, today))
}

// Component returns l tagged with a component name when l supports it,
// otherwise l itself.
func Component(l Logger, name string) Logger {
	if fl, ok := l.(*FileLogger); ok {
		return fl.WithComponent(name)
	}
	return l
}
