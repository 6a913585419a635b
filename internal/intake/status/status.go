// Package status summarizes the intake service log for display.
package status

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/TechnicallyShaun/nota-intake/internal/intake/logging"
)

// Stats holds parsed statistics from the log file.
type Stats struct {
	Accepted     int
	Rejected     int
	Errors       int
	LastAccepted *FileEntry
	LastRejected *FileEntry
	// Reasons counts rejections by reason
	Reasons map[string]int
}

// FileEntry describes one accepted or rejected file.
type FileEntry struct {
	Timestamp time.Time
	Path      string
	// Reason is set for rejected files only
	Reason string
}

// TodayLogPath returns the path to today's intake log file in dir.
func TodayLogPath(dir string) string {
	today := time.Now().UTC().Format("2006-01-02")
	return filepath.Join(dir, logging.FileName(logging.DefaultPrefix, today))
}

// ParseTodayStats parses today's log file in dir. Returns empty stats if
// the log file doesn't exist.
func ParseTodayStats(dir string) (*Stats, error) {
	return ParseLogFile(TodayLogPath(dir))
}

// value matches a bare token or a Go-quoted string as written by the logger
const value = `("(?:[^"\\]|\\.)*"|\S+)`

var (
	// 2026-01-22T14:30:00Z INFO  [service] audio file accepted event_id=... path=/in/a.mp3 ...
	linePattern   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z)\s+(INFO|ERROR|DEBUG)\s+(?:\[[^\]]*\]\s+)?(.*)$`)
	pathPattern   = regexp.MustCompile(`\spath=` + value)
	reasonPattern = regexp.MustCompile(`\sreason=` + value)
)

// ParseLogFile parses a log file and returns statistics.
// Returns empty stats if the file doesn't exist.
func ParseLogFile(path string) (*Stats, error) {
	stats := &Stats{Reasons: map[string]int{}}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := linePattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		ts, _ := time.Parse(time.RFC3339, m[1])
		level, rest := m[2], m[3]

		if level == "ERROR" {
			stats.Errors++
		}

		switch {
		case hasMessage(rest, "audio file accepted"):
			stats.Accepted++
			stats.LastAccepted = &FileEntry{Timestamp: ts, Path: field(pathPattern, rest)}
		case hasMessage(rest, "audio file rejected"):
			stats.Rejected++
			reason := field(reasonPattern, rest)
			stats.Reasons[reason]++
			stats.LastRejected = &FileEntry{Timestamp: ts, Path: field(pathPattern, rest), Reason: reason}
		}
	}

	return stats, scanner.Err()
}

func hasMessage(rest, msg string) bool {
	return rest == msg || strings.HasPrefix(rest, msg+" ")
}

func field(re *regexp.Regexp, rest string) string {
	m := re.FindStringSubmatch(rest)
	if m == nil {
		return ""
	}
	return unquoteIfNeeded(m[1])
}

// unquoteIfNeeded reverses the logger's quoting of values with spaces.
func unquoteIfNeeded(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

// FormatTimestamp formats a timestamp for display.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02T15:04:05")
}

// BaseName returns just the filename from a path.
func BaseName(path string) string {
	return filepath.Base(strings.TrimSuffix(path, "/"))
}
