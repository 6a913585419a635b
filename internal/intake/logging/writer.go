package logging

import (
	"io"
	"sync"
	"time"
)

// WriterLogger writes formatted lines to an io.Writer without touching the
// filesystem. It suits one-shot commands.
type WriterLogger struct {
	mu       sync.Mutex
	w        io.Writer
	minLevel Level
}

// NewWriterLogger creates a logger that writes lines at or above minLevel to w.
func NewWriterLogger(w io.Writer, minLevel Level) *WriterLogger {
	return &WriterLogger{w: w, minLevel: minLevel}
}

// Discard returns a logger that drops everything.
func Discard() *WriterLogger {
	return NewWriterLogger(io.Discard, LevelError+1)
}

// Info logs an informational message
func (l *WriterLogger) Info(msg string, fields ...Field) {
	l.write(LevelInfo, msg, nil, fields)
}

// Error logs an error message
func (l *WriterLogger) Error(msg string, err error, fields ...Field) {
	l.write(LevelError, msg, err, fields)
}

// Debug logs a debug message
func (l *WriterLogger) Debug(msg string, fields ...Field) {
	l.write(LevelDebug, msg, nil, fields)
}

// Close is a no-op; the writer belongs to the caller.
func (l *WriterLogger) Close() error {
	return nil
}

func (l *WriterLogger) write(level Level, msg string, err error, fields []Field) {
	if level < l.minLevel {
		return
	}
	line := FormatLine(time.Now(), level, "", msg, err, fields...)

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, line)
}
