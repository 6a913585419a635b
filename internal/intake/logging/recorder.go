package logging

import (
	"sync"
	"time"
)

// Entry is a single captured log call.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Err     error
	Fields  []Field
}

// Field returns the value of the named field and whether it was present.
func (e Entry) Field(key string) (any, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Recorder is an in-memory Logger. It keeps every entry regardless of level.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Info records an informational message
func (r *Recorder) Info(msg string, fields ...Field) {
	r.record(LevelInfo, msg, nil, fields)
}

// Error records an error message
func (r *Recorder) Error(msg string, err error, fields ...Field) {
	r.record(LevelError, msg, err, fields)
}

// Debug records a debug message
func (r *Recorder) Debug(msg string, fields ...Field) {
	r.record(LevelDebug, msg, nil, fields)
}

// Close is a no-op.
func (r *Recorder) Close() error {
	return nil
}

func (r *Recorder) record(level Level, msg string, err error, fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		Time:    time.Now(),
		Level:   level,
		Message: msg,
		Err:     err,
		Fields:  append([]Field(nil), fields...),
	})
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Find returns the entries whose message equals msg.
func (r *Recorder) Find(msg string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}
