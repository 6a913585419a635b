// Package watcher reports entries created in a single directory.
package watcher

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// eventBuffer is the capacity of the channel returned by Watch.
const eventBuffer = 100

// FileEvent represents a newly created directory entry.
type FileEvent struct {
	Path      string
	IsDir     bool
	Timestamp time.Time
}

// FileWatcher detects new entries in a directory.
type FileWatcher interface {
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)
	Errors() <-chan error
	Stop() error
}

// FSWatcher implements FileWatcher on top of fsnotify. Only the watched
// directory itself is observed, never its descendants.
type FSWatcher struct {
	fsw      *fsnotify.Watcher
	errs     chan error
	stopCh   chan struct{}
	stopOnce sync.Once
	stopErr  error

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// New creates a new fsnotify-based watcher.
func New() (*FSWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &FSWatcher{
		fsw:    fsw,
		errs:   make(chan error, 10),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Watch subscribes to creation events in dir. The returned channel delivers
// events in the order the OS reports them and is closed when the watcher
// stops or ctx is done. Watch must be called at most once.
func (w *FSWatcher) Watch(ctx context.Context, dir string) (<-chan FileEvent, error) {
	if err := w.fsw.Add(dir); err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	events := make(chan FileEvent, eventBuffer)

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	go w.readEvents(ctx, events)

	return events, nil
}

// Errors returns notification errors such as event queue overflow.
func (w *FSWatcher) Errors() <-chan error {
	return w.errs
}

// Stop releases the subscription and waits for the event loop to exit.
// It is safe to call more than once.
func (w *FSWatcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.stopErr = w.fsw.Close()

		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		if started {
			<-w.done
		}
	})
	return w.stopErr
}

func (w *FSWatcher) readEvents(ctx context.Context, events chan<- FileEvent) {
	defer close(w.done)
	defer close(events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}

			fe := FileEvent{
				Path:      ev.Name,
				Timestamp: time.Now(),
			}
			if info, err := os.Lstat(ev.Name); err == nil {
				fe.IsDir = info.IsDir()
			}

			select {
			case events <- fe:
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
				// Drop when nobody is draining errors
			}
		}
	}
}
