package intake

import (
	"context"

	"github.com/TechnicallyShaun/nota-intake/internal/intake/tags"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/validator"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/watcher"
)

// FileWatcher delivers creation events for one directory.
type FileWatcher interface {
	// Watch starts watching dir and returns a channel of creation events,
	// closed when the watcher stops or ctx is done.
	Watch(ctx context.Context, dir string) (<-chan watcher.FileEvent, error)
	// Errors returns errors from the notification subsystem.
	Errors() <-chan error
	// Stop releases the subscription. Safe to call more than once.
	Stop() error
}

// Validator classifies a single file.
type Validator interface {
	// Validate returns the outcome for path. It never panics on bad input
	// and never returns an error: rejections are part of the Outcome.
	Validate(ctx context.Context, path string) validator.Outcome
}

// Stabilizer waits for a file to finish writing.
type Stabilizer interface {
	// WaitForStable blocks until the file at the given path has stopped changing.
	WaitForStable(ctx context.Context, path string) error
}

// TagReader reads embedded tags from accepted files.
type TagReader interface {
	// Read returns the file's tags, or nil if it has none.
	Read(path string) (*tags.Tags, error)
}
