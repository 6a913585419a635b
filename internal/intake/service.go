package intake

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/TechnicallyShaun/nota-intake/internal/intake/logging"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/probe"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/stabilizer"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/tags"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/validator"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/watcher"
)

// Log messages that status parsing relies on.
const (
	MsgAccepted = "audio file accepted"
	MsgRejected = validator.MsgRejected
)

// Service watches the drop folder and validates every new file.
type Service struct {
	config     *Config
	logger     logging.Logger
	watcher    FileWatcher
	validator  Validator
	stabilizer Stabilizer
	tags       TagReader
}

// NewService creates a new intake service with all components initialized.
// The logger is owned by the caller and is not closed by the service.
func NewService(cfg *Config, logger logging.Logger) (*Service, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	fw, err := watcher.New()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	prober := probe.NewFFProbe(cfg.ProbePath, cfg.ProbeTimeout())
	v := validator.New(prober, logging.Component(logger, "validator"),
		validator.WithExtensions(cfg.Extensions),
	)

	s := &Service{
		config:    cfg,
		logger:    logging.Component(logger, "service"),
		watcher:   fw,
		validator: v,
	}

	if cfg.StabilizationChecks > 0 {
		s.stabilizer = stabilizer.NewPollStabilizer(
			cfg.StabilizationInterval(), cfg.StabilizationChecks, cfg.StabilizationTimeout())
	}
	if cfg.ReadTags {
		s.tags = tags.NewFileReader()
	}

	return s, nil
}

// EnsureWatchDir creates dir and any missing parents. It is a no-op when
// dir already exists.
func EnsureWatchDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create watch directory: %w", err)
	}
	return nil
}

// Run watches the configured directory and blocks until ctx is done, an
// interrupt signal arrives, or the watcher closes. Each event is handled to
// completion before the next one is received. The watcher is released on
// every return path.
func (s *Service) Run(ctx context.Context) error {
	defer s.watcher.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	if err := EnsureWatchDir(s.config.WatchDir); err != nil {
		return err
	}

	s.logger.Info("starting intake service",
		logging.String("watch_dir", s.config.WatchDir),
		logging.String("extensions", fmt.Sprintf("%v", s.config.Extensions)),
		logging.String("probe", s.config.ProbePath),
	)

	events, err := s.watcher.Watch(ctx, s.config.WatchDir)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	s.logger.Info("monitoring directory",
		logging.String("path", s.config.WatchDir),
	)

	// In-flight handling is not interrupted by shutdown
	handleCtx := context.WithoutCancel(ctx)
	watchErrs := s.watcher.Errors()

	for {
		// Shutdown wins over queued events
		select {
		case <-ctx.Done():
			s.logger.Info("context cancelled, shutting down")
			return s.shutdown()
		case sig := <-sigCh:
			s.logger.Info("received signal, shutting down",
				logging.String("signal", sig.String()),
			)
			return s.shutdown()
		default:
		}

		select {
		case <-ctx.Done():
			s.logger.Info("context cancelled, shutting down")
			return s.shutdown()

		case sig := <-sigCh:
			s.logger.Info("received signal, shutting down",
				logging.String("signal", sig.String()),
			)
			return s.shutdown()

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			s.logger.Error("watcher error", err)

		case event, ok := <-events:
			if !ok {
				s.logger.Info("watcher channel closed")
				return s.shutdown()
			}
			s.handleEvent(handleCtx, event)
		}
	}
}

// handleEvent validates a single new entry. A panic is contained to the event.
func (s *Service) handleEvent(ctx context.Context, event watcher.FileEvent) {
	eventID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while handling file event", fmt.Errorf("%v", r),
				logging.String("event_id", eventID),
				logging.String("path", event.Path),
				logging.String("stack", string(debug.Stack())),
			)
		}
	}()

	if event.IsDir {
		s.logger.Debug("ignoring directory",
			logging.String("event_id", eventID),
			logging.String("path", event.Path),
		)
		return
	}

	s.logger.Debug("file event received",
		logging.String("event_id", eventID),
		logging.String("path", event.Path),
	)

	startTime := time.Now()
	ctx = logging.WithFields(ctx, logging.String("event_id", eventID))

	if s.stabilizer != nil {
		if err := s.stabilizer.WaitForStable(ctx, event.Path); err != nil {
			out := unsettled(event.Path, err)
			s.logger.Error(MsgRejected, out.Err,
				logging.String("event_id", eventID),
				logging.String("path", out.Path),
				logging.String("reason", string(out.Reason)),
			)
			return
		}
	}

	outcome := s.validator.Validate(ctx, event.Path)
	if !outcome.Valid() {
		return
	}

	meta := outcome.Metadata
	s.logger.Info(MsgAccepted,
		logging.String("event_id", eventID),
		logging.String("path", event.Path),
		logging.String("file", filepath.Base(event.Path)),
		logging.String("format", meta.FormatName),
		logging.String("codec", meta.CodecName),
		logging.Int("channels", meta.Channels),
		logging.Int("sample_rate", meta.SampleRate),
		logging.Float64("duration", meta.Duration),
		logging.Int64("bit_rate", meta.BitRate),
		logging.Duration("elapsed", time.Since(startTime)),
	)

	if s.tags != nil {
		s.logTags(eventID, event.Path)
	}
}

// unsettled classifies a file that never settled before validation.
func unsettled(path string, err error) validator.Outcome {
	reason := validator.ReasonUnreadable
	switch {
	case errors.Is(err, fs.ErrNotExist):
		reason = validator.ReasonMissingFile
	case errors.Is(err, stabilizer.ErrStillWriting):
		reason = validator.ReasonStillWriting
	}
	return validator.Outcome{Path: path, Reason: reason, Err: err}
}

func (s *Service) logTags(eventID, path string) {
	t, err := s.tags.Read(path)
	if err != nil {
		s.logger.Debug("no readable tags",
			logging.String("event_id", eventID),
			logging.String("path", path),
			logging.String("cause", err.Error()),
		)
		return
	}
	if t == nil || t.Empty() {
		return
	}
	s.logger.Debug("audio tags",
		logging.String("event_id", eventID),
		logging.String("path", path),
		logging.String("title", t.Title),
		logging.String("artist", t.Artist),
		logging.String("album", t.Album),
		logging.String("genre", t.Genre),
		logging.Int("year", t.Year),
	)
}

// shutdown releases the subscription. Handling is sequential, so nothing is
// in flight once the loop has returned here.
func (s *Service) shutdown() error {
	if err := s.watcher.Stop(); err != nil {
		s.logger.Error("error stopping watcher", err)
	}

	s.logger.Info("intake service stopped")
	return nil
}
