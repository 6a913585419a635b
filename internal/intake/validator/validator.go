// Package validator decides whether a dropped file is a readable, supported-format
// audio file by probing it with an external media inspection tool.
package validator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/TechnicallyShaun/nota-intake/internal/intake/logging"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/probe"
)

// DefaultExtensions are the supported audio file extensions.
var DefaultExtensions = []string{".mp3", ".m4a", ".wav", ".aac", ".flac", ".ogg"}

// CorruptionSignatures are probe diagnostics that mean the file holds no
// decodable audio frames.
var CorruptionSignatures = []string{
	"Failed to find two consecutive MPEG audio frames",
	"Invalid data found when processing input",
	"moov atom not found",
}

// MsgRejected is logged at error level for every rejected file.
const MsgRejected = "audio file rejected"

// prefixSize is how much of the file is read to confirm read permission.
const prefixSize = 1024

var (
	errEmptyFile       = errors.New("file is empty")
	errUnsupportedExt  = errors.New("unsupported file extension")
	errProbeExitStatus = errors.New("probe exited with non-zero status")
)

// Validator checks audio files. It keeps no state between calls.
type Validator struct {
	prober     probe.Prober
	logger     logging.Logger
	extensions map[string]struct{}
}

// Option configures a Validator.
type Option func(*Validator)

// WithExtensions replaces the supported extension set. Extensions are
// matched case-insensitively and may be given with or without the dot.
func WithExtensions(exts []string) Option {
	return func(v *Validator) {
		v.extensions = extensionSet(exts)
	}
}

// New creates a Validator that probes files with prober and reports to logger.
func New(prober probe.Prober, logger logging.Logger, opts ...Option) *Validator {
	v := &Validator{
		prober:     prober,
		logger:     logger,
		extensions: extensionSet(DefaultExtensions),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

// IsSupported reports whether path has a supported extension. It does not
// touch the filesystem.
func (v *Validator) IsSupported(path string) bool {
	_, ok := v.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Validate classifies path. The extension is checked first; the probe only
// runs for supported extensions.
func (v *Validator) Validate(ctx context.Context, path string) Outcome {
	if !v.IsSupported(path) {
		v.logger.Debug("skipping unsupported file", withContext(ctx,
			logging.String("path", path),
			logging.String("extension", filepath.Ext(path)),
		)...)
		return rejected(path, ReasonUnsupportedExtension, errUnsupportedExt)
	}

	out := v.inspect(ctx, path)
	if !out.Valid() {
		v.reportRejection(ctx, out)
	}
	return out
}

// IsValidAudioFile reports whether path is a supported, well-formed audio file.
func (v *Validator) IsValidAudioFile(ctx context.Context, path string) bool {
	return v.Validate(ctx, path).Valid()
}

// GetAudioFormat probes path and returns its metadata, or nil if the file
// cannot be probed. Failures are logged, not returned.
func (v *Validator) GetAudioFormat(ctx context.Context, path string) *AudioMetadata {
	out := v.inspect(ctx, path)
	if !out.Valid() {
		v.reportRejection(ctx, out)
	}
	return out.Metadata
}

// inspect runs the file checks and the probe. Each step is terminal on failure.
func (v *Validator) inspect(ctx context.Context, path string) Outcome {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rejected(path, ReasonMissingFile, err)
		}
		return rejected(path, ReasonUnreadable, err)
	}

	if info.Size() == 0 {
		return rejected(path, ReasonEmptyFile, errEmptyFile)
	}

	if err := readPrefix(path); err != nil {
		return rejected(path, ReasonUnreadable, err)
	}

	res, err := v.prober.Probe(ctx, path)
	if err != nil {
		return rejected(path, ReasonProbeFailed, err)
	}

	if res.ExitCode != 0 {
		stderr := string(res.Stderr)
		reason := ReasonProbeFailed
		if isCorrupted(stderr) {
			reason = ReasonCorrupted
		} else {
			v.logger.Error("probe failed", errProbeExitStatus, withContext(ctx,
				logging.String("path", path),
				logging.Int("exit_code", res.ExitCode),
				logging.String("stdout", string(res.Stdout)),
				logging.String("stderr", stderr),
			)...)
		}
		out := rejected(path, reason, fmt.Errorf("%w: exit code %d", errProbeExitStatus, res.ExitCode))
		out.Stderr = stderr
		return out
	}

	meta, reason, err := parseProbeOutput(res.Stdout)
	if err != nil {
		return rejected(path, reason, err)
	}

	return accepted(path, meta)
}

func readPrefix(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, prefixSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		// Files shorter than the prefix are fine
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func isCorrupted(stderr string) bool {
	for _, sig := range CorruptionSignatures {
		if strings.Contains(stderr, sig) {
			return true
		}
	}
	return false
}

func (v *Validator) reportRejection(ctx context.Context, out Outcome) {
	fields := withContext(ctx,
		logging.String("path", out.Path),
		logging.String("reason", string(out.Reason)),
	)
	if out.Stderr != "" {
		fields = append(fields, logging.String("stderr", strings.TrimSpace(out.Stderr)))
	}
	v.logger.Error(MsgRejected, out.Err, fields...)
}

// withContext prefixes fields with those carried by ctx.
func withContext(ctx context.Context, fields ...logging.Field) []logging.Field {
	carried := logging.FieldsFrom(ctx)
	out := make([]logging.Field, 0, len(carried)+len(fields)+1)
	out = append(out, carried...)
	return append(out, fields...)
}
