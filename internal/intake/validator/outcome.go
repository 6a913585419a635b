package validator

import "fmt"

// Reason classifies why a file was rejected.
type Reason string

const (
	ReasonUnsupportedExtension Reason = "unsupported-extension"
	ReasonMissingFile          Reason = "missing-file"
	ReasonEmptyFile            Reason = "empty-file"
	ReasonUnreadable           Reason = "unreadable"
	ReasonProbeFailed          Reason = "probe-failed"
	ReasonCorrupted            Reason = "corrupted"
	ReasonNoAudioStream        Reason = "no-audio-stream"
	ReasonMalformedOutput      Reason = "malformed-probe-output"
	ReasonStillWriting         Reason = "still-writing"
)

// AudioMetadata is the container and first-audio-stream information reported by the probe.
type AudioMetadata struct {
	FormatName string
	// Duration in seconds
	Duration float64
	// BitRate in bits per second
	BitRate    int64
	Channels   int
	SampleRate int
	CodecName  string
}

// Outcome is the result of validating one file: either Metadata is set
// (valid) or Reason is set (rejected), never both.
type Outcome struct {
	Path     string
	Metadata *AudioMetadata
	Reason   Reason
	// Err is the underlying error for a rejection, if any.
	Err error
	// Stderr is the probe's diagnostic output for probe-failed and corrupted rejections.
	Stderr string
}

// Valid reports whether the file was accepted.
func (o Outcome) Valid() bool {
	return o.Metadata != nil
}

func (o Outcome) String() string {
	if o.Valid() {
		m := o.Metadata
		return fmt.Sprintf("%s: valid format=%s codec=%s channels=%d sample_rate=%d duration=%.2fs bit_rate=%d",
			o.Path, m.FormatName, m.CodecName, m.Channels, m.SampleRate, m.Duration, m.BitRate)
	}
	return fmt.Sprintf("%s: rejected (%s)", o.Path, o.Reason)
}

func accepted(path string, meta *AudioMetadata) Outcome {
	return Outcome{Path: path, Metadata: meta}
}

func rejected(path string, reason Reason, err error) Outcome {
	return Outcome{Path: path, Reason: reason, Err: err}
}
