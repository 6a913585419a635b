package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	errMissingStreams = errors.New("probe output has no streams")
	errMissingFormat  = errors.New("probe output has no format section")
	errNoAudioStream  = errors.New("no audio stream found")
)

// probeOutput mirrors the subset of `ffprobe -of json` that is requested.
// Pointers distinguish an absent section from an empty one.
type probeOutput struct {
	Streams *[]probeStream `json:"streams"`
	Format  *probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  string  `json:"codec_type"`
	CodecName  string  `json:"codec_name"`
	Channels   numeric `json:"channels"`
	SampleRate numeric `json:"sample_rate"`
}

type probeFormat struct {
	FormatName string  `json:"format_name"`
	Duration   numeric `json:"duration"`
	BitRate    numeric `json:"bit_rate"`
}

// numeric holds a JSON number or a numeric string. ffprobe emits both
// ("sample_rate": "44100", "channels": 2). The empty value means absent.
type numeric string

func (n *numeric) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numeric(s)
		return nil
	}
	*n = numeric(b)
	return nil
}

func (n numeric) asFloat() (float64, error) {
	if n == "" {
		return 0, nil
	}
	return strconv.ParseFloat(string(n), 64)
}

func (n numeric) asInt() (int64, error) {
	if n == "" {
		return 0, nil
	}
	return strconv.ParseInt(string(n), 10, 64)
}

// parseProbeOutput converts probe JSON into metadata. Any coercion failure
// rejects the whole result.
func parseProbeOutput(data []byte) (*AudioMetadata, Reason, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, ReasonMalformedOutput, fmt.Errorf("decode probe output: %w", err)
	}

	if out.Streams == nil || len(*out.Streams) == 0 {
		return nil, ReasonMalformedOutput, errMissingStreams
	}
	if out.Format == nil {
		return nil, ReasonMalformedOutput, errMissingFormat
	}

	var audio *probeStream
	for i := range *out.Streams {
		if (*out.Streams)[i].CodecType == "audio" {
			audio = &(*out.Streams)[i]
			break
		}
	}
	if audio == nil {
		return nil, ReasonNoAudioStream, errNoAudioStream
	}

	duration, err := out.Format.Duration.asFloat()
	if err != nil {
		return nil, ReasonMalformedOutput, fmt.Errorf("parse duration: %w", err)
	}
	bitRate, err := out.Format.BitRate.asInt()
	if err != nil {
		return nil, ReasonMalformedOutput, fmt.Errorf("parse bit_rate: %w", err)
	}
	channels, err := audio.Channels.asInt()
	if err != nil {
		return nil, ReasonMalformedOutput, fmt.Errorf("parse channels: %w", err)
	}
	sampleRate, err := audio.SampleRate.asInt()
	if err != nil {
		return nil, ReasonMalformedOutput, fmt.Errorf("parse sample_rate: %w", err)
	}

	return &AudioMetadata{
		FormatName: out.Format.FormatName,
		Duration:   duration,
		BitRate:    bitRate,
		Channels:   int(channels),
		SampleRate: int(sampleRate),
		CodecName:  audio.CodecName,
	}, "", nil
}
