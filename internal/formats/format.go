package formats

import (
	"fmt"
	"strings"

	"audioconv/internal/faults"
)

// Format is a supported source format.
type Format int

const (
	Unknown Format = iota
	FLAC
	MP3
	MP4Audio
	WAVE
	WavPack
	APE
	OggVorbis
)

// All lists every supported source format in display order.
func All() []Format {
	return []Format{FLAC, MP3, MP4Audio, WAVE, WavPack, APE, OggVorbis}
}

func (f Format) String() string {
	switch f {
	case FLAC:
		return "flac"
	case MP3:
		return "mp3"
	case MP4Audio:
		return "mp4"
	case WAVE:
		return "wav"
	case WavPack:
		return "wavpack"
	case APE:
		return "ape"
	case OggVorbis:
		return "vorbis"
	default:
		return "unknown"
	}
}

// Target is an output encoder.
type Target int

const (
	TargetOgg Target = iota + 1
	TargetMP3
)

// ParseTarget accepts the codec or tool name of an encoder.
func ParseTarget(value string) (Target, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), ".")) {
	case "ogg", "vorbis", "oggenc":
		return TargetOgg, nil
	case "mp3", "lame":
		return TargetMP3, nil
	default:
		return 0, fmt.Errorf("%w: unknown target %q", faults.ErrConfiguration, value)
	}
}

func (t Target) String() string {
	switch t {
	case TargetOgg:
		return "ogg"
	case TargetMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// Extension returns the output file extension including the dot.
func (t Target) Extension() string {
	switch t {
	case TargetMP3:
		return ".mp3"
	default:
		return ".ogg"
	}
}

// Format returns the source format equivalent to the target's output.
func (t Target) Format() Format {
	switch t {
	case TargetOgg:
		return OggVorbis
	case TargetMP3:
		return MP3
	default:
		return Unknown
	}
}
