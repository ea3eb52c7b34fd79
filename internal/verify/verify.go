// Package verify checks intermediate and encoded files by decoding their
// headers in-process. It never re-encodes or inspects audio quality.
package verify

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"audioconv/internal/faults"
	"audioconv/internal/formats"
)

// Info summarizes a decoded stream header.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Intermediate confirms path is a PCM WAV file.
func Intermediate(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, verifyError("open intermediate", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, verifyError("intermediate", fmt.Errorf("%s is not a valid WAV file", path))
	}
	if dec.WavAudioFormat != 1 {
		return Info{}, verifyError("intermediate", fmt.Errorf("%s is not PCM (format %d)", path, dec.WavAudioFormat))
	}
	return Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}, nil
}

// Output confirms path decodes as target.
func Output(path string, target formats.Target) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, verifyError("open output", err)
	}
	defer f.Close()

	var info Info
	switch target {
	case formats.TargetOgg:
		r, err := oggvorbis.NewReader(f)
		if err != nil {
			return Info{}, verifyError("ogg header", err)
		}
		info = Info{SampleRate: r.SampleRate(), Channels: r.Channels()}
	case formats.TargetMP3:
		d, err := mp3.NewDecoder(f)
		if err != nil {
			return Info{}, verifyError("mp3 header", err)
		}
		info = Info{SampleRate: d.SampleRate(), Channels: 2}
	default:
		return Info{}, verifyError("output", fmt.Errorf("unknown target %v", target))
	}
	if info.SampleRate <= 0 {
		return Info{}, verifyError("output", fmt.Errorf("%s reports sample rate %d", path, info.SampleRate))
	}
	return info, nil
}

func verifyError(what string, err error) error {
	return &faults.ConversionError{
		Stage: faults.StageVerify,
		Err:   fmt.Errorf("%s: %w", what, err),
	}
}
