package formats

import (
	"strconv"
	"strings"

	"audioconv/internal/config"
)

// DecodeMode says how a decoder delivers its WAV intermediate.
type DecodeMode int

const (
	// DecodeNone means the source already is the intermediate.
	DecodeNone DecodeMode = iota
	// DecodeStream means the decoder writes WAV to stdout.
	DecodeStream
	// DecodeFile means the decoder writes WAV to a named file.
	DecodeFile
)

// Template placeholders. ArgComments expands to zero or more arguments and
// must stand alone.
const (
	ArgInput      = "{in}"
	ArgWAV        = "{wav}"
	ArgWAVEscaped = "{wav_escaped}"
	ArgOutput     = "{out}"
	ArgQuality    = "{quality}"
	ArgComments   = "{comments}"
)

// Decoder describes the external decoder for a format.
type Decoder struct {
	Tool string
	Mode DecodeMode
	Args []string
}

// Entry is the registry row for one source format.
type Entry struct {
	Format     Format
	Label      string
	Extensions []string
	Decoder    Decoder
}

// Encoder describes the external encoder for a target.
type Encoder struct {
	Tool string
	Args []string
	// StdinInput is the value substituted for {in} when encoding from a pipe.
	StdinInput string
}

// Table is the immutable format registry.
type Table struct {
	entries  map[Format]Entry
	encoders map[Target]Encoder
	byExt    map[string]Format
	split    SplitTools
}

// SplitTools names the cue splitting helpers.
type SplitTools struct {
	Breakpoints string
	Splitter    string
}

// NewTable builds the registry from configured tool names.
func NewTable(tools config.Tools) *Table {
	t := &Table{
		entries:  make(map[Format]Entry),
		encoders: make(map[Target]Encoder),
		byExt:    make(map[string]Format),
		split:    SplitTools{Breakpoints: tools.Cuebreakpoints, Splitter: tools.Shnsplit},
	}
	for _, f := range All() {
		entry, ok := entryFor(f, tools)
		if !ok {
			continue
		}
		t.entries[f] = entry
		for _, ext := range entry.Extensions {
			t.byExt[ext] = f
		}
	}
	t.encoders[TargetOgg] = Encoder{
		Tool:       tools.Oggenc,
		Args:       []string{"-Q", "-q", ArgQuality, ArgComments, "-o", ArgOutput, ArgInput},
		StdinInput: "-",
	}
	t.encoders[TargetMP3] = Encoder{
		Tool:       tools.Lame,
		Args:       []string{"--quiet", "-V", ArgQuality, ArgInput, ArgOutput},
		StdinInput: "-",
	}
	return t
}

func entryFor(f Format, tools config.Tools) (Entry, bool) {
	switch f {
	case FLAC:
		return Entry{f, "FLAC", []string{".flac"},
			Decoder{tools.Flac, DecodeStream, []string{"-d", "-s", "-c", ArgInput}}}, true
	case MP3:
		return Entry{f, "MPEG Layer III", []string{".mp3"},
			Decoder{tools.Lame, DecodeStream, []string{"--quiet", "--decode", ArgInput, "-"}}}, true
	case MP4Audio:
		return Entry{f, "MP4/M4A audio", []string{".m4a", ".m4b", ".mp4"},
			Decoder{tools.Mplayer, DecodeFile, []string{"-really-quiet", "-vo", "null", "-vc", "null", ArgInput, "-ao", "pcm:fast:file=" + ArgWAVEscaped}}}, true
	case WAVE:
		return Entry{f, "WAVE", []string{".wav"}, Decoder{Mode: DecodeNone}}, true
	case WavPack:
		return Entry{f, "WavPack", []string{".wv"},
			Decoder{tools.Wvunpack, DecodeStream, []string{"-q", "-y", ArgInput, "-"}}}, true
	case APE:
		return Entry{f, "Monkey's Audio", []string{".ape"},
			Decoder{tools.Mac, DecodeFile, []string{ArgInput, ArgWAV, "-d"}}}, true
	case OggVorbis:
		return Entry{f, "Ogg Vorbis", []string{".ogg", ".oga"},
			Decoder{tools.Oggdec, DecodeStream, []string{"-Q", "-o", "-", ArgInput}}}, true
	case Unknown:
		return Entry{}, false
	}
	return Entry{}, false
}

// Entry returns the registry row for f.
func (t *Table) Entry(f Format) (Entry, bool) {
	entry, ok := t.entries[f]
	return entry, ok
}

// Encoder returns the encoder description for target.
func (t *Table) Encoder(target Target) (Encoder, bool) {
	enc, ok := t.encoders[target]
	return enc, ok
}

// Split returns the cue splitting tools.
func (t *Table) Split() SplitTools {
	return t.split
}

// Entries returns every registered row in display order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, f := range All() {
		if entry, ok := t.entries[f]; ok {
			out = append(out, entry)
		}
	}
	return out
}

func (t *Table) lookupExt(ext string) (Format, bool) {
	f, ok := t.byExt[strings.ToLower(ext)]
	return f, ok
}

// Expand substitutes placeholders in a template.
func Expand(template []string, values Values) []string {
	out := make([]string, 0, len(template)+2*len(values.Comments))
	for _, arg := range template {
		if arg == ArgComments {
			for _, c := range values.Comments {
				out = append(out, "-c", c)
			}
			continue
		}
		arg = strings.ReplaceAll(arg, ArgWAVEscaped, escapeMplayer(values.WAV))
		arg = strings.ReplaceAll(arg, ArgInput, values.Input)
		arg = strings.ReplaceAll(arg, ArgWAV, values.WAV)
		arg = strings.ReplaceAll(arg, ArgOutput, values.Output)
		arg = strings.ReplaceAll(arg, ArgQuality, strconv.Itoa(values.Quality))
		out = append(out, arg)
	}
	return out
}

// Values feeds Expand.
type Values struct {
	Input    string
	WAV      string
	Output   string
	Quality  int
	Comments []string
}

// mplayer treats commas in suboption values as separators.
func escapeMplayer(path string) string {
	return strings.ReplaceAll(path, ",", `\,`)
}
