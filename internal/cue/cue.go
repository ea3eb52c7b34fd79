// Package cue finds and parses the cue sheets that describe whole-disc
// images, so a single decoded image can be split and tagged per track.
package cue

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"audioconv/internal/faults"
	"audioconv/internal/tags"
)

// Track is one TRACK entry of a sheet.
type Track struct {
	Number    int
	Title     string
	Performer string
}

// Sheet is the subset of a cue sheet used for tagging.
type Sheet struct {
	Title     string
	Performer string
	Genre     string
	Date      string
	File      string
	Tracks    []Track
}

// candidateSuffixes lists sheet names tried next to an image, in order.
var candidateSuffixes = []string{".cue", ".wav.cue", ".flac.cue", ".wv.cue", ".ape.cue"}

// Candidates returns the sheet paths probed for source.
func Candidates(source string) []string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	out := make([]string, 0, len(candidateSuffixes))
	for _, suffix := range candidateSuffixes {
		out = append(out, base+suffix)
	}
	return out
}

// Locate returns the first existing cue sheet for source.
func Locate(source string) (string, error) {
	for _, candidate := range Candidates(source) {
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", faults.Wrap(faults.ErrCueNotFound, faults.StageSplit, "locate cue", source, nil)
}

// Load locates and parses the sheet for source.
func Load(source string) (string, *Sheet, error) {
	path, err := Locate(source)
	if err != nil {
		return "", nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return path, nil, fmt.Errorf("open cue sheet: %w", err)
	}
	defer f.Close()
	sheet, err := Parse(f)
	if err != nil {
		return path, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return path, sheet, nil
}

// Parse reads a cue sheet. Input that is not valid UTF-8 is decoded as
// Windows-1252, the usual encoding of sheets written by Windows rippers.
func Parse(r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		if data, err = charmap.Windows1252.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("decode cue sheet: %w", err)
		}
	}

	sheet := &Sheet{}
	var current *Track
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		fields := splitFields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		keyword := strings.ToUpper(fields[0])
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}
		switch keyword {
		case "REM":
			if len(fields) < 3 {
				continue
			}
			switch strings.ToUpper(fields[1]) {
			case "GENRE":
				sheet.Genre = fields[2]
			case "DATE":
				sheet.Date = fields[2]
			}
		case "TITLE":
			if current != nil {
				current.Title = arg
			} else {
				sheet.Title = arg
			}
		case "PERFORMER":
			if current != nil {
				current.Performer = arg
			} else {
				sheet.Performer = arg
			}
		case "FILE":
			if sheet.File == "" {
				sheet.File = arg
			}
		case "TRACK":
			n, err := strconv.Atoi(arg)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("line %d: invalid track number %q", lineNo, arg)
			}
			sheet.Tracks = append(sheet.Tracks, Track{Number: n})
			current = &sheet.Tracks[len(sheet.Tracks)-1]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sheet, nil
}

// TrackFields returns the tags for the n-th track (1-based position in the
// sheet, which is also the order shnsplit numbers its output).
func (s *Sheet) TrackFields(n int) tags.Fields {
	fields := tags.Fields{
		Album:       s.Title,
		AlbumArtist: s.Performer,
		Artist:      s.Performer,
		Genre:       s.Genre,
		Year:        year(s.Date),
		Track:       n,
		TrackTotal:  len(s.Tracks),
	}
	if n >= 1 && n <= len(s.Tracks) {
		track := s.Tracks[n-1]
		fields.Title = track.Title
		if track.Performer != "" {
			fields.Artist = track.Performer
		}
		fields.Track = track.Number
	}
	return fields
}

func year(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// splitFields tokenizes a sheet line, keeping double-quoted strings whole.
func splitFields(line string) []string {
	var (
		out     []string
		b       strings.Builder
		quoted  bool
		pending bool
	)
	flush := func() {
		if pending {
			out = append(out, b.String())
			b.Reset()
			pending = false
		}
	}
	for _, r := range strings.TrimSpace(line) {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case !quoted && (r == ' ' || r == '\t'):
			flush()
		default:
			b.WriteRune(r)
			pending = true
		}
	}
	flush()
	return out
}
