package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dhowden/tag"

	"audioconv/internal/faults"
)

// Extensions whose container must be inspected before the format is trusted.
var ambiguousExtensions = map[string]struct{}{
	".mp4": {},
	".m4a": {},
	".m4b": {},
	".oga": {},
}

// Audio-only MP4 extensions; any MP4 container with these is accepted.
var audioMP4Extensions = map[string]struct{}{
	".m4a": {},
	".m4b": {},
}

// Largest moov box read into memory when looking for track handlers.
const maxMoovBytes = 64 << 20

// Dispatcher resolves input paths to formats using a Table.
type Dispatcher struct {
	table *Table
}

// NewDispatcher returns a dispatcher bound to table.
func NewDispatcher(table *Table) *Dispatcher {
	return &Dispatcher{table: table}
}

// Lookup maps an extension (with or without the dot) to a Format without
// touching the filesystem.
func (d *Dispatcher) Lookup(ext string) (Format, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if f, ok := d.table.lookupExt(ext); ok {
		return f, nil
	}
	if ext == "" {
		return Unknown, fmt.Errorf("%w: no file extension", faults.ErrUnsupportedFormat)
	}
	return Unknown, fmt.Errorf("%w: extension %s", faults.ErrUnsupportedFormat, ext)
}

// Known reports whether path has a registered extension.
func (d *Dispatcher) Known(path string) bool {
	_, err := d.Lookup(filepath.Ext(path))
	return err == nil
}

// Detect returns the format of path. Only ambiguous container extensions
// cause the file to be read.
func (d *Dispatcher) Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, err := d.Lookup(ext)
	if err != nil {
		return Unknown, fmt.Errorf("%s: %w", path, err)
	}
	if _, ambiguous := ambiguousExtensions[ext]; !ambiguous {
		return f, nil
	}
	if err := Probe(path, f); err != nil {
		return Unknown, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Probe confirms that the file at path holds the expected container. An
// .mp4 file must carry a sound track and no video track.
func Probe(path string, want Format) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	defer file.Close()

	format, fileType, err := tag.Identify(file)
	if err != nil {
		return fmt.Errorf("%w: probe: %v", faults.ErrUnsupportedFormat, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("probe: %w", err)
	}

	switch want {
	case MP4Audio:
		if format != tag.MP4 {
			return fmt.Errorf("%w: not an MP4 container", faults.ErrUnsupportedFormat)
		}
		if _, ok := audioMP4Extensions[strings.ToLower(filepath.Ext(path))]; ok {
			return nil
		}
		handlers, err := mp4Handlers(file)
		if err != nil {
			return fmt.Errorf("probe: %w", err)
		}
		if !slices.Contains(handlers, "soun") {
			return fmt.Errorf("%w: MP4 container without a sound track", faults.ErrUnsupportedFormat)
		}
		if slices.Contains(handlers, "vide") {
			return fmt.Errorf("%w: MP4 container holds video", faults.ErrUnsupportedFormat)
		}
		return nil
	case OggVorbis:
		if fileType != tag.OGG {
			return fmt.Errorf("%w: not an Ogg container", faults.ErrUnsupportedFormat)
		}
		ok, err := firstPacketIsVorbis(file)
		if err != nil {
			return fmt.Errorf("probe: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: Ogg stream is not Vorbis", faults.ErrUnsupportedFormat)
		}
		return nil
	default:
		return nil
	}
}

// mp4Handlers walks the top-level boxes of an MP4 file and returns the
// handler type of every track found under moov/trak/mdia/hdlr.
func mp4Handlers(r io.ReadSeeker) ([]string, error) {
	for {
		var header [8]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, nil
			}
			return nil, err
		}
		size := uint64(binary.BigEndian.Uint32(header[:4]))
		kind := string(header[4:8])
		headerLen := uint64(8)
		if size == 1 {
			var large [8]byte
			if _, err := io.ReadFull(r, large[:]); err != nil {
				return nil, nil
			}
			size = binary.BigEndian.Uint64(large[:])
			headerLen = 16
		}

		if kind == "moov" {
			var body []byte
			var err error
			if size == 0 {
				body, err = io.ReadAll(io.LimitReader(r, maxMoovBytes))
			} else {
				if size < headerLen || size-headerLen > maxMoovBytes {
					return nil, fmt.Errorf("moov box of %d bytes", size)
				}
				body = make([]byte, size-headerLen)
				_, err = io.ReadFull(r, body)
			}
			if err != nil {
				return nil, err
			}
			return trackHandlers(body), nil
		}
		if size == 0 || size < headerLen {
			return nil, nil
		}
		if _, err := r.Seek(int64(size-headerLen), io.SeekCurrent); err != nil {
			return nil, err
		}
	}
}

func trackHandlers(moov []byte) []string {
	var handlers []string
	eachBox(moov, func(kind string, trak []byte) {
		if kind != "trak" {
			return
		}
		eachBox(trak, func(kind string, mdia []byte) {
			if kind != "mdia" {
				return
			}
			eachBox(mdia, func(kind string, hdlr []byte) {
				// version/flags, pre_defined, then handler_type.
				if kind == "hdlr" && len(hdlr) >= 12 {
					handlers = append(handlers, string(hdlr[8:12]))
				}
			})
		})
	})
	return handlers
}

// eachBox calls fn for every child box in buf. Malformed sizes end the walk.
func eachBox(buf []byte, fn func(kind string, body []byte)) {
	for len(buf) >= 8 {
		size := uint64(binary.BigEndian.Uint32(buf[:4]))
		kind := string(buf[4:8])
		headerLen := uint64(8)
		switch size {
		case 0:
			size = uint64(len(buf))
		case 1:
			if len(buf) < 16 {
				return
			}
			size = binary.BigEndian.Uint64(buf[8:16])
			headerLen = 16
		}
		if size < headerLen || size > uint64(len(buf)) {
			return
		}
		fn(kind, buf[headerLen:size])
		buf = buf[size:]
	}
}

// firstPacketIsVorbis checks the identification header of the first page.
func firstPacketIsVorbis(r io.Reader) (bool, error) {
	var page [27]byte
	if _, err := io.ReadFull(r, page[:]); err != nil {
		return false, err
	}
	if string(page[:4]) != "OggS" {
		return false, nil
	}
	segments := int(page[26])
	if _, err := io.CopyN(io.Discard, r, int64(segments)); err != nil {
		return false, err
	}
	var ident [7]byte
	if _, err := io.ReadFull(r, ident[:]); err != nil {
		return false, err
	}
	return bytes.Equal(ident[:], []byte("\x01vorbis")), nil
}
