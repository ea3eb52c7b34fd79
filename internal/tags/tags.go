// Package tags copies descriptive metadata from a source file onto a
// converted output.
//
// Reading goes through github.com/dhowden/tag, which understands ID3, MP4
// atoms, FLAC and Ogg Vorbis comments. MP3 outputs are tagged in place with
// ID3v2.4 frames. Ogg outputs receive their comments on the oggenc command
// line, so VorbisComments is the only writer they need.
package tags

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"golang.org/x/text/unicode/norm"

	"audioconv/internal/faults"
)

// Fields is the set of tags carried across a conversion.
type Fields struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Composer    string
	Genre       string
	Comment     string
	Year        int
	Track       int
	TrackTotal  int
	Disc        int
	DiscTotal   int
}

// Empty reports whether no field is set.
func (f Fields) Empty() bool {
	return f == Fields{}
}

// Merge fills every unset field in f from other.
func (f Fields) Merge(other Fields) Fields {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fillInt := func(dst *int, src int) {
		if *dst == 0 {
			*dst = src
		}
	}
	fill(&f.Title, other.Title)
	fill(&f.Artist, other.Artist)
	fill(&f.Album, other.Album)
	fill(&f.AlbumArtist, other.AlbumArtist)
	fill(&f.Composer, other.Composer)
	fill(&f.Genre, other.Genre)
	fill(&f.Comment, other.Comment)
	fillInt(&f.Year, other.Year)
	fillInt(&f.Track, other.Track)
	fillInt(&f.TrackTotal, other.TrackTotal)
	fillInt(&f.Disc, other.Disc)
	fillInt(&f.DiscTotal, other.DiscTotal)
	return f
}

// Read extracts Fields from the file at path. Text is NFC-normalized.
func Read(path string) (Fields, error) {
	file, err := os.Open(path)
	if err != nil {
		return Fields{}, faults.Wrap(faults.ErrTagTransfer, faults.StageTags, "read", path, err)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return Fields{}, faults.Wrap(faults.ErrTagTransfer, faults.StageTags, "read", path, err)
	}
	return FromMetadata(meta), nil
}

// FromMetadata maps dhowden/tag metadata onto Fields.
func FromMetadata(meta tag.Metadata) Fields {
	track, trackTotal := meta.Track()
	disc, discTotal := meta.Disc()
	return Fields{
		Title:       clean(meta.Title()),
		Artist:      clean(meta.Artist()),
		Album:       clean(meta.Album()),
		AlbumArtist: clean(meta.AlbumArtist()),
		Composer:    clean(meta.Composer()),
		Genre:       clean(meta.Genre()),
		Comment:     clean(meta.Comment()),
		Year:        meta.Year(),
		Track:       track,
		TrackTotal:  trackTotal,
		Disc:        disc,
		DiscTotal:   discTotal,
	}
}

func clean(value string) string {
	value = strings.TrimRight(value, "\x00")
	return norm.NFC.String(strings.TrimSpace(value))
}

// VorbisComments renders f as KEY=value pairs for oggenc -c.
func VorbisComments(f Fields) []string {
	var out []string
	add := func(key, value string) {
		if value != "" {
			out = append(out, key+"="+value)
		}
	}
	addInt := func(key string, value int) {
		if value > 0 {
			out = append(out, key+"="+strconv.Itoa(value))
		}
	}
	add("TITLE", f.Title)
	add("ARTIST", f.Artist)
	add("ALBUM", f.Album)
	add("ALBUMARTIST", f.AlbumArtist)
	add("COMPOSER", f.Composer)
	add("GENRE", f.Genre)
	addInt("DATE", f.Year)
	addInt("TRACKNUMBER", f.Track)
	addInt("TRACKTOTAL", f.TrackTotal)
	addInt("DISCNUMBER", f.Disc)
	addInt("DISCTOTAL", f.DiscTotal)
	add("COMMENT", f.Comment)
	return out
}

// WriteID3 stores f in an ID3v2.4 tag at the head of the MP3 at path.
// Existing frames for the same fields are replaced.
func WriteID3(path string, f Fields) error {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return faults.Wrap(faults.ErrTagTransfer, faults.StageTags, "open mp3", path, err)
	}
	defer t.Close()

	t.SetVersion(4)
	t.SetDefaultEncoding(id3v2.EncodingUTF8)

	if f.Title != "" {
		t.SetTitle(f.Title)
	}
	if f.Artist != "" {
		t.SetArtist(f.Artist)
	}
	if f.Album != "" {
		t.SetAlbum(f.Album)
	}
	if f.Genre != "" {
		t.SetGenre(f.Genre)
	}
	if f.Year > 0 {
		t.SetYear(strconv.Itoa(f.Year))
	}
	setText := func(id, value string) {
		if value == "" {
			return
		}
		t.DeleteFrames(id)
		t.AddTextFrame(id, id3v2.EncodingUTF8, value)
	}
	setText("TPE2", f.AlbumArtist)
	setText(t.CommonID("Composer"), f.Composer)
	setText(t.CommonID("Track number/Position in set"), position(f.Track, f.TrackTotal))
	setText(t.CommonID("Part of a set"), position(f.Disc, f.DiscTotal))
	if f.Comment != "" {
		t.DeleteFrames(t.CommonID("Comments"))
		t.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Text:     f.Comment,
		})
	}

	if err := t.Save(); err != nil {
		return faults.Wrap(faults.ErrTagTransfer, faults.StageTags, "save mp3", path, err)
	}
	return nil
}

func position(n, total int) string {
	switch {
	case n <= 0:
		return ""
	case total > 0:
		return fmt.Sprintf("%d/%d", n, total)
	default:
		return strconv.Itoa(n)
	}
}
