package tags

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audioconv/internal/faults"
	"audioconv/internal/testsupport"
)

func TestReadFLACComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.flac")
	testsupport.WriteFLAC(t, path,
		"TITLE=Déjà Vu",
		"ARTIST=Beyonce\u0301",
		"ALBUM=B'Day",
		"ALBUMARTIST=Beyoncé",
		"GENRE=R&B",
		"DATE=2006",
		"TRACKNUMBER=3",
		"TRACKTOTAL=10",
		"DISCNUMBER=1",
		"DISCTOTAL=1",
	)

	fields, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "Déjà Vu", fields.Title)
	assert.Equal(t, "Beyoncé", fields.Artist, "artist should be NFC-normalized")
	assert.Equal(t, "B'Day", fields.Album)
	assert.Equal(t, "Beyoncé", fields.AlbumArtist)
	assert.Equal(t, "R&B", fields.Genre)
	assert.Equal(t, 2006, fields.Year)
	assert.Equal(t, 3, fields.Track)
	assert.Equal(t, 10, fields.TrackTotal)
	assert.Equal(t, 1, fields.Disc)
}

func TestReadUnknownContainerIsTagTransferError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.bin")
	require.NoError(t, os.WriteFile(path, []byte("not audio at all"), 0o644))

	_, err := Read(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrTagTransfer), "got %v", err)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.flac"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrTagTransfer))
}

func TestWriteID3IsReadableByTagReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	audio := []byte{0xff, 0xfb, 0x90, 0x64, 0x00, 0x00, 0x00, 0x00}
	require.NoError(t, os.WriteFile(path, audio, 0o644))

	in := Fields{
		Title:       "Träumerei",
		Artist:      "Clara Haskil",
		Album:       "Kinderszenen",
		AlbumArtist: "Robert Schumann",
		Composer:    "Robert Schumann",
		Track:       7,
		TrackTotal:  13,
		Disc:        1,
		DiscTotal:   2,
	}
	require.NoError(t, WriteID3(path, in))

	out, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, in.Title, out.Title)
	assert.Equal(t, in.Artist, out.Artist)
	assert.Equal(t, in.Album, out.Album)
	assert.Equal(t, in.AlbumArtist, out.AlbumArtist)
	assert.Equal(t, in.Composer, out.Composer)
	assert.Equal(t, 7, out.Track)
	assert.Equal(t, 13, out.TrackTotal)
	assert.Equal(t, 1, out.Disc)
	assert.Equal(t, 2, out.DiscTotal)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(data[:3]))
	assert.Equal(t, audio, data[len(data)-len(audio):], "audio payload must follow the tag untouched")
}

func TestWriteID3ReplacesExistingFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfb, 0x90, 0x64}, 0o644))

	require.NoError(t, WriteID3(path, Fields{Title: "first", Track: 1}))
	require.NoError(t, WriteID3(path, Fields{Title: "second", Track: 2, TrackTotal: 9}))

	out, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "second", out.Title)
	assert.Equal(t, 2, out.Track)
	assert.Equal(t, 9, out.TrackTotal)
}

func TestVorbisComments(t *testing.T) {
	got := VorbisComments(Fields{
		Title:      "Intro",
		Artist:     "Band",
		Year:       1999,
		Track:      1,
		TrackTotal: 12,
	})
	assert.Equal(t, []string{
		"TITLE=Intro",
		"ARTIST=Band",
		"DATE=1999",
		"TRACKNUMBER=1",
		"TRACKTOTAL=12",
	}, got)

	assert.Empty(t, VorbisComments(Fields{}))
}

func TestMergeKeepsExistingValues(t *testing.T) {
	base := Fields{Title: "Track 2", Track: 2}
	merged := base.Merge(Fields{Title: "ignored", Album: "Live", Track: 9, TrackTotal: 4})

	assert.Equal(t, "Track 2", merged.Title)
	assert.Equal(t, "Live", merged.Album)
	assert.Equal(t, 2, merged.Track)
	assert.Equal(t, 4, merged.TrackTotal)
	assert.False(t, merged.Empty())
	assert.True(t, Fields{}.Empty())
}
