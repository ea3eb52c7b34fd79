package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	mkdirFor(t, path)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// FLAC returns a minimal FLAC stream header carrying the given Vorbis
// comments ("KEY=value"). It holds no audio frames, which is enough for
// tag readers and pass-through stub decoders.
func FLAC(comments ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("fLaC")

	// STREAMINFO: 44.1kHz, stereo, 16-bit, zero samples.
	streamInfo := make([]byte, 34)
	binary.BigEndian.PutUint16(streamInfo[0:], 4096)
	binary.BigEndian.PutUint16(streamInfo[2:], 4096)
	packed := uint64(44100)<<44 | uint64(1)<<41 | uint64(15)<<36
	binary.BigEndian.PutUint64(streamInfo[10:], packed)
	writeFLACBlock(&buf, 0, false, streamInfo)

	var vc bytes.Buffer
	vendor := "audioconv test"
	_ = binary.Write(&vc, binary.LittleEndian, uint32(len(vendor)))
	vc.WriteString(vendor)
	_ = binary.Write(&vc, binary.LittleEndian, uint32(len(comments)))
	for _, c := range comments {
		_ = binary.Write(&vc, binary.LittleEndian, uint32(len(c)))
		vc.WriteString(c)
	}
	writeFLACBlock(&buf, 4, true, vc.Bytes())
	return buf.Bytes()
}

func writeFLACBlock(buf *bytes.Buffer, kind byte, last bool, body []byte) {
	if last {
		kind |= 0x80
	}
	size := len(body)
	buf.Write([]byte{kind, byte(size >> 16), byte(size >> 8), byte(size)})
	buf.Write(body)
}

// WriteFLAC writes a FLAC header fixture with comments to path.
func WriteFLAC(t testing.TB, path string, comments ...string) {
	t.Helper()

	mkdirFor(t, path)
	if err := os.WriteFile(path, FLAC(comments...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteWAV writes a 16-bit PCM WAV with frames of a quiet ramp per channel.
func WriteWAV(t testing.TB, path string, sampleRate, channels, frames int) {
	t.Helper()

	mkdirFor(t, path)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	data := make([]int, frames*channels)
	for i := range data {
		data[i] = (i % 64) * 16
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder %s: %v", path, err)
	}
}

func mkdirFor(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
}
