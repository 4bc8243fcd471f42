package testsupport

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = 0x42
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WAVBytes encodes a 16-bit PCM WAV stream of silence.
func WAVBytes(sampleRate, channels, frames int) []byte {
	const bits = 16
	blockAlign := channels * bits / 8
	dataSize := frames * blockAlign

	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bits)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	return buf
}

// WriteWAV writes a mono 16-bit PCM file with the given rate and frame count.
func WriteWAV(t testing.TB, path string, sampleRate, frames int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, WAVBytes(sampleRate, 1, frames), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Clip describes one recording in a synthetic Speech Commands tree.
type Clip struct {
	Label      string
	Speaker    string
	Utterance  int
	SampleRate int
	Frames     int
}

// FileName returns the corpus file name, e.g. "0a2b400e_nohash_0.wav".
func (c Clip) FileName() string {
	return fmt.Sprintf("%s_nohash_%d.wav", c.Speaker, c.Utterance)
}

// RelPath returns the label-relative path used by the reference lists.
func (c Clip) RelPath() string {
	return c.Label + "/" + c.FileName()
}

// WriteCorpus lays clips out under extractedDir as <label>/<speaker>_nohash_<n>.wav
// and writes the validation and testing lists (one path per line).
func WriteCorpus(t testing.TB, extractedDir string, clips []Clip, validation, tests []string) {
	t.Helper()

	for _, clip := range clips {
		WriteWAV(t, filepath.Join(extractedDir, clip.Label, clip.FileName()), clip.SampleRate, clip.Frames)
	}
	WriteLines(t, filepath.Join(extractedDir, "validation_list.txt"), validation)
	WriteLines(t, filepath.Join(extractedDir, "testing_list.txt"), tests)
}

// WriteLines writes each entry followed by a newline.
func WriteLines(t testing.TB, path string, lines []string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
