package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Format tags found in the fmt chunk.
const (
	FormatPCM        uint16 = 0x0001
	FormatIEEEFloat  uint16 = 0x0003
	FormatExtensible uint16 = 0xFFFE
)

// ErrNotWAV reports input that is not a RIFF/WAVE stream.
var ErrNotWAV = errors.New("not a RIFF/WAVE file")

// Info holds the stream parameters and length of a WAV file.
type Info struct {
	FormatTag     uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	BlockAlign    uint16
	// Frames is the waveform length: one frame holds one sample per channel.
	Frames int64
}

// Seconds returns the clip length in seconds.
func (i Info) Seconds() float64 {
	if i.SampleRate == 0 {
		return 0
	}
	return float64(i.Frames) / float64(i.SampleRate)
}

// Probe reads the header chunks of r and measures the data chunk. A data chunk
// whose declared size runs past the end of the stream is measured by the bytes
// actually present.
func Probe(r io.ReadSeeker) (Info, error) {
	var info Info

	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return info, ErrNotWAV
		}
		return info, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return info, ErrNotWAV
	}

	var fmtFound bool
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return info, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if err := readFmtChunk(r, size, &info); err != nil {
				return info, err
			}
			fmtFound = true
		case "data":
			if !fmtFound {
				return info, errors.New("data chunk before fmt chunk")
			}
			present, err := remaining(r, int64(size))
			if err != nil {
				return info, err
			}
			info.Frames = present / int64(info.BlockAlign)
			return info, nil
		default:
			// Chunks are word aligned.
			skip := int64(size)
			if size%2 != 0 {
				skip++
			}
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return info, fmt.Errorf("skip chunk %q: %w", id, err)
			}
		}
	}

	if !fmtFound {
		return info, errors.New("missing fmt chunk")
	}
	return info, errors.New("missing data chunk")
}

// ProbeFile opens path and probes it.
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	info, err := Probe(f)
	if err != nil {
		return Info{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return info, nil
}

func readFmtChunk(r io.ReadSeeker, size uint32, info *Info) error {
	if size < 16 {
		return fmt.Errorf("fmt chunk too short (%d bytes)", size)
	}
	var raw [16]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return fmt.Errorf("read fmt chunk: %w", err)
	}
	info.FormatTag = binary.LittleEndian.Uint16(raw[0:2])
	info.Channels = binary.LittleEndian.Uint16(raw[2:4])
	info.SampleRate = binary.LittleEndian.Uint32(raw[4:8])
	// raw[8:12] is the byte rate, derivable from the other fields.
	info.BlockAlign = binary.LittleEndian.Uint16(raw[12:14])
	info.BitsPerSample = binary.LittleEndian.Uint16(raw[14:16])

	if info.Channels == 0 {
		return errors.New("fmt chunk declares zero channels")
	}
	if info.BlockAlign == 0 {
		return errors.New("fmt chunk declares zero block align")
	}

	extra := int64(size) - 16
	if size%2 != 0 {
		extra++
	}
	if extra > 0 {
		if _, err := r.Seek(extra, io.SeekCurrent); err != nil {
			return fmt.Errorf("skip extra fmt bytes: %w", err)
		}
	}
	return nil
}

// remaining returns min(declared, bytes left in r).
func remaining(r io.Seeker, declared int64) (int64, error) {
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("locate data chunk: %w", err)
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("measure data chunk: %w", err)
	}
	if _, err := r.Seek(cur, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind data chunk: %w", err)
	}
	if left := end - cur; left < declared {
		return left, nil
	}
	return declared, nil
}
