package audio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
)

// Decoder converts a raw byte stream into mono-mixed float64 samples at
// whatever sample rate the source encodes, reporting that source rate so
// Load can resample to the caller's target. Audio codec decoding beyond the
// WAV case is out of scope per spec.md §1; Decoder is the seam non-WAV
// callers plug into.
type Decoder interface {
	Decode(r io.Reader) (samples []float64, sourceSampleRate int, err error)
}

// decoderFor resolves the built-in decoder for path's extension.
func decoderFor(path string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return WAVDecoder{}, nil
	default:
		return nil, fmt.Errorf("beatsight: no built-in decoder for %q; use LoadWith", filepath.Ext(path))
	}
}

// WAVDecoder decodes PCM WAV using github.com/go-audio/wav, mixing
// multi-channel files to mono by channel averaging per spec.md §4.A.
type WAVDecoder struct{}

func (WAVDecoder) Decode(r io.Reader) ([]float64, int, error) {
	ra, ok := r.(io.ReadSeeker)
	if !ok {
		buffered, err := drainToSeeker(r)
		if err != nil {
			return nil, 0, err
		}
		ra = buffered
	}

	dec := wav.NewDecoder(ra)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, dec.SampleRate, nil
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	maxVal := float64(int(1) << (uint(buf.SourceBitDepth) - 1))
	if buf.SourceBitDepth == 0 {
		maxVal = 32768
	}

	frameCount := len(buf.Data) / channels
	samples := make([]float64, frameCount)
	for i := 0; i < frameCount; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) / maxVal
		}
		samples[i] = sum / float64(channels)
	}
	return samples, buf.Format.SampleRate, nil
}

// drainToSeeker buffers a non-seekable reader fully into memory so the WAV
// decoder (which needs to seek over chunk headers) can operate on it.
func drainToSeeker(r io.Reader) (io.ReadSeeker, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &byteSeeker{data: data}, nil
}

// byteSeeker is a minimal in-memory io.ReadSeeker.
type byteSeeker struct {
	data []byte
	pos  int64
}

func (b *byteSeeker) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += int64(n)
	return n, nil
}

func (b *byteSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = b.pos + offset
	case io.SeekEnd:
		newPos = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("beatsight: invalid seek whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("beatsight: negative seek position")
	}
	b.pos = newPos
	return b.pos, nil
}
