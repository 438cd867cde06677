// Package audio implements the Preprocessor: decoding a source file into a
// normalized mono float buffer and computing its content hash.
package audio

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// ErrEmptyAudio is returned when decoding yields zero samples, per
// spec.md §4.A.
var ErrEmptyAudio = errors.New("beatsight: empty audio buffer")

// Buffer is the pipeline's AudioBuffer: a finite sequence of samples in
// [-1, 1] at a fixed sample rate. Produced once by Load, consumed read-only
// by every downstream component.
type Buffer struct {
	Samples    []float64
	SampleRate int

	SourcePath string
	Hash       string // "sha256:<hex>" of the raw file bytes
}

// DurationMS returns round(len(samples) * 1000 / sampleRate), matching
// spec.md §8 invariant 3.
func (b *Buffer) DurationMS() int64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return int64(math.Round(float64(len(b.Samples)) * 1000 / float64(b.SampleRate)))
}

// Load decodes path at targetSR (default 44100 when 0), mixes to mono,
// peak-normalizes, and hashes the raw file bytes. The decoder used depends
// on the file's registered extension (see decoder.go); callers needing an
// unsupported container must supply their own Decoder via LoadWith.
func Load(path string, targetSR int) (*Buffer, error) {
	if targetSR <= 0 {
		targetSR = 44100
	}
	decoder, err := decoderFor(path)
	if err != nil {
		return nil, err
	}
	return LoadWith(path, targetSR, decoder)
}

// LoadWith decodes path using an explicit Decoder, for callers supplying a
// codec outside the built-in WAV path.
func LoadWith(path string, targetSR int, decoder Decoder) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("beatsight: open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	tee := io.TeeReader(f, hasher)

	samples, sourceSR, err := decoder.Decode(tee)
	if err != nil {
		return nil, fmt.Errorf("beatsight: decode %s: %w", path, err)
	}

	if sourceSR != targetSR && sourceSR > 0 {
		samples = Resample(samples, sourceSR, targetSR)
	}

	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}

	normalize(samples)

	return &Buffer{
		Samples:    samples,
		SampleRate: targetSR,
		SourcePath: path,
		Hash:       "sha256:" + hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// normalize scales samples so the peak absolute amplitude is 1.0, per
// spec.md §4.A ("scale by 1/max(|x|) when the peak exceeds ε; otherwise
// leave zero").
func normalize(samples []float64) {
	const eps = 1e-9
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak <= eps {
		return
	}
	scale := 1.0 / peak
	for i := range samples {
		samples[i] *= scale
	}
}

// Resample performs linear-interpolation resampling, adequate for the test
// fixtures and reference decode path this module owns; production-grade
// resampling is expected to arrive via a custom Decoder when needed.
func Resample(samples []float64, fromSR, toSR int) []float64 {
	if fromSR == toSR || len(samples) == 0 {
		return samples
	}
	ratio := float64(toSR) / float64(fromSR)
	outLen := int(math.Round(float64(len(samples)) * ratio))
	if outLen <= 0 {
		return nil
	}
	out := make([]float64, outLen)
	for i := range out {
		srcPos := float64(i) / ratio
		lo := int(math.Floor(srcPos))
		frac := srcPos - float64(lo)
		hi := lo + 1
		var loVal, hiVal float64
		if lo >= 0 && lo < len(samples) {
			loVal = samples[lo]
		}
		if hi >= 0 && hi < len(samples) {
			hiVal = samples[hi]
		} else {
			hiVal = loVal
		}
		out[i] = loVal + (hiVal-loVal)*frac
	}
	return out
}

// Stem returns the filename without extension, used by the Assembler for
// default beatmap titles.
func Stem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
