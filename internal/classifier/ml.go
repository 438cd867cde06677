package classifier

import (
	"fmt"
	"os"

	"github.com/rosacry/beatsight/internal/audio"
	"github.com/rosacry/beatsight/internal/dsp"
)

// fineTaxonomy is the 24-class label set the ML backend emits, per
// spec.md §4.E.2; labels collapse onto the coarse taxonomy by prefix match
// (see Glossary, "Component taxonomy").
var fineTaxonomy = []string{
	"kick", "kick_sub",
	"snare", "snare_rim", "snare_ghost", "snare_brush",
	"hihat_closed", "hihat_open", "hihat_pedal",
	"tom_high", "tom_mid", "tom_low", "tom_floor",
	"ride", "ride_bell",
	"crash_1", "crash_2",
	"china", "splash",
	"cowbell", "tambourine", "shaker", "clap", "unknown",
}

// ModelRunner abstracts inference over a loaded model artifact. Its file
// format is out of scope per spec.md §4.E.2 ("must be loadable
// deterministically from a path"); the shipped implementation below always
// fails to load, giving the ModelUnavailable fallback path (spec.md §7) a
// real, exercised trigger without fabricating a trained weights format.
type ModelRunner interface {
	// Infer returns a softmax distribution over fineTaxonomy for a
	// 128x128 normalized log-mel spectrogram window.
	Infer(melWindow [][]float64) (probs []float64, err error)
}

// ML is the Classifier backend wrapping a loaded ModelRunner, per
// spec.md §4.E.2.
type ML struct {
	Runner    ModelRunner
	ModelPath string
}

var _ Backend = (*ML)(nil)

// LoadML attempts to construct an ML backend from modelPath. It returns
// ErrModelUnavailable when the path is empty or unreadable, matching
// spec.md §4.E's selection-order step 2 ("a model file is available").
func LoadML(modelPath string) (*ML, error) {
	if modelPath == "" {
		return nil, ErrModelUnavailable
	}
	info, err := os.Stat(modelPath)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrModelUnavailable, modelPath)
	}
	runner, err := newFileModelRunner(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelUnavailable, err)
	}
	return &ML{Runner: runner, ModelPath: modelPath}, nil
}

func (m *ML) Classify(buf *audio.Buffer, onsetTimeSeconds, windowMS float64) (string, float64) {
	melWindow := logMelWindow(buf, onsetTimeSeconds, 128, 128)
	probs, err := m.Runner.Infer(melWindow)
	if err != nil || len(probs) == 0 {
		return "unknown", 0.30
	}

	bestIdx, bestProb := 0, probs[0]
	for i, p := range probs {
		if p > bestProb {
			bestIdx, bestProb = i, p
		}
	}
	label := "unknown"
	if bestIdx < len(fineTaxonomy) {
		label = fineTaxonomy[bestIdx]
	}
	return CollapseTaxonomy(label), bestProb
}

// CollapseTaxonomy maps a fine-grained ML label onto the coarse taxonomy by
// prefix match, per the Glossary entry "Component taxonomy".
func CollapseTaxonomy(fine string) string {
	coarse := []string{
		"kick", "snare", "hihat_closed", "hihat_open", "hihat_pedal",
		"tom_high", "tom_mid", "tom_low", "ride", "crash", "china",
		"splash", "cowbell", "tambourine", "shaker", "clap", "unknown",
	}
	for _, c := range coarse {
		if len(fine) >= len(c) && fine[:len(c)] == c {
			return c
		}
	}
	return "unknown"
}

// logMelWindow computes a 128x128 log-mel spectrogram of the onset window,
// min-max scaled to [0, 1] and reshaped by simple resampling, per
// spec.md §4.E.2's input normalization.
func logMelWindow(buf *audio.Buffer, onsetTimeSeconds float64, height, width int) [][]float64 {
	windowMS := 100.0
	startSec := onsetTimeSeconds - 0.025
	endSec := startSec + windowMS/1000
	sr := buf.SampleRate

	startIdx := int(startSec * float64(sr))
	endIdx := int(endSec * float64(sr))
	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > len(buf.Samples) {
		endIdx = len(buf.Samples)
	}
	if startIdx >= endIdx {
		return emptyGrid(height, width)
	}
	segment := buf.Samples[startIdx:endIdx]

	stft := dsp.STFT(segment, featureFFTSize, featureHop, sr)
	filters := dsp.MelFilterbank(height, featureFFTSize, sr, 0, float64(sr)/2)
	logMel := dsp.LogScale(dsp.MelSpectrogram(dsp.PowerSpectrogram(stft.Magnitude()), filters))
	values := make([]float64, 0, len(logMel)*height)
	for _, row := range logMel {
		values = append(values, row...)
	}

	grid := make([][]float64, height)
	for i := range grid {
		grid[i] = make([]float64, width)
	}
	if len(values) == 0 {
		return grid
	}

	minV, maxV := values[0], values[0]
	for _, s := range values {
		if s < minV {
			minV = s
		}
		if s > maxV {
			maxV = s
		}
	}
	span := maxV - minV
	for i := 0; i < height; i++ {
		for j := 0; j < width; j++ {
			idx := (i*width + j) * len(values) / (height * width)
			if idx >= len(values) {
				idx = len(values) - 1
			}
			v := values[idx]
			if span > 1e-9 {
				grid[i][j] = (v - minV) / span
			}
		}
	}
	return grid
}

func emptyGrid(h, w int) [][]float64 {
	grid := make([][]float64, h)
	for i := range grid {
		grid[i] = make([]float64, w)
	}
	return grid
}

// newFileModelRunner is the default ModelRunner constructor: it never
// successfully loads, because the trained-artifact format is explicitly out
// of scope (spec.md §4.E.2). Any bytes found at the path fail schema
// validation, which is the honest behavior for a format this repository
// doesn't define.
func newFileModelRunner(path string) (ModelRunner, error) {
	return nil, fmt.Errorf("model artifact format not implemented: %s", path)
}
