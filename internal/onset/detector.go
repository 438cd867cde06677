package onset

import (
	"math"

	"github.com/rosacry/beatsight/internal/audio"
	"github.com/rosacry/beatsight/internal/dsp"
)

// DetectOptions carries the Onset Detector's tunable parameters, defaulted
// per spec.md §4.C.
type DetectOptions struct {
	HopSize            int
	FFTSize            int
	MelBins            int
	Sensitivity        float64 // [0, 100]
	ThresholdWindowSec float64
	TempoHint          *float64
}

// DefaultDetectOptions returns the spec's documented defaults.
func DefaultDetectOptions() DetectOptions {
	return DetectOptions{
		HopSize:            256,
		FFTSize:            2048,
		MelBins:            80,
		Sensitivity:        60,
		ThresholdWindowSec: 0.35,
	}
}

// Detect implements spec.md §4.C: percussive isolation, mel spectral flux,
// adaptive thresholding, tempo estimation, and peak picking. It never fails;
// an unfavorable input simply yields an empty onset list (§4.C "Failure
// mode").
func Detect(buf *audio.Buffer, opts DetectOptions) *DetectionResult {
	if opts.HopSize <= 0 {
		opts.HopSize = 256
	}
	if opts.FFTSize <= 0 {
		opts.FFTSize = 2048
	}
	if opts.MelBins <= 0 {
		opts.MelBins = 80
	}
	if opts.ThresholdWindowSec <= 0 {
		opts.ThresholdWindowSec = 0.35
	}

	sr := buf.SampleRate
	if sr <= 0 || len(buf.Samples) == 0 {
		return emptyResult(opts)
	}

	percussive := dsp.PercussiveStem(buf.Samples, dsp.DefaultHPSSOptions(opts.FFTSize, opts.HopSize, sr))
	preEmphasized := dsp.PreEmphasis(percussive, 0.97)

	stft := dsp.STFT(preEmphasized, opts.FFTSize, opts.HopSize, sr)
	if len(stft.Frames) == 0 {
		return emptyResult(opts)
	}
	power := dsp.PowerSpectrogram(stft.Magnitude())

	fMax := math.Min(float64(sr)/2-100, 14000)
	filters := dsp.MelFilterbank(opts.MelBins, opts.FFTSize, sr, 30, fMax)
	melPower := dsp.MelSpectrogram(power, filters)
	logMel := dsp.LogScale(melPower)

	envelope := dsp.SpectralFlux(logMel)

	frameRate := float64(sr) / float64(opts.HopSize)
	windowFrames := int(math.Round(opts.ThresholdWindowSec * frameRate))
	k := dsp.ThresholdK(opts.Sensitivity)
	threshold := dsp.AdaptiveThreshold(envelope, windowFrames, k)

	tempoCandidates := dsp.EstimateTempoCandidates(envelope, frameRate)
	if opts.TempoHint != nil && *opts.TempoHint > 0 {
		tempoCandidates = append([]float64{*opts.TempoHint}, tempoCandidates...)
	}
	estimatedTempo := tempoCandidates[0]

	minIOISeconds := minInterOnsetInterval(estimatedTempo, opts.Sensitivity)
	minIOIFrames := int(math.Floor(minIOISeconds * frameRate))
	if minIOIFrames < 1 {
		minIOIFrames = 1
	}

	onsets := pickPeaks(envelope, threshold, melPower, minIOIFrames, opts.HopSize, sr)

	return &DetectionResult{
		Onsets:          onsets,
		TempoCandidates: tempoCandidates,
		Envelope:        envelope,
		Threshold:       threshold,
		MinIOISeconds:   minIOISeconds,
		HopSize:         opts.HopSize,
		FFTSize:         opts.FFTSize,
		SampleRate:      sr,
	}
}

// minInterOnsetInterval implements spec.md §4.C's "Minimum inter-onset
// interval" note.
func minInterOnsetInterval(tempoBPM, sensitivity float64) float64 {
	base := dsp.Clamp(60/tempoBPM/4, 0.02, 0.12)
	scaled := base * (1 + (1-dsp.Clamp(sensitivity, 0, 100)/100)*0.6)
	return math.Min(scaled, math.Max(0.084, base))
}

func pickPeaks(envelope, threshold []float64, melPower [][]float64, minIOIFrames, hopSize, sampleRate int) []DetectedOnset {
	var onsets []DetectedOnset
	lastAccepted := -minIOIFrames - 1

	for f := range envelope {
		if envelope[f] <= threshold[f] {
			continue
		}
		if !isLocalMax(envelope, f, 2) {
			continue
		}
		if f-lastAccepted < minIOIFrames {
			continue
		}

		denom := 1 - threshold[f]
		var confidence float64
		if denom > 1e-9 {
			confidence = dsp.Clamp((envelope[f]-threshold[f])/denom, 0, 1)
		} else {
			confidence = 1
		}

		var bands []float64
		if f < len(melPower) {
			bands = append([]float64(nil), melPower[f]...)
		}

		onsets = append(onsets, DetectedOnset{
			TimeSeconds:    float64(f) * float64(hopSize) / float64(sampleRate),
			Confidence:     confidence,
			EnvelopeValue:  envelope[f],
			ThresholdValue: threshold[f],
			FrameIndex:     f,
			BandEnergies:   bands,
		})
		lastAccepted = f
	}
	return onsets
}

// isLocalMax reports whether envelope[f] >= every value within ±radius
// frames (boundary-clamped, matching spec.md §4.C.5).
func isLocalMax(envelope []float64, f, radius int) bool {
	for d := -radius; d <= radius; d++ {
		idx := f + d
		if idx < 0 || idx >= len(envelope) || idx == f {
			continue
		}
		if envelope[idx] > envelope[f] {
			return false
		}
	}
	return true
}

func emptyResult(opts DetectOptions) *DetectionResult {
	return &DetectionResult{
		TempoCandidates: []float64{120},
		HopSize:         opts.HopSize,
		FFTSize:         opts.FFTSize,
	}
}
