package beatmap

import (
	"math"
	"sort"

	"github.com/rosacry/beatsight/internal/classifier"
	"github.com/rosacry/beatsight/internal/onset"
)

const fallbackFrameSize = 2048
const maxFallbackHits = 2000

// FallbackHit is a synthetic hit produced when no onsets were classified.
type FallbackHit struct {
	TimeSeconds float64
	Component   string
	Confidence  float64
}

// GenerateFallbackPattern implements spec.md §4.F.1: find the drum start
// from per-frame RMS energy, then emit an eighth-note grid pattern (two steps
// per beat, eight steps per measure, at least 120ms per step) to the end of
// the buffer.
func GenerateFallbackPattern(samples []float64, sampleRate int, estimatedTempoBPM float64) []FallbackHit {
	if len(samples) == 0 || sampleRate <= 0 {
		return nil
	}

	drumStart, found := findDrumStart(samples, sampleRate)
	if !found {
		return nil
	}

	durationSec := float64(len(samples)) / float64(sampleRate)
	if drumStart >= durationSec {
		return nil
	}

	stepSec := math.Max(60/estimatedTempoBPM/2, 0.12)

	var hits []FallbackHit
	measureStep := 0
	for t := drumStart; t < durationSec && len(hits) < maxFallbackHits; t += stepSec {
		var component string
		confidence := 0.35

		switch {
		case len(hits) == 0:
			component = "crash"
			confidence = 0.4
		case measureStep == 0 || measureStep == 2:
			component = "kick"
			confidence = 0.35
		case measureStep == 4:
			component = "snare"
			confidence = 0.35
		default:
			component = "hihat_closed"
			confidence = 0.3
		}

		hits = append(hits, FallbackHit{TimeSeconds: t, Component: component, Confidence: confidence})
		measureStep = (measureStep + 1) % 8
	}
	return hits
}

// findDrumStart locates the first frame whose RMS energy exceeds twice the
// 25th-percentile baseline across all frames, per spec.md §4.F.1.
func findDrumStart(samples []float64, sampleRate int) (float64, bool) {
	var frameRMS []float64
	for start := 0; start < len(samples); start += fallbackFrameSize {
		end := start + fallbackFrameSize
		if end > len(samples) {
			end = len(samples)
		}
		sum := 0.0
		for _, s := range samples[start:end] {
			sum += s * s
		}
		frameRMS = append(frameRMS, math.Sqrt(sum/float64(end-start)))
	}
	if len(frameRMS) == 0 {
		return 0, false
	}

	sorted := append([]float64(nil), frameRMS...)
	sort.Float64s(sorted)
	p25Idx := int(0.25 * float64(len(sorted)-1))
	baseline := sorted[p25Idx]
	thresholdEnergy := 2 * baseline

	for i, e := range frameRMS {
		if e > thresholdEnergy {
			return float64(i*fallbackFrameSize) / float64(sampleRate), true
		}
	}
	return 0, false
}

// ToClassifiedHits converts fallback hits into ClassifiedHit records so
// downstream assembly (lanes, quantization) can treat them uniformly with
// real classifications.
func ToClassifiedHits(hits []FallbackHit) []classifier.ClassifiedHit {
	out := make([]classifier.ClassifiedHit, len(hits))
	for i, h := range hits {
		out[i] = classifier.ClassifiedHit{
			DetectedOnset: onset.DetectedOnset{
				TimeSeconds: h.TimeSeconds,
				Confidence:  h.Confidence,
			},
			Component:       h.Component,
			ClassConfidence: h.Confidence,
		}
	}
	return out
}
