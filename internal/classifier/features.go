package classifier

import (
	"math"

	"github.com/rosacry/beatsight/internal/audio"
	"github.com/rosacry/beatsight/internal/dsp"
)

const (
	featureFFTSize = 1024
	featureHop     = 256
)

// windowFeatures holds the four scalar features the heuristic backend rules
// in spec.md §4.E.1 operate on.
type windowFeatures struct {
	centroid float64
	rolloff  float64
	zcr      float64
	rms      float64
}

// extractFeatures computes mean spectral centroid, mean spectral rolloff,
// mean zero-crossing rate, and mean RMS over a window starting preMS before
// onsetTimeSeconds and ending windowMS after it (125ms total at the default
// 100ms window / 25ms pre-roll), per spec.md §4.E.1.
func extractFeatures(buf *audio.Buffer, onsetTimeSeconds, windowMS, preMS float64) windowFeatures {
	sr := buf.SampleRate
	startSec := onsetTimeSeconds - preMS/1000
	endSec := onsetTimeSeconds + windowMS/1000

	startIdx := int(math.Floor(startSec * float64(sr)))
	endIdx := int(math.Ceil(endSec * float64(sr)))
	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > len(buf.Samples) {
		endIdx = len(buf.Samples)
	}
	if startIdx >= endIdx {
		return windowFeatures{}
	}
	segment := buf.Samples[startIdx:endIdx]

	rms := rootMeanSquare(segment)
	zcr := zeroCrossingRate(segment)

	stft := dsp.STFT(segment, featureFFTSize, featureHop, sr)
	mags := stft.Magnitude()
	if len(mags) == 0 {
		return windowFeatures{rms: rms, zcr: zcr}
	}

	var centroidSum, rolloffSum float64
	for _, frame := range mags {
		centroidSum += spectralCentroid(frame, sr, featureFFTSize)
		rolloffSum += spectralRolloff(frame, sr, featureFFTSize, 0.85)
	}

	return windowFeatures{
		centroid: centroidSum / float64(len(mags)),
		rolloff:  rolloffSum / float64(len(mags)),
		zcr:      zcr,
		rms:      rms,
	}
}

func rootMeanSquare(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

func spectralCentroid(magnitude []float64, sampleRate, fftSize int) float64 {
	var weighted, total float64
	for b, m := range magnitude {
		freq := float64(b) * float64(sampleRate) / float64(fftSize)
		weighted += freq * m
		total += m
	}
	if total <= 1e-12 {
		return 0
	}
	return weighted / total
}

func spectralRolloff(magnitude []float64, sampleRate, fftSize int, fraction float64) float64 {
	total := 0.0
	for _, m := range magnitude {
		total += m
	}
	if total <= 1e-12 {
		return 0
	}
	target := total * fraction
	cumulative := 0.0
	for b, m := range magnitude {
		cumulative += m
		if cumulative >= target {
			return float64(b) * float64(sampleRate) / float64(fftSize)
		}
	}
	return float64(len(magnitude)-1) * float64(sampleRate) / float64(fftSize)
}
