package onset

import (
	"math"

	"github.com/rosacry/beatsight/internal/audio"
)

// Refine implements spec.md §4.D: snap each onset to the local
// maximum-amplitude sample within ±windowMS/2, then enforce strict
// monotonicity by clamping each refined time to at least
// previous_time + min_spacing (95% of the smallest input inter-onset gap)
// and at most the window's right edge.
func Refine(buf *audio.Buffer, onsets []DetectedOnset, windowMS float64) []DetectedOnset {
	if len(onsets) == 0 {
		return nil
	}
	if windowMS <= 0 {
		windowMS = 28
	}

	minSpacing := smallestGap(onsets) * 0.95

	out := make([]DetectedOnset, len(onsets))
	halfWindowSec := (windowMS / 2) / 1000

	prevTime := math.Inf(-1)
	for i, o := range onsets {
		windowStart := o.TimeSeconds - halfWindowSec
		windowEnd := o.TimeSeconds + halfWindowSec

		refinedTime := peakAmplitudeTime(buf, windowStart, windowEnd)

		if !math.IsInf(prevTime, -1) {
			minAllowed := prevTime + minSpacing
			if refinedTime < minAllowed {
				refinedTime = minAllowed
			}
		}
		if refinedTime > windowEnd {
			refinedTime = windowEnd
		}

		refined := o
		refined.TimeSeconds = refinedTime
		out[i] = refined
		prevTime = refinedTime
	}
	return out
}

func smallestGap(onsets []DetectedOnset) float64 {
	if len(onsets) < 2 {
		return 0.05
	}
	smallest := math.Inf(1)
	for i := 1; i < len(onsets); i++ {
		gap := onsets[i].TimeSeconds - onsets[i-1].TimeSeconds
		if gap > 0 && gap < smallest {
			smallest = gap
		}
	}
	if math.IsInf(smallest, 1) {
		return 0.05
	}
	return smallest
}

// peakAmplitudeTime returns the time of the sample with maximum absolute
// amplitude within [windowStart, windowEnd], clamped to the buffer bounds.
// Falls back to the window's midpoint if the window contains no samples.
func peakAmplitudeTime(buf *audio.Buffer, windowStart, windowEnd float64) float64 {
	sr := float64(buf.SampleRate)
	startIdx := int(math.Floor(windowStart * sr))
	endIdx := int(math.Ceil(windowEnd * sr))
	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx >= len(buf.Samples) {
		endIdx = len(buf.Samples) - 1
	}
	if startIdx > endIdx {
		return (windowStart + windowEnd) / 2
	}

	bestIdx := startIdx
	bestAbs := math.Abs(buf.Samples[startIdx])
	for i := startIdx + 1; i <= endIdx; i++ {
		a := math.Abs(buf.Samples[i])
		if a > bestAbs {
			bestAbs = a
			bestIdx = i
		}
	}
	return float64(bestIdx) / sr
}
