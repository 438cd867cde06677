package dsp

import "math"

// AdaptiveThreshold computes, per frame, a rolling median plus a scaled
// median-absolute-deviation band, per spec.md §4.C.3:
//
//	τ[f] = median_w(envelope) + k · 1.4826 · median_w(|envelope − median_w(envelope)|)
//
// windowFrames is forced odd and at least 7.
func AdaptiveThreshold(envelope []float64, windowFrames int, k float64) []float64 {
	w := forceOdd(windowFrames)
	if w < 7 {
		w = 7
	}
	half := w / 2

	out := make([]float64, len(envelope))
	window := make([]float64, 0, w)
	absDev := make([]float64, 0, w)
	for f := range envelope {
		window = window[:0]
		lo, hi := f-half, f+half
		if lo < 0 {
			lo = 0
		}
		if hi >= len(envelope) {
			hi = len(envelope) - 1
		}
		for i := lo; i <= hi; i++ {
			window = append(window, envelope[i])
		}
		med := Median(window)

		absDev = absDev[:0]
		for _, v := range window {
			absDev = append(absDev, math.Abs(v-med))
		}
		mad := Median(absDev)

		out[f] = med + k*1.4826*mad
	}
	return out
}

// ThresholdK linearly interpolates the threshold scale factor k from
// sensitivity ∈ [0, 100]: k = lerp(2.4, 0.6, sensitivity/100).
func ThresholdK(sensitivity float64) float64 {
	return Lerp(2.4, 0.6, Clamp(sensitivity, 0, 100)/100)
}
