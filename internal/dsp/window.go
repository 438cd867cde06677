// Package dsp provides the numeric primitives shared by onset detection and
// classification: framing, windowing, FFT-backed spectrograms, median-filter
// HPSS, adaptive thresholding, and autocorrelation tempo estimation.
package dsp

import "math"

// Hann returns a periodic Hann window of length n, matching the convention
// used by short-time spectral analysis (endpoint excluded so successive
// overlapped frames sum to a smooth envelope).
func Hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// Frame slices samples into overlapping windows of length frameSize, hopped
// by hopSize, zero-padding the final frame as needed so every sample is
// covered by at least one frame.
func Frame(samples []float64, frameSize, hopSize int) [][]float64 {
	if len(samples) == 0 || frameSize <= 0 || hopSize <= 0 {
		return nil
	}
	n := 1 + (len(samples)-1)/hopSize
	if n < 1 {
		n = 1
	}
	frames := make([][]float64, 0, n)
	for start := 0; start < len(samples); start += hopSize {
		frame := make([]float64, frameSize)
		end := start + frameSize
		if end > len(samples) {
			end = len(samples)
		}
		copy(frame, samples[start:end])
		frames = append(frames, frame)
		if end >= len(samples) {
			break
		}
	}
	return frames
}

// PreEmphasis applies a first-order high-pass filter y[n] = x[n] - coeff*x[n-1].
func PreEmphasis(samples []float64, coeff float64) []float64 {
	out := make([]float64, len(samples))
	prev := 0.0
	for i, s := range samples {
		out[i] = s - coeff*prev
		prev = s
	}
	return out
}

// Median returns the median of a float64 slice without mutating the input.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	insertionSort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// insertionSort sorts small slices in place; rolling-window medians in the
// threshold and HPSS code operate on windows of a few dozen elements at
// most, where insertion sort beats the overhead of sort.Float64s.
func insertionSort(values []float64) {
	for i := 1; i < len(values); i++ {
		v := values[i]
		j := i - 1
		for j >= 0 && values[j] > v {
			values[j+1] = values[j]
			j--
		}
		values[j+1] = v
	}
}

// Variance returns the population variance of values.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(values))
}

// Lerp linearly interpolates between a and b at fraction t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp restricts v to the closed interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
