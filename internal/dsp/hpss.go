package dsp

import "math"

// HPSSOptions configures median-filter harmonic/percussive source separation.
type HPSSOptions struct {
	FFTSize          int
	HopSize          int
	SampleRate       int
	HarmonicWindow   int // median filter length along the time axis, frames
	PercussiveWindow int // median filter length along the frequency axis, bins
	HarmonicMargin   float64
	PercussiveMargin float64
	Power            float64
}

// DefaultHPSSOptions matches spec.md §4.C.1: margins (1.2, 2.5), power 2.0.
func DefaultHPSSOptions(fftSize, hopSize, sampleRate int) HPSSOptions {
	return HPSSOptions{
		FFTSize:          fftSize,
		HopSize:          hopSize,
		SampleRate:       sampleRate,
		HarmonicWindow:   17,
		PercussiveWindow: 17,
		HarmonicMargin:   1.2,
		PercussiveMargin: 2.5,
		Power:            2.0,
	}
}

// PercussiveStem isolates the percussive component of samples via
// median-filter HPSS: the harmonic enhancement is a median filter along
// time (harmonic energy is steady across time, spread across frequency),
// the percussive enhancement is a median filter along frequency (percussive
// energy is broadband, transient in time). A soft percussive mask built from
// both, with the harmonic enhancement scaled by PercussiveMargin, is applied
// to the complex STFT before overlap-add resynthesis. Only the percussive
// part is returned, so HarmonicMargin does not affect the output.
func PercussiveStem(samples []float64, opts HPSSOptions) []float64 {
	stft := STFT(samples, opts.FFTSize, opts.HopSize, opts.SampleRate)
	if len(stft.Frames) == 0 {
		return nil
	}
	mag := stft.Magnitude()

	harmonicEnh := medianFilterTime(mag, opts.HarmonicWindow)
	percussiveEnh := medianFilterFreq(mag, opts.PercussiveWindow)

	masked := make([][]complex128, len(stft.Frames))
	for t := range stft.Frames {
		row := make([]complex128, len(stft.Frames[t]))
		for f := range row {
			h := math.Pow(harmonicEnh[t][f]*opts.PercussiveMargin, opts.Power)
			p := math.Pow(percussiveEnh[t][f], opts.Power)
			denom := h + p
			maskP := 0.0
			if denom > 1e-12 {
				maskP = p / denom
			}
			row[f] = stft.Frames[t][f] * complex(maskP, 0)
		}
		masked[t] = row
	}

	out := ISTFT(masked, opts.FFTSize, opts.HopSize, opts.SampleRate)
	if len(out) > len(samples) {
		out = out[:len(samples)]
	} else if len(out) < len(samples) {
		padded := make([]float64, len(samples))
		copy(padded, out)
		out = padded
	}
	return out
}

// medianFilterTime applies a 1-D median filter of the given odd length along
// the time axis (down each frequency bin's column).
func medianFilterTime(spec [][]float64, length int) [][]float64 {
	length = forceOdd(length)
	nFrames := len(spec)
	if nFrames == 0 {
		return spec
	}
	nBins := len(spec[0])
	out := make([][]float64, nFrames)
	for t := range out {
		out[t] = make([]float64, nBins)
	}
	half := length / 2
	window := make([]float64, 0, length)
	for b := 0; b < nBins; b++ {
		for t := 0; t < nFrames; t++ {
			window = window[:0]
			for d := -half; d <= half; d++ {
				idx := t + d
				if idx < 0 || idx >= nFrames {
					continue
				}
				window = append(window, spec[idx][b])
			}
			out[t][b] = Median(window)
		}
	}
	return out
}

// medianFilterFreq applies a 1-D median filter of the given odd length along
// the frequency axis (across each time frame's row).
func medianFilterFreq(spec [][]float64, length int) [][]float64 {
	length = forceOdd(length)
	out := make([][]float64, len(spec))
	half := length / 2
	window := make([]float64, 0, length)
	for t, frame := range spec {
		row := make([]float64, len(frame))
		for b := range frame {
			window = window[:0]
			for d := -half; d <= half; d++ {
				idx := b + d
				if idx < 0 || idx >= len(frame) {
					continue
				}
				window = append(window, frame[idx])
			}
			row[b] = Median(window)
		}
		out[t] = row
	}
	return out
}

func forceOdd(n int) int {
	if n < 1 {
		return 1
	}
	if n%2 == 0 {
		return n + 1
	}
	return n
}
