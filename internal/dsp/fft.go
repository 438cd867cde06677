package dsp

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// STFTResult holds a short-time Fourier transform: one complex spectrum per
// frame, each of length fftSize/2+1 (the real-input FFT's non-redundant half).
type STFTResult struct {
	Frames   [][]complex128
	FFTSize  int
	HopSize  int
	SampleRate int
}

// STFT computes the short-time Fourier transform of samples using a Hann
// window, zero-padding frames shorter than fftSize.
func STFT(samples []float64, fftSize, hopSize, sampleRate int) *STFTResult {
	window := Hann(fftSize)
	frames := Frame(samples, fftSize, hopSize)
	fft := fourier.NewFFT(fftSize)

	result := &STFTResult{
		Frames:     make([][]complex128, len(frames)),
		FFTSize:    fftSize,
		HopSize:    hopSize,
		SampleRate: sampleRate,
	}
	for i, frame := range frames {
		windowed := make([]float64, fftSize)
		for j := 0; j < fftSize && j < len(frame); j++ {
			windowed[j] = frame[j] * window[j]
		}
		result.Frames[i] = fft.Coefficients(nil, windowed)
	}
	return result
}

// Magnitude returns the per-frame, per-bin magnitude spectrogram.
func (s *STFTResult) Magnitude() [][]float64 {
	out := make([][]float64, len(s.Frames))
	for i, frame := range s.Frames {
		row := make([]float64, len(frame))
		for j, c := range frame {
			row[j] = cmplx.Abs(c)
		}
		out[i] = row
	}
	return out
}

// ISTFT reconstructs a real signal from a (possibly masked) complex
// spectrogram via overlap-add synthesis with window-squared normalization,
// the standard inverse of an STFT produced with the same window and hop.
// gonum's inverse transform is unnormalized, so each frame is divided by
// fftSize.
func ISTFT(frames [][]complex128, fftSize, hopSize, sampleRate int) []float64 {
	if len(frames) == 0 {
		return nil
	}
	window := Hann(fftSize)
	fft := fourier.NewFFT(fftSize)

	outLen := (len(frames)-1)*hopSize + fftSize
	out := make([]float64, outLen)
	norm := make([]float64, outLen)

	for i, frame := range frames {
		samples := fft.Sequence(nil, frame)
		start := i * hopSize
		for j := 0; j < fftSize; j++ {
			w := window[j]
			out[start+j] += samples[j] / float64(fftSize) * w
			norm[start+j] += w * w
		}
	}
	for i := range out {
		if norm[i] > 1e-8 {
			out[i] /= norm[i]
		}
	}
	return out
}
