package dsp

import "math"

// hzToMel and melToHz use the HTK-style mel scale (2595·log10(1 + f/700)).
func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// MelFilterbank builds nMels triangular filters spanning [fMin, fMax] Hz over
// fftSize/2+1 linear frequency bins at sampleRate.
func MelFilterbank(nMels, fftSize, sampleRate int, fMin, fMax float64) [][]float64 {
	nBins := fftSize/2 + 1
	melMin := hzToMel(fMin)
	melMax := hzToMel(fMax)

	points := make([]float64, nMels+2)
	for i := range points {
		points[i] = melToHz(melMin + (melMax-melMin)*float64(i)/float64(nMels+1))
	}
	binFreq := func(bin int) float64 {
		return float64(bin) * float64(sampleRate) / float64(fftSize)
	}

	filters := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		lo, center, hi := points[m], points[m+1], points[m+2]
		filter := make([]float64, nBins)
		for b := 0; b < nBins; b++ {
			f := binFreq(b)
			switch {
			case f < lo || f > hi:
				filter[b] = 0
			case f <= center:
				if center > lo {
					filter[b] = (f - lo) / (center - lo)
				}
			default:
				if hi > center {
					filter[b] = (hi - f) / (hi - center)
				}
			}
		}
		filters[m] = filter
	}
	return filters
}

// MelSpectrogram projects a power (magnitude-squared) spectrogram through a
// mel filterbank, returning frames x nMels.
func MelSpectrogram(powerSpec [][]float64, filters [][]float64) [][]float64 {
	out := make([][]float64, len(powerSpec))
	for t, frame := range powerSpec {
		row := make([]float64, len(filters))
		for m, filt := range filters {
			sum := 0.0
			for b, weight := range filt {
				if weight == 0 || b >= len(frame) {
					continue
				}
				sum += weight * frame[b]
			}
			row[m] = sum
		}
		out[t] = row
	}
	return out
}

// PowerSpectrogram squares a magnitude spectrogram in place semantics
// (returns a new slice).
func PowerSpectrogram(magnitude [][]float64) [][]float64 {
	out := make([][]float64, len(magnitude))
	for t, frame := range magnitude {
		row := make([]float64, len(frame))
		for b, v := range frame {
			row[b] = v * v
		}
		out[t] = row
	}
	return out
}

// LogScale converts a power mel spectrogram to dB relative to its global
// maximum, matching librosa's power_to_db(ref=np.max) convention with a
// floor of -80 dB.
func LogScale(mel [][]float64) [][]float64 {
	const floorDB = -80.0
	maxVal := 1e-10
	for _, row := range mel {
		for _, v := range row {
			if v > maxVal {
				maxVal = v
			}
		}
	}
	out := make([][]float64, len(mel))
	for t, row := range mel {
		dbRow := make([]float64, len(row))
		for m, v := range row {
			db := 10 * math.Log10(math.Max(v, 1e-10)/maxVal)
			if db < floorDB {
				db = floorDB
			}
			dbRow[m] = db
		}
		out[t] = dbRow
	}
	return out
}

// SpectralFlux computes the onset envelope: the positive part of the
// frame-wise first difference of a (log-power mel) spectrogram, summed
// across bins, padded with a leading zero, and peak-normalized to 1.0.
func SpectralFlux(logMel [][]float64) []float64 {
	envelope := make([]float64, len(logMel))
	for t := 1; t < len(logMel); t++ {
		sum := 0.0
		for m := range logMel[t] {
			d := logMel[t][m] - logMel[t-1][m]
			if d > 0 {
				sum += d
			}
		}
		envelope[t] = sum
	}
	if len(envelope) > 0 {
		envelope[0] = 0
	}
	peak := 0.0
	for _, v := range envelope {
		if v > peak {
			peak = v
		}
	}
	if peak > 1e-10 {
		for i := range envelope {
			envelope[i] /= peak
		}
	}
	return envelope
}
