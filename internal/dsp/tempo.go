package dsp

import "sort"

// tempoPeak is an internal candidate before harmonic expansion.
type tempoPeak struct {
	bpm   float64
	score float64
}

// EstimateTempoCandidates runs autocorrelation-based tempo estimation over
// the onset envelope, per spec.md §4.C.4. frameRate is frames per second
// (sampleRate / hopSize). Returns up to four unique base tempos ≥ 60 BPM,
// each expanded with its 0.5x/2.0x harmonic (kept only within [50, 260]),
// deduplicated within 0.5 BPM, falling back to [120] when nothing qualifies.
// The first element is the estimated tempo.
func EstimateTempoCandidates(envelope []float64, frameRate float64) []float64 {
	if frameRate <= 0 || len(envelope) < 4 {
		return []float64{120}
	}

	const minBPM, maxBPM = 60.0, 260.0
	var peaks []tempoPeak
	for bpm := minBPM; bpm <= maxBPM; bpm += 1.0 {
		lag := int(60.0 * frameRate / bpm)
		if lag < 1 || lag >= len(envelope) {
			continue
		}
		score := autocorrAt(envelope, lag)
		peaks = append(peaks, tempoPeak{bpm: bpm, score: score})
	}
	if len(peaks) == 0 {
		return []float64{120}
	}

	localMaxima := make([]tempoPeak, 0, len(peaks))
	for i, p := range peaks {
		isMax := true
		if i > 0 && peaks[i-1].score > p.score {
			isMax = false
		}
		if i < len(peaks)-1 && peaks[i+1].score > p.score {
			isMax = false
		}
		if isMax && p.score > 0 {
			localMaxima = append(localMaxima, p)
		}
	}
	if len(localMaxima) == 0 {
		localMaxima = peaks
	}

	sort.Slice(localMaxima, func(i, j int) bool {
		return localMaxima[i].score > localMaxima[j].score
	})

	base := make([]float64, 0, 4)
	for _, p := range localMaxima {
		if len(base) >= 4 {
			break
		}
		if !withinTolerance(base, p.bpm, 0.5) {
			base = append(base, p.bpm)
		}
	}
	if len(base) == 0 {
		return []float64{120}
	}

	candidates := make([]float64, 0, len(base)*3)
	for _, bpm := range base {
		candidates = append(candidates, bpm)
		for _, harmonic := range []float64{bpm * 0.5, bpm * 2.0} {
			if harmonic >= 50 && harmonic <= 260 {
				candidates = append(candidates, harmonic)
			}
		}
	}

	deduped := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		if !withinTolerance(deduped, c, 0.5) {
			deduped = append(deduped, c)
		}
	}
	if len(deduped) == 0 {
		return []float64{120}
	}
	return deduped
}

func withinTolerance(existing []float64, v, tol float64) bool {
	for _, e := range existing {
		d := e - v
		if d < 0 {
			d = -d
		}
		if d <= tol {
			return true
		}
	}
	return false
}

func autocorrAt(envelope []float64, lag int) float64 {
	sum := 0.0
	n := len(envelope) - lag
	if n <= 0 {
		return 0
	}
	for i := 0; i < n; i++ {
		sum += envelope[i] * envelope[i+lag]
	}
	return sum / float64(n)
}
