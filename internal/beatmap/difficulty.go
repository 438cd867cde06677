package beatmap

import "math"

// Difficulty implements the scoring formula from spec.md §4.F.4.
func Difficulty(times []float64, components []string) float64 {
	if len(times) == 0 {
		return 0
	}

	duration := times[len(times)-1] - times[0]
	density := 0.0
	if duration > 0 {
		density = float64(len(times)) / duration
	}

	uniqueSet := map[string]struct{}{}
	for _, c := range components {
		uniqueSet[c] = struct{}{}
	}
	uniqueComponents := len(uniqueSet)

	speedFactor := 0.0
	if len(times) > 1 {
		diffs := make([]float64, len(times)-1)
		for i := 1; i < len(times); i++ {
			diffs[i-1] = times[i] - times[i-1]
		}
		speedFactor = math.Max(0, 1-mean(diffs))
	}

	score := math.Min(density*2, 4) +
		math.Min(float64(uniqueComponents)*0.5, 3) +
		math.Min(speedFactor*5, 3)

	return math.Min(10, score)
}
