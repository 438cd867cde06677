package beatmap

import (
	"math"
	"sort"

	"github.com/rosacry/beatsight/internal/dsp"
)

// GridDivisors maps a quantization grid name to subdivisions per beat, per
// spec.md §4.F.3.
var GridDivisors = map[string]int{
	"quarter":      1,
	"eighth":       2,
	"triplet":      3,
	"sixteenth":    4,
	"thirtysecond": 8,
}

const DefaultGrid = "sixteenth"

// CandidateTempo is one tempo candidate entering quantization scoring.
type CandidateTempo struct {
	BPM         float64
	IsHint      bool
	SourceIndex int
}

// QuantizeResult is the outcome of snapping times to one candidate's grid.
type QuantizeResult struct {
	BPM         float64
	Offset      float64 // seconds
	Step        float64 // seconds
	Snapped     []float64
	Errors      []float64 // seconds, per input time
	Coverage    float64
	MeanError   float64 // seconds
	MedianError float64 // seconds
}

// quantizeAt computes step/offset/snapped times/coverage for one candidate
// BPM against a fixed grid divisor, per spec.md §4.F.3 steps 1-4.
func quantizeAt(times []float64, bpm float64, divisor int, toleranceSec float64) QuantizeResult {
	step := 60 / bpm / float64(divisor)
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return QuantizeResult{BPM: bpm, Step: 0}
	}
	offset := optimalOffset(times, step)
	return quantizeWithOffset(times, bpm, step, offset, toleranceSec)
}

// quantizeWithOffset snaps times to a grid of the given step/offset (used
// both for scoring candidates and for forced overrides).
func quantizeWithOffset(times []float64, bpm, step, offset, toleranceSec float64) QuantizeResult {
	snapped := make([]float64, len(times))
	errs := make([]float64, len(times))
	within := 0
	for i, t := range times {
		n := math.Round((t - offset) / step)
		s := offset + n*step
		snapped[i] = s
		err := math.Abs(t - s)
		errs[i] = err
		if err <= toleranceSec {
			within++
		}
	}
	coverage := 0.0
	if len(times) > 0 {
		coverage = float64(within) / float64(len(times))
	}
	return QuantizeResult{
		BPM:         bpm,
		Offset:      offset,
		Step:        step,
		Snapped:     snapped,
		Errors:      errs,
		Coverage:    coverage,
		MeanError:   mean(errs),
		MedianError: dsp.Median(errs),
	}
}

// optimalOffset implements spec.md §4.F.3 step 2: prefer the median
// remainder when its variance is tight, otherwise histogram-bin the
// remainders into 32 buckets and take the most populous bucket's left edge.
func optimalOffset(times []float64, step float64) float64 {
	if len(times) == 0 || step <= 0 {
		return 0
	}
	remainders := make([]float64, len(times))
	for i, t := range times {
		r := math.Mod(t, step)
		if r < 0 {
			r += step
		}
		remainders[i] = r
	}
	variance := dsp.Variance(remainders)
	threshold := math.Pow(0.45*step, 2)
	if variance < threshold {
		return dsp.Median(remainders)
	}

	const buckets = 32
	counts := make([]int, buckets)
	bucketWidth := step / buckets
	for _, r := range remainders {
		b := int(r / bucketWidth)
		if b >= buckets {
			b = buckets - 1
		}
		if b < 0 {
			b = 0
		}
		counts[b]++
	}
	best, bestCount := 0, -1
	for b, c := range counts {
		if c > bestCount {
			best, bestCount = b, c
		}
	}
	return float64(best) * bucketWidth
}

// SelectBestQuantization scores each candidate tempo against `times` and
// applies the hint-override policy from spec.md §4.F.3. Returns the chosen
// result and a per-candidate summary list for the debug payload, in ranking
// order (score descending, then mean error, then SourceIndex).
func SelectBestQuantization(times []float64, candidates []CandidateTempo, grid string, maxSnapErrorMs float64) (QuantizeResult, []TempoCandidateSummary) {
	divisor, ok := GridDivisors[grid]
	if !ok {
		divisor = GridDivisors[DefaultGrid]
	}
	toleranceSec := maxSnapErrorMs / 1000

	results := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		r := quantizeAt(times, c.BPM, divisor, toleranceSec)
		score := r.Coverage
		if c.IsHint {
			score += 0.02
		}
		results = append(results, scoredCandidate{result: r, cand: c, score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		if results[i].result.MeanError != results[j].result.MeanError {
			return results[i].result.MeanError < results[j].result.MeanError
		}
		return results[i].cand.SourceIndex < results[j].cand.SourceIndex
	})

	summaries := make([]TempoCandidateSummary, len(results))
	for i, r := range results {
		summaries[i] = TempoCandidateSummary{
			BPM:         r.cand.BPM,
			IsHint:      r.cand.IsHint,
			Coverage:    r.result.Coverage,
			MeanError:   r.result.MeanError * 1000,
			MedianError: r.result.MedianError * 1000,
			Score:       r.score,
		}
	}

	if len(results) == 0 {
		return QuantizeResult{}, summaries
	}

	chosen := results[0]
	if chosen.cand.IsHint {
		bestNonHint := bestNonHintCandidate(results)
		if bestNonHint != nil {
			gap := bestNonHint.result.Coverage - chosen.result.Coverage
			switch {
			case gap > 0.06:
				chosen = *bestNonHint
			case chosen.result.Coverage < 0.45 && gap > 0:
				chosen = *bestNonHint
			case gap > 0.03 && bestNonHint.result.MeanError < chosen.result.MeanError:
				chosen = *bestNonHint
			}
		}
	}

	return chosen.result, summaries
}

// scoredCandidate pairs a quantization result with its source candidate and
// ranking score.
type scoredCandidate struct {
	result QuantizeResult
	cand   CandidateTempo
	score  float64
}

func bestNonHintCandidate(results []scoredCandidate) *scoredCandidate {
	var best *scoredCandidate
	for i := range results {
		if results[i].cand.IsHint {
			continue
		}
		if best == nil || results[i].score > best.score {
			best = &results[i]
		}
	}
	return best
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
