package beatmap

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rosacry/beatsight/internal/audio"
	"github.com/rosacry/beatsight/internal/classifier"
	"github.com/rosacry/beatsight/internal/metadata"
	"github.com/rosacry/beatsight/internal/onset"
)

// ForcedOverrides lets a caller pin bpm/offset/step and force quantization
// regardless of coverage, per spec.md §4.F.3's "Override controls".
type ForcedOverrides struct {
	BPM               *float64
	OffsetMS          *float64
	StepMS            *float64
	ForceQuantization bool
}

// AssembleOptions bundles every knob spec.md §6 exposes that reaches the
// Assembler.
type AssembleOptions struct {
	Grid              string
	MaxSnapErrorMS    float64
	TempoCandidates   []float64 // detection-derived, ordered by confidence
	TempoHints        []float64 // externally supplied, ordered first
	Forced            ForcedOverrides
	Metadata          metadata.Metadata
	ClassifierMode    string
	ClassifierWarning string
}

// Assemble builds the Beatmap and DebugPayload from classified hits (or, if
// empty, a synthetic fallback pattern), per spec.md §4.F.
func Assemble(buf *audio.Buffer, detection *onset.DetectionResult, hits []classifier.ClassifiedHit, opts AssembleOptions) (Beatmap, DebugPayload) {
	usedFallback := false
	if len(hits) == 0 {
		fallbackHits := GenerateFallbackPattern(buf.Samples, buf.SampleRate, estimatedTempo(detection))
		hits = ToClassifiedHits(fallbackHits)
		usedFallback = true
	}

	times := make([]float64, len(hits))
	components := make([]string, len(hits))
	for i, h := range hits {
		times[i] = h.TimeSeconds
		components[i] = NormalizeComponent(h.Component)
	}

	lanes, laneStats := AssignLanes(hits)

	grid := opts.Grid
	if grid == "" {
		grid = DefaultGrid
	}
	maxSnapErrorMS := opts.MaxSnapErrorMS
	if maxSnapErrorMS <= 0 {
		maxSnapErrorMS = 12
	}

	candidates := buildCandidates(opts.TempoHints, opts.TempoCandidates)
	quant, summaries := SelectBestQuantization(times, candidates, grid, maxSnapErrorMS)

	forcedOverrides := map[string]float64{}
	quant, forcedApplied := applyForcedOverrides(times, quant, grid, maxSnapErrorMS, opts.Forced)
	if opts.Forced.BPM != nil {
		forcedOverrides["bpm"] = *opts.Forced.BPM
	}
	if opts.Forced.OffsetMS != nil {
		forcedOverrides["offset"] = *opts.Forced.OffsetMS
	}
	if opts.Forced.StepMS != nil {
		forcedOverrides["step"] = *opts.Forced.StepMS
	}

	finalTimes, quantErrors := applySnapping(times, quant, maxSnapErrorMS, forcedApplied)

	hitObjects := buildHitObjects(hits, components, lanes, finalTimes, quantErrors, usedFallback)

	difficulty := Difficulty(finalTimes, components)

	now := currentTime()
	meta := buildMetadata(buf, opts.Metadata, difficulty, now)

	bm := Beatmap{
		Version:  "1.0.0",
		Metadata: meta,
		Audio: AudioBlock{
			Filename:   audio.Stem(buf.SourcePath) + extOf(buf.SourcePath),
			Hash:       buf.Hash,
			DurationMS: buf.DurationMS(),
			SampleRate: buf.SampleRate,
		},
		Timing: Timing{
			BPM:           math.Round(quant.BPM*100) / 100,
			OffsetMS:      int64(math.Round(quant.Offset * 1000)),
			TimeSignature: "4/4",
		},
		DrumKit: DrumKit{
			Components: uniqueSorted(components),
			Layout:     "standard_5piece",
		},
		HitObjects: hitObjects,
		Editor: Editor{
			SnapDivisor: GridDivisors[grid],
			VisualLanes: 7,
			AIGenerationMetadata: map[string]any{
				"generator":      "BeatSight AI",
				"usedFallback":   usedFallback,
				"classifierMode": opts.ClassifierMode,
			},
		},
	}

	sectionDensities := sectionDensities(finalTimes, quant.BPM)

	var envelope, threshold []float64
	if detection != nil {
		envelope, threshold = detection.Envelope, detection.Threshold
	}

	debug := DebugPayload{
		Beatmap:            bm,
		Envelope:           envelope,
		Threshold:          threshold,
		TempoCandidates:    summaries,
		SectionDensities:   sectionDensities,
		LaneSwitchCounts:   laneStats.SwitchCounts,
		QuantizationGrid:   grid,
		QuantizationErrors: quantErrors,
		ForcedOverrides:    forcedOverrides,
		UsedFallback:       usedFallback,
		ClassifierMode:     opts.ClassifierMode,
		ClassifierWarning:  opts.ClassifierWarning,
	}

	return bm, debug
}

func estimatedTempo(detection *onset.DetectionResult) float64 {
	if detection == nil {
		return 120
	}
	return detection.EstimatedTempo()
}

func buildCandidates(hints, detected []float64) []CandidateTempo {
	candidates := make([]CandidateTempo, 0, len(hints)+len(detected))
	idx := 0
	for _, h := range hints {
		candidates = append(candidates, CandidateTempo{BPM: h, IsHint: true, SourceIndex: idx})
		idx++
	}
	for _, d := range detected {
		candidates = append(candidates, CandidateTempo{BPM: d, IsHint: false, SourceIndex: idx})
		idx++
	}
	if len(candidates) == 0 {
		candidates = append(candidates, CandidateTempo{BPM: 120, IsHint: false, SourceIndex: 0})
	}
	return candidates
}

// applyForcedOverrides implements spec.md §4.F.3's "Override controls":
// forcing bpm recomputes the optimal offset; forcing step recomputes the
// optimal offset unless offset is also forced.
func applyForcedOverrides(times []float64, quant QuantizeResult, grid string, maxSnapErrorMS float64, forced ForcedOverrides) (QuantizeResult, bool) {
	if forced.BPM == nil && forced.OffsetMS == nil && forced.StepMS == nil {
		return quant, forced.ForceQuantization
	}

	toleranceSec := maxSnapErrorMS / 1000
	divisor, ok := GridDivisors[grid]
	if !ok {
		divisor = GridDivisors[DefaultGrid]
	}

	bpm := quant.BPM
	if forced.BPM != nil {
		bpm = *forced.BPM
	}
	step := 60 / bpm / float64(divisor)
	if forced.StepMS != nil {
		step = *forced.StepMS / 1000
	}
	if step <= 0 {
		// QuantizationDegenerate recovery per spec.md §7: fall back to
		// 60/bpm/divisor from raw defaults.
		step = 60 / bpm / float64(GridDivisors[DefaultGrid])
	}

	var offset float64
	if forced.OffsetMS != nil {
		offset = *forced.OffsetMS / 1000
	} else {
		offset = optimalOffset(times, step)
	}

	return quantizeWithOffset(times, bpm, step, offset, toleranceSec), forced.ForceQuantization
}

// applySnapping replaces a hit's time with its snapped time only when the
// error is within tolerance, unless force is set (spec.md §4.F.3); others
// keep their original time but still report quantization_error.
func applySnapping(times []float64, quant QuantizeResult, maxSnapErrorMS float64, force bool) ([]float64, []float64) {
	toleranceSec := maxSnapErrorMS / 1000
	out := make([]float64, len(times))
	errs := make([]float64, len(times))
	for i, t := range times {
		if i >= len(quant.Snapped) {
			out[i] = t
			continue
		}
		errs[i] = quant.Errors[i]
		if force || quant.Errors[i] <= toleranceSec {
			out[i] = quant.Snapped[i]
		} else {
			out[i] = t
		}
	}
	return out, errs
}

func buildHitObjects(hits []classifier.ClassifiedHit, components []string, lanes []uint8, times, quantErrors []float64, usedFallback bool) []HitObject {
	objects := make([]HitObject, len(hits))
	for i := range hits {
		objects[i] = HitObject{
			TimeMS:    int64(math.Round(times[i] * 1000)),
			Component: components[i],
			Velocity:  0.8,
			Lane:      lanes[i],
			Fallback:  usedFallback,
			QuantErr:  quantErrors[i] * 1000,
		}
	}
	sortHitObjects(objects)
	return objects
}

func sortHitObjects(objects []HitObject) {
	for i := 1; i < len(objects); i++ {
		for j := i; j > 0 && objects[j].TimeMS < objects[j-1].TimeMS; j-- {
			objects[j], objects[j-1] = objects[j-1], objects[j]
		}
	}
}

func buildMetadata(buf *audio.Buffer, provided metadata.Metadata, difficulty float64, now time.Time) Metadata {
	merged := map[string]any{}
	provided.MergeInto(merged)

	title, _ := merged["title"].(string)
	if title == "" {
		title = audio.Stem(buf.SourcePath)
	}
	artist, _ := merged["artist"].(string)

	tags := []string{"ai-generated"}
	if rawTags, ok := merged["tags"].([]string); ok && len(rawTags) > 0 {
		tags = append(tags, "metadata:detected")
		_ = rawTags
	}

	description, _ := merged["description"].(string)

	return Metadata{
		Title:       title,
		Artist:      artist,
		Creator:     "BeatSight AI",
		Tags:        tags,
		Difficulty:  difficulty,
		PreviewTime: 0,
		BeatmapID:   uuid.NewString(),
		CreatedAt:   now,
		ModifiedAt:  now,
		Description: description,
	}
}

func uniqueSorted(components []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range components {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// sectionDensities buckets hits into 16-beat sections, reporting hits per
// section, per spec.md §4.F.5's debug payload description.
func sectionDensities(times []float64, bpm float64) []float64 {
	if len(times) == 0 || bpm <= 0 {
		return nil
	}
	sectionSec := 16 * 60 / bpm
	if sectionSec <= 0 {
		return nil
	}
	lastTime := times[len(times)-1]
	numSections := int(lastTime/sectionSec) + 1
	counts := make([]float64, numSections)
	for _, t := range times {
		idx := int(t / sectionSec)
		if idx >= numSections {
			idx = numSections - 1
		}
		counts[idx]++
	}
	return counts
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

// currentTime is a seam so tests can avoid depending on wall-clock time;
// production code uses time.Now.
var currentTime = time.Now
