package beatmap

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rosacry/beatsight/internal/audio"
	"github.com/rosacry/beatsight/internal/classifier"
	"github.com/rosacry/beatsight/internal/onset"
)

func hitAt(t float64, component string) classifier.ClassifiedHit {
	return classifier.ClassifiedHit{
		DetectedOnset:   onset.DetectedOnset{TimeSeconds: t, Confidence: 0.9},
		Component:       component,
		ClassConfidence: 0.9,
	}
}

func TestDifficultyBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	components := []string{
		"kick", "snare", "hihat_closed", "hihat_open", "hihat_pedal",
		"tom_high", "tom_mid", "tom_low", "ride", "crash", "china", "splash",
	}
	times := make([]float64, 1000)
	comps := make([]string, 1000)
	for i := range times {
		times[i] = rng.Float64() * 60
		comps[i] = components[rng.Intn(len(components))]
	}
	d := Difficulty(times, comps)
	if d < 0 || d > 10 {
		t.Fatalf("difficulty out of bounds: %v", d)
	}
}

func TestDifficultySingleHitHasZeroSpeedAndDensity(t *testing.T) {
	d := Difficulty([]float64{1.0}, []string{"kick"})
	if d != math.Min(10, 0+0.5+0) {
		t.Fatalf("unexpected single-hit difficulty: %v", d)
	}
}

func TestAssignLanesCymbalAlternation(t *testing.T) {
	hits := []classifier.ClassifiedHit{
		hitAt(0.0, "crash"),
		hitAt(0.2, "crash"),
		hitAt(0.4, "crash"),
	}
	lanes, stats := AssignLanes(hits)
	if lanes[0] != 6 {
		t.Fatalf("expected first cymbal hit on lane 6, got %d", lanes[0])
	}
	if lanes[1] != 0 {
		t.Fatalf("expected alternation to lane 0, got %d", lanes[1])
	}
	if lanes[2] != 6 {
		t.Fatalf("expected alternation back to lane 6, got %d", lanes[2])
	}
	if stats.SwitchCounts["cymbal"] != 2 {
		t.Fatalf("expected 2 cymbal switches, got %d", stats.SwitchCounts["cymbal"])
	}
}

func TestAssignLanesKickIsLane3(t *testing.T) {
	lanes, _ := AssignLanes([]classifier.ClassifiedHit{hitAt(0, "kick")})
	if lanes[0] != 3 {
		t.Fatalf("expected kick on lane 3, got %d", lanes[0])
	}
}

func TestAllLanesInRange(t *testing.T) {
	components := []string{"kick", "snare", "hihat_closed", "tom_high", "crash", "unknown"}
	var hits []classifier.ClassifiedHit
	for i, c := range components {
		hits = append(hits, hitAt(float64(i)*0.5, c))
	}
	lanes, _ := AssignLanes(hits)
	for _, l := range lanes {
		if l > 6 {
			t.Fatalf("lane %d out of range", l)
		}
	}
}

func TestQuantizeForceIsNoOp(t *testing.T) {
	bpm := 120.0
	step := 60 / bpm
	times := []float64{0, step, 2 * step, 3 * step}
	r := quantizeWithOffset(times, bpm, step, 0, 0.012)
	for i, s := range r.Snapped {
		if math.Abs(s-times[i]) > 1e-9 {
			t.Fatalf("expected exact grid time to be a no-op at %d: %v vs %v", i, s, times[i])
		}
	}
}

func TestSelectBestQuantizationHintOverride(t *testing.T) {
	// Scenario 2: onsets at 90 BPM truth, hint says 120.
	bpm := 90.0
	step := 60 / bpm / 4
	var times []float64
	for t := 0.0; t < 4.0; t += step {
		times = append(times, t)
	}
	candidates := buildCandidates([]float64{120}, []float64{90})
	result, _ := SelectBestQuantization(times, candidates, "sixteenth", 12)
	if math.Abs(result.BPM-90) > 1 {
		t.Fatalf("expected hint override to select ~90 BPM, got %v", result.BPM)
	}
}

func TestSelectBestQuantizationHintWinsOnTie(t *testing.T) {
	// Scenario 3: onsets exactly on 120 BPM grid; hint says 120 vs 240.
	bpm := 120.0
	step := 60 / bpm / 4
	var times []float64
	for t := 0.0; t < 4.0; t += step {
		times = append(times, t)
	}
	candidates := buildCandidates([]float64{120}, []float64{240})
	result, _ := SelectBestQuantization(times, candidates, "sixteenth", 12)
	if math.Abs(result.BPM-120) > 1 {
		t.Fatalf("expected hint to win the tie at 120 BPM, got %v", result.BPM)
	}
}

func TestGenerateFallbackPatternLeadingCrash(t *testing.T) {
	sr := 44100
	durationSec := 4.0
	samples := make([]float64, int(durationSec*float64(sr)))
	// Silence for the first 2 seconds, then a constant loud level.
	for i := int(2 * float64(sr)); i < len(samples); i++ {
		samples[i] = 0.8
	}
	hits := GenerateFallbackPattern(samples, sr, 120)
	if len(hits) == 0 {
		t.Fatal("expected at least one fallback hit")
	}
	if hits[0].Component != "crash" {
		t.Fatalf("expected leading crash, got %q", hits[0].Component)
	}
	if hits[0].TimeSeconds < 1.9 {
		t.Fatalf("expected drum start near 2s, got %v", hits[0].TimeSeconds)
	}
}

func TestHitObjectsSortedAscending(t *testing.T) {
	buf := &audio.Buffer{Samples: make([]float64, 44100*2), SampleRate: 44100, SourcePath: "track.wav"}
	hits := []classifier.ClassifiedHit{
		hitAt(1.0, "kick"),
		hitAt(0.5, "snare"),
		hitAt(0.2, "hihat_closed"),
	}
	bm, _ := Assemble(buf, nil, hits, AssembleOptions{TempoCandidates: []float64{120}})
	for i := 1; i < len(bm.HitObjects); i++ {
		if bm.HitObjects[i].TimeMS < bm.HitObjects[i-1].TimeMS {
			t.Fatalf("hit objects not sorted ascending at %d", i)
		}
	}
}

func TestAssembleAllLanesInRange(t *testing.T) {
	buf := &audio.Buffer{Samples: make([]float64, 44100*2), SampleRate: 44100, SourcePath: "track.wav"}
	hits := []classifier.ClassifiedHit{
		hitAt(0.1, "kick"), hitAt(0.3, "snare"), hitAt(0.5, "crash"), hitAt(0.7, "tom_high"),
	}
	bm, _ := Assemble(buf, nil, hits, AssembleOptions{TempoCandidates: []float64{120}})
	for _, h := range bm.HitObjects {
		if h.Lane > 6 {
			t.Fatalf("lane out of range: %d", h.Lane)
		}
	}
}

func TestAssembleSnapDivisorMatchesGrid(t *testing.T) {
	buf := &audio.Buffer{Samples: make([]float64, 44100), SampleRate: 44100, SourcePath: "track.wav"}
	hits := []classifier.ClassifiedHit{hitAt(0.1, "kick")}
	bm, _ := Assemble(buf, nil, hits, AssembleOptions{Grid: "triplet", TempoCandidates: []float64{120}})
	if bm.Editor.SnapDivisor != 3 {
		t.Fatalf("expected snap divisor 3 for triplet grid, got %d", bm.Editor.SnapDivisor)
	}
}

func TestAssembleForcedQuantizationSnapsAllHits(t *testing.T) {
	buf := &audio.Buffer{Samples: make([]float64, 44100*2), SampleRate: 44100, SourcePath: "track.wav"}
	hits := []classifier.ClassifiedHit{
		hitAt(0.11, "kick"), hitAt(0.62, "snare"), hitAt(1.23, "hihat_closed"),
	}
	bpm := 120.0
	bm, _ := Assemble(buf, nil, hits, AssembleOptions{
		Grid:           "quarter",
		TempoCandidates: []float64{120},
		Forced:         ForcedOverrides{BPM: &bpm, ForceQuantization: true},
	})
	// Forcing bpm recomputes the optimal offset, so the 500ms grid is
	// measured from the beatmap's timing offset.
	for _, h := range bm.HitObjects {
		if (h.TimeMS-bm.Timing.OffsetMS)%500 != 0 {
			t.Fatalf("expected every hit to snap to a 500ms grid after offset %d, got %d", bm.Timing.OffsetMS, h.TimeMS)
		}
	}
}

func TestAssembleEmptyHitsProducesFallback(t *testing.T) {
	sr := 44100
	samples := make([]float64, sr*4)
	for i := sr * 2; i < len(samples); i++ {
		samples[i] = 0.9
	}
	buf := &audio.Buffer{Samples: samples, SampleRate: sr, SourcePath: "track.wav"}
	bm, debug := Assemble(buf, nil, nil, AssembleOptions{TempoCandidates: []float64{120}})
	if !debug.UsedFallback {
		t.Fatal("expected UsedFallback=true")
	}
	if len(bm.HitObjects) == 0 {
		t.Fatal("expected at least one synthetic hit")
	}
	if bm.HitObjects[0].Component != "crash" {
		t.Fatalf("expected leading crash, got %q", bm.HitObjects[0].Component)
	}
}
