package classifier

import (
	"testing"

	"github.com/rosacry/beatsight/internal/audio"
	"github.com/rosacry/beatsight/internal/onset"
)

func TestClassifyFeaturesRuleOrder(t *testing.T) {
	cases := []struct {
		name string
		f    windowFeatures
		want string
	}{
		{"kick", windowFeatures{centroid: 100, rms: 0.1}, "kick"},
		{"snare", windowFeatures{centroid: 500, zcr: 0.2, rms: 0.1}, "snare"},
		{"hihat_closed boundary", windowFeatures{centroid: 3000, rms: 0.08}, "hihat_closed"},
		{"hihat_open", windowFeatures{centroid: 3000, rms: 0.09}, "hihat_open"},
		{"crash", windowFeatures{centroid: 2000, rms: 0.15, rolloff: 5000}, "crash"},
		{"ride", windowFeatures{centroid: 1600, rms: 0.1}, "ride"},
		{"tom_low", windowFeatures{centroid: 300, rms: 0.05}, "tom_low"},
		{"tom_mid", windowFeatures{centroid: 600, rms: 0.05}, "tom_mid"},
		{"tom_high", windowFeatures{centroid: 900, rms: 0.05}, "tom_high"},
		{"snare fallback", windowFeatures{centroid: 50, rms: 0.03}, "snare"},
		{"unknown", windowFeatures{centroid: 50, rms: 0.001}, "unknown"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, _ := classifyFeatures(c.f)
			if got != c.want {
				t.Fatalf("classifyFeatures(%+v) = %q, want %q", c.f, got, c.want)
			}
		})
	}
}

func TestSelectHeuristicWhenMLExplicitlyDisabled(t *testing.T) {
	disabled := false
	_, telemetry := Select(SelectOptions{UseML: &disabled}, nil)
	if telemetry.Mode != ModeHeuristic {
		t.Fatalf("expected heuristic mode, got %v", telemetry.Mode)
	}
}

func TestSelectFallsBackWhenModelMissing(t *testing.T) {
	enabled := true
	_, telemetry := Select(SelectOptions{UseML: &enabled, ModelPath: "/nonexistent/model.bin"}, nil)
	if telemetry.Mode != ModeHeuristic {
		t.Fatalf("expected fallback to heuristic, got %v", telemetry.Mode)
	}
	if telemetry.Warning == "" {
		t.Fatal("expected a warning to be recorded")
	}
}

func TestClassifyAllThresholdFiltersLowConfidence(t *testing.T) {
	buf := &audio.Buffer{Samples: make([]float64, 44100), SampleRate: 44100}
	onsets := []onset.DetectedOnset{{TimeSeconds: 0.5, Confidence: 0.1}}
	hits := ClassifyAll(buf, onsets, Heuristic{}, 0.99)
	if len(hits) != 0 {
		t.Fatalf("expected silence to be filtered at a high threshold, got %d hits", len(hits))
	}
}

// stubUnknownBackend always reports "unknown" at a fixed class confidence,
// letting ClassifyAll's gating/relabel/drop logic be tested in isolation
// from the real feature extraction.
type stubUnknownBackend struct{ classConfidence float64 }

func (s stubUnknownBackend) Classify(*audio.Buffer, float64, float64) (string, float64) {
	return "unknown", s.classConfidence
}

func TestClassifyAllGatesOnCombinedConfidenceBeforeRelabel(t *testing.T) {
	buf := &audio.Buffer{Samples: make([]float64, 44100), SampleRate: 44100}
	onsets := []onset.DetectedOnset{{TimeSeconds: 0.5, Confidence: 0.2}}

	// combined = (0.2+0.30)/2 = 0.25, below threshold: dropped before any
	// relabel is even considered, matching _classify_drums_heuristic's
	// combined_confidence gate ahead of the unknown->hihat_closed rewrite.
	hits := ClassifyAll(buf, onsets, stubUnknownBackend{classConfidence: 0.30}, 0.45)
	if len(hits) != 0 {
		t.Fatalf("expected gate to drop low-combined-confidence onset before relabel, got %d hits", len(hits))
	}
}

func TestClassifyAllDropsUnknownWhenThresholdAtOrAboveFourTenths(t *testing.T) {
	buf := &audio.Buffer{Samples: make([]float64, 44100), SampleRate: 44100}
	onsets := []onset.DetectedOnset{{TimeSeconds: 0.5, Confidence: 0.9}}

	// combined = (0.9+0.30)/2 = 0.60, clears the threshold, but threshold
	// (0.4) is not below 0.4 so "unknown" is never relabeled and must be
	// dropped rather than emitted, per the ground-truth "if component !=
	// unknown: append" filter.
	hits := ClassifyAll(buf, onsets, stubUnknownBackend{classConfidence: 0.30}, 0.4)
	if len(hits) != 0 {
		t.Fatalf("expected unknown component to be dropped, got %d hits", len(hits))
	}
}

func TestClassifyAllRelabelsUnknownBelowFourTenthsThreshold(t *testing.T) {
	buf := &audio.Buffer{Samples: make([]float64, 44100), SampleRate: 44100}
	onsets := []onset.DetectedOnset{{TimeSeconds: 0.5, Confidence: 0.9}}

	hits := ClassifyAll(buf, onsets, stubUnknownBackend{classConfidence: 0.30}, 0.3)
	if len(hits) != 1 {
		t.Fatalf("expected one relabeled hit, got %d", len(hits))
	}
	if hits[0].Component != "hihat_closed" {
		t.Fatalf("expected relabel to hihat_closed, got %q", hits[0].Component)
	}
	if hits[0].ClassConfidence != 0.4 {
		t.Fatalf("expected relabeled class confidence 0.4, got %v", hits[0].ClassConfidence)
	}
}

func TestCollapseTaxonomyPrefixMatch(t *testing.T) {
	if got := CollapseTaxonomy("crash_1"); got != "crash" {
		t.Fatalf("expected crash_1 to collapse to crash, got %q", got)
	}
	if got := CollapseTaxonomy("kick_sub"); got != "kick" {
		t.Fatalf("expected kick_sub to collapse to kick, got %q", got)
	}
}
