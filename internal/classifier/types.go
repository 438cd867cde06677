// Package classifier implements the Classifier (component E): assigning a
// drum-component label and confidence to each onset, via a heuristic
// feature-rule backend or a pluggable ML backend.
package classifier

import "github.com/rosacry/beatsight/internal/onset"

// ClassifiedHit augments a DetectedOnset with a component label and the
// classifier's own confidence, per spec.md §3.
type ClassifiedHit struct {
	onset.DetectedOnset
	Component       string
	ClassConfidence float64
}

// Confidence returns the arithmetic mean of onset and class confidence, the
// merged confidence spec.md §3 defines for ClassifiedHit.
func (c ClassifiedHit) Confidence() float64 {
	return (c.DetectedOnset.Confidence + c.ClassConfidence) / 2
}

// Mode identifies which backend produced a classification run.
type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeML        Mode = "ml"
)

// Telemetry is the per-call record of backend resolution, replacing the
// source material's module-level mutable globals
// (last_classifier_mode / last_classifier_model_path) per spec.md §9.
type Telemetry struct {
	Mode      Mode
	ModelPath string
	Warning   string
}
