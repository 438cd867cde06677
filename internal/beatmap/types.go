// Package beatmap implements the Beatmap Assembler (component F): fallback
// pattern generation, lane assignment, tempo-aware quantization, difficulty
// scoring, and final Beatmap/DebugPayload output assembly.
package beatmap

import "time"

// HitObject is the serialized output form from spec.md §3.
type HitObject struct {
	TimeMS    int64   `json:"time"`
	Component string  `json:"component"`
	Velocity  float32 `json:"velocity"`
	Lane      uint8   `json:"lane"`

	// Fallback and QuantErr are diagnostic markers per spec.md §7 policy;
	// they are not part of the wire schema in spec.md §6 but are carried
	// through assembly for the debug payload and tests.
	Fallback bool    `json:"-"`
	QuantErr float64 `json:"-"`
}

// Metadata is the beatmap's metadata block, spec.md §6.
type Metadata struct {
	Title       string    `json:"title"`
	Artist      string    `json:"artist,omitempty"`
	Creator     string    `json:"creator"`
	Tags        []string  `json:"tags"`
	Difficulty  float64   `json:"difficulty"`
	PreviewTime int64     `json:"previewTime"`
	BeatmapID   string    `json:"beatmapId"`
	CreatedAt   time.Time `json:"createdAt"`
	ModifiedAt  time.Time `json:"modifiedAt"`
	Source      string    `json:"source,omitempty"`
	Description string    `json:"description,omitempty"`
}

// AudioBlock is the beatmap's audio block, spec.md §6.
type AudioBlock struct {
	Filename      string `json:"filename"`
	Hash          string `json:"hash"`
	DurationMS    int64  `json:"duration"`
	SampleRate    int    `json:"sampleRate"`
	DrumStem      string `json:"drumStem,omitempty"`
	DrumStemHash  string `json:"drumStemHash,omitempty"`
}

// Timing is the beatmap's timing block, spec.md §6.
type Timing struct {
	BPM           float64 `json:"bpm"`
	OffsetMS      int64   `json:"offset"`
	TimeSignature string  `json:"timeSignature"`
}

// DrumKit is the beatmap's drum kit block, spec.md §6.
type DrumKit struct {
	Components []string `json:"components"`
	Layout     string   `json:"layout"`
}

// Editor is the beatmap's editor block, spec.md §6.
type Editor struct {
	SnapDivisor          int            `json:"snapDivisor"`
	VisualLanes          int            `json:"visualLanes"`
	AIGenerationMetadata map[string]any `json:"aiGenerationMetadata"`
}

// Beatmap is the authoritative output, spec.md §3/§6.
type Beatmap struct {
	Version    string      `json:"version"`
	Metadata   Metadata    `json:"metadata"`
	Audio      AudioBlock  `json:"audio"`
	Timing     Timing      `json:"timing"`
	DrumKit    DrumKit     `json:"drumKit"`
	HitObjects []HitObject `json:"hitObjects"`
	Editor     Editor      `json:"editor"`
}

// TempoCandidateSummary reports a tempo candidate's quantization score for
// the debug payload.
type TempoCandidateSummary struct {
	BPM         float64 `json:"bpm"`
	IsHint      bool    `json:"isHint"`
	Coverage    float64 `json:"coverage"`
	MeanError   float64 `json:"meanErrorMs"`
	MedianError float64 `json:"medianErrorMs"`
	Score       float64 `json:"score"`
}

// DebugPayload mirrors the beatmap with the diagnostics spec.md §3 and §6
// describe; never authoritative for gameplay.
type DebugPayload struct {
	Beatmap            Beatmap                 `json:"beatmap"`
	Envelope           []float64               `json:"envelope"`
	Threshold          []float64               `json:"threshold"`
	TempoCandidates    []TempoCandidateSummary `json:"tempoCandidates"`
	SectionDensities   []float64               `json:"sectionDensities"`
	LaneSwitchCounts   map[string]int          `json:"laneSwitchCounts"`
	QuantizationGrid   string                  `json:"quantizationGrid"`
	QuantizationErrors []float64               `json:"quantizationErrors"`
	ForcedOverrides    map[string]float64      `json:"forcedOverrides,omitempty"`
	UsedFallback       bool                    `json:"usedFallback"`
	ClassifierMode     string                  `json:"classifierMode"`
	ClassifierWarning  string                  `json:"classifierWarning,omitempty"`
}
