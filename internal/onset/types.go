// Package onset implements the Onset Detector (component C) and Onset
// Refiner (component D): turning a percussive audio buffer into a sequence
// of timestamped, confidence-scored onset candidates.
package onset

// DetectedOnset is the sealed representation of one candidate drum strike,
// per spec.md §3. It replaces the source material's duck-typed
// tuple-or-record onset representation (§9 redesign).
type DetectedOnset struct {
	TimeSeconds    float64
	Confidence     float64
	EnvelopeValue  float64
	ThresholdValue float64
	FrameIndex     int
	BandEnergies   []float64
}

// DetectionResult is the full output of Detect: the ordered onsets plus the
// diagnostics needed downstream by the Assembler's debug payload and by
// tempo-aware quantization.
type DetectionResult struct {
	Onsets          []DetectedOnset
	TempoCandidates []float64 // first element is the estimated tempo
	Envelope        []float64
	Threshold       []float64
	MinIOISeconds   float64
	HopSize         int
	FFTSize         int
	SampleRate      int
}

// EstimatedTempo returns the first tempo candidate, or 120 if none were
// produced (should not happen; EstimateTempoCandidates always falls back).
func (r *DetectionResult) EstimatedTempo() float64 {
	if len(r.TempoCandidates) == 0 {
		return 120
	}
	return r.TempoCandidates[0]
}
