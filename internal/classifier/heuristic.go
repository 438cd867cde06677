package classifier

import "github.com/rosacry/beatsight/internal/audio"

// Heuristic is the rule-based Classifier backend from spec.md §4.E.1: four
// scalar features feed ten ordered decision rules, the first match wins.
type Heuristic struct{}

var _ Backend = Heuristic{}

func (Heuristic) Classify(buf *audio.Buffer, onsetTimeSeconds, windowMS float64) (string, float64) {
	if windowMS <= 0 {
		windowMS = 100
	}
	f := extractFeatures(buf, onsetTimeSeconds, windowMS, windowMS/4)
	return classifyFeatures(f)
}

// classifyFeatures applies the ordered rule table in spec.md §4.E.1. The
// hihat_closed/hihat_open RMS boundary (0.08) is preserved exactly as
// specified in §9: RMS == 0.08 falls into hihat_closed (`<=` vs `>`).
func classifyFeatures(f windowFeatures) (string, float64) {
	switch {
	case f.centroid < 200 && f.rms > 0.05:
		return "kick", 0.70
	case f.centroid >= 150 && f.centroid < 2000 && f.zcr > 0.08 && f.rms > 0.03:
		return "snare", 0.65
	case f.centroid >= 2500 && f.rms <= 0.08:
		return "hihat_closed", 0.60
	case f.centroid >= 2500 && f.rms > 0.08 && f.rms < 0.20:
		return "hihat_open", 0.60
	case f.centroid >= 1800 && f.rms > 0.1 && f.rolloff > 4000:
		return "crash", 0.55
	case f.centroid >= 1500 && f.rms > 0.05 && f.rms < 0.15:
		return "ride", 0.50
	case f.centroid >= 200 && f.centroid < 500 && f.rms > 0.04:
		return "tom_low", 0.50
	case f.centroid >= 500 && f.centroid < 800 && f.rms > 0.04:
		return "tom_mid", 0.50
	case f.centroid >= 800 && f.centroid < 1200 && f.rms > 0.04:
		return "tom_high", 0.50
	case f.rms > 0.02:
		return "snare", 0.40
	default:
		return "unknown", 0.30
	}
}
