package classifier

import (
	"github.com/rosacry/beatsight/internal/audio"
	"github.com/rosacry/beatsight/internal/onset"
)

// ClassifyAll applies backend to every onset, gating on the combined
// confidence (onset + class, averaged) before any relabeling, per spec.md
// §4.E. Only after a hit clears confidenceThreshold is a surviving
// `unknown` label relabeled to `hihat_closed` (class_confidence 0.4, when
// the threshold is below 0.4); a hit still labeled `unknown` after that is
// dropped, never emitted.
func ClassifyAll(buf *audio.Buffer, onsets []onset.DetectedOnset, backend Backend, confidenceThreshold float64) []ClassifiedHit {
	hits := make([]ClassifiedHit, 0, len(onsets))
	for _, o := range onsets {
		component, classConfidence := backend.Classify(buf, o.TimeSeconds, 100)
		combined := (o.Confidence + classConfidence) / 2

		if combined < confidenceThreshold {
			continue
		}

		if component == "unknown" && confidenceThreshold < 0.4 {
			component = "hihat_closed"
			classConfidence = 0.4
		}
		if component == "unknown" {
			continue
		}

		hits = append(hits, ClassifiedHit{
			DetectedOnset:   o,
			Component:       component,
			ClassConfidence: classConfidence,
		})
	}
	return hits
}
