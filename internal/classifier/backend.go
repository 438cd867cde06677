package classifier

import (
	"errors"

	"github.com/rosacry/beatsight/internal/audio"
)

// ErrModelUnavailable is the typed error for spec.md §7's ModelUnavailable
// condition: an ML backend was requested but its artifact is missing or
// unreadable. Callers recover by falling back to the heuristic backend.
var ErrModelUnavailable = errors.New("beatsight: classifier model unavailable")

// Backend is the sealed interface both classifier implementations satisfy,
// replacing the source material's dynamic try/except ImportError selection
// (spec.md §9) with an explicit variant constructed once at pipeline entry.
type Backend interface {
	// Classify returns a component label and class confidence for the
	// window starting windowMS/4 before onsetTimeSeconds and ending
	// windowMS after it (125ms total at the default 100ms window, per the
	// heuristic backend).
	Classify(buf *audio.Buffer, onsetTimeSeconds float64, windowMS float64) (component string, classConfidence float64)
}
