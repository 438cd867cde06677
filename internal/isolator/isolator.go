// Package isolator implements the Drum Isolator (component B): an optional
// pluggable preprocessor mapping (audio, sr) -> (audio, sr), defaulting to
// identity passthrough per spec.md §4.B.
package isolator

import "github.com/rosacry/beatsight/internal/audio"

// Isolator is the sealed interface both implementations satisfy. Failure of
// an Isolator is fatal and must propagate, per spec.md §4.B.
type Isolator interface {
	Isolate(buf *audio.Buffer) (*audio.Buffer, error)
	Close() error
}
