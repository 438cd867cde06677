package isolator

import "github.com/rosacry/beatsight/internal/audio"

// Passthrough is the identity Isolator: the pipeline's default when
// isolate_drums is false or no remote separator is configured, grounded on
// internal/analyzer/fallback.go's CPU fallback pattern, simplified to a true
// no-op since isolation here is optional rather than mandatory.
type Passthrough struct{}

var _ Isolator = Passthrough{}

func (Passthrough) Isolate(buf *audio.Buffer) (*audio.Buffer, error) {
	return buf, nil
}

func (Passthrough) Close() error { return nil }
