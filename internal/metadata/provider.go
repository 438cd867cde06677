// Package metadata implements the optional song-metadata detection seam
// supplemented from original_source/ai-pipeline/pipeline/metadata_detection.py
// (see SPEC_FULL.md §4.G): a Provider's title/artist/tags feed defaults into
// the assembled beatmap. Only the Provider seam and NullProvider are
// implemented; there is no tag or fingerprint lookup.
package metadata

// Metadata holds fields discovered for an audio file, mirroring the
// original's DetectedMetadata dataclass.
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	ReleaseDate string
	Source      string
	Tags        []string
	Confidence  float64
	Provider    string
}

// MergeInto applies setdefault semantics for scalar fields and
// de-duplicating append semantics for tags, matching
// DetectedMetadata.merge_into in the original source.
func (m Metadata) MergeInto(target map[string]any) {
	setDefault(target, "title", m.Title)
	setDefault(target, "artist", m.Artist)
	setDefault(target, "album", m.Album)
	setDefault(target, "source", m.Source)
	setDefault(target, "release_date", m.ReleaseDate)

	if len(m.Tags) > 0 {
		existing, _ := target["tags"].([]string)
		for _, tag := range m.Tags {
			if !contains(existing, tag) {
				existing = append(existing, tag)
			}
		}
		target["tags"] = existing
	}

	if m.Confidence > 0 {
		if _, ok := target["confidence"]; !ok {
			target["confidence"] = m.Confidence
		}
	}
	setDefault(target, "provider", m.Provider)
}

func setDefault(target map[string]any, key, value string) {
	if value == "" {
		return
	}
	if _, ok := target[key]; !ok {
		target[key] = value
	}
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

// Provider discovers metadata for a source file. Tag-parsing and acoustic
// fingerprinting libraries are external collaborators per spec.md §1's
// codec boundary; only the provider seam is implemented here.
type Provider interface {
	Detect(path string) (Metadata, error)
}

// NullProvider always returns empty metadata, matching the original's
// behavior when no embedded tags and no fingerprint match are found.
type NullProvider struct{}

func (NullProvider) Detect(path string) (Metadata, error) {
	return Metadata{}, nil
}
