package isolator

import (
	"testing"

	"github.com/rosacry/beatsight/internal/audio"
)

func TestPassthroughIsIdentity(t *testing.T) {
	buf := &audio.Buffer{Samples: []float64{0.1, -0.2, 0.3}, SampleRate: 44100}
	out, err := Passthrough{}.Isolate(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != buf {
		t.Fatal("expected passthrough to return the same buffer")
	}
}

func TestPackUnpackSampleRatePrefixedRoundTrip(t *testing.T) {
	samples := []float64{0, 0.5, -0.5, 1.0, -1.0}
	packed := packSampleRatePrefixed(44100, samples)
	sr, decoded := unpackSampleRatePrefixed(packed)
	if sr != 44100 {
		t.Fatalf("expected sample rate 44100, got %d", sr)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		if diff := decoded[i] - samples[i]; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("sample %d mismatch: %v vs %v", i, decoded[i], samples[i])
		}
	}
}
