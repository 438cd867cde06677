package onset

import (
	"math"
	"testing"

	"github.com/rosacry/beatsight/internal/audio"
	"github.com/rosacry/beatsight/internal/dsp"
)

func clickTrackBuffer(sr int, bpm float64, clicks int) *audio.Buffer {
	interval := 60.0 / bpm / 4 // sixteenth notes
	duration := interval * float64(clicks+2)
	samples := make([]float64, int(duration*float64(sr)))
	for i := 0; i < clicks; i++ {
		start := int(float64(i) * interval * float64(sr))
		for j := 0; j < 200 && start+j < len(samples); j++ {
			samples[start+j] = math.Exp(-float64(j)/20) * 0.9
		}
	}
	return &audio.Buffer{Samples: samples, SampleRate: sr}
}

func TestDetectEmptyBufferReturnsEmptyOnsets(t *testing.T) {
	buf := &audio.Buffer{Samples: nil, SampleRate: 44100}
	result := Detect(buf, DefaultDetectOptions())
	if len(result.Onsets) != 0 {
		t.Fatalf("expected no onsets for empty buffer, got %d", len(result.Onsets))
	}
	if len(result.TempoCandidates) == 0 {
		t.Fatal("expected a fallback tempo candidate")
	}
}

func TestDetectedOnsetsSatisfyEnvelopeInvariant(t *testing.T) {
	buf := clickTrackBuffer(44100, 178, 32)
	result := Detect(buf, DefaultDetectOptions())
	for _, o := range result.Onsets {
		if !(o.EnvelopeValue > o.ThresholdValue) {
			t.Fatalf("onset at frame %d violates envelope>threshold invariant: %v <= %v",
				o.FrameIndex, o.EnvelopeValue, o.ThresholdValue)
		}
	}
}

func TestDetectedOnsetsAreMonotonic(t *testing.T) {
	buf := clickTrackBuffer(44100, 178, 32)
	result := Detect(buf, DefaultDetectOptions())
	for i := 1; i < len(result.Onsets); i++ {
		if result.Onsets[i].TimeSeconds <= result.Onsets[i-1].TimeSeconds {
			t.Fatalf("onsets not strictly increasing at index %d", i)
		}
	}
}

func TestMinInterOnsetIntervalSensitivityBounds(t *testing.T) {
	low := minInterOnsetInterval(120, 0)
	high := minInterOnsetInterval(120, 100)
	if !(low >= high) {
		t.Fatalf("expected lower sensitivity to yield >= min IOI: low=%v high=%v", low, high)
	}
}

func TestRefineIdempotent(t *testing.T) {
	buf := clickTrackBuffer(44100, 178, 32)
	result := Detect(buf, DefaultDetectOptions())
	if len(result.Onsets) == 0 {
		t.Skip("no onsets detected for this synthetic fixture")
	}
	once := Refine(buf, result.Onsets, 28)
	twice := Refine(buf, once, 28)
	if len(once) != len(twice) {
		t.Fatalf("refine changed onset count: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if math.Abs(once[i].TimeSeconds-twice[i].TimeSeconds) > 1e-9 {
			t.Fatalf("refine not idempotent at %d: %v vs %v", i, once[i].TimeSeconds, twice[i].TimeSeconds)
		}
	}
}

func TestRefineProducesMonotonicTimes(t *testing.T) {
	buf := clickTrackBuffer(44100, 178, 32)
	result := Detect(buf, DefaultDetectOptions())
	refined := Refine(buf, result.Onsets, 28)
	for i := 1; i < len(refined); i++ {
		if refined[i].TimeSeconds <= refined[i-1].TimeSeconds {
			t.Fatalf("refined onsets not strictly increasing at %d", i)
		}
	}
}

func TestThresholdKBoundaries(t *testing.T) {
	if k := thresholdKForTest(0); math.Abs(k-2.4) > 1e-9 {
		t.Fatalf("expected k=2.4 at sensitivity 0, got %v", k)
	}
	if k := thresholdKForTest(100); math.Abs(k-0.6) > 1e-9 {
		t.Fatalf("expected k=0.6 at sensitivity 100, got %v", k)
	}
}

// thresholdKForTest is the k that Detect passes to the adaptive threshold
// for a given sensitivity.
func thresholdKForTest(sensitivity float64) float64 {
	return dsp.ThresholdK(sensitivity)
}
