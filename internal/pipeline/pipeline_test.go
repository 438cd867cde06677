package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/rosacry/beatsight/internal/config"
	"github.com/rosacry/beatsight/internal/fixtures"
)

func TestProcessEndToEndOnDrumPattern(t *testing.T) {
	dir := t.TempDir()
	manifest, err := fixtures.Generate(fixtures.Config{
		OutputDir:            dir,
		SampleRate:           44100,
		IncludeDrumPattern:   true,
		DrumPatternBPM:       120,
		IncludeSilenceLeadIn: true,
	})
	if err != nil {
		t.Fatalf("generate fixture: %v", err)
	}

	var wavFile string
	for _, f := range manifest.Fixtures {
		if f.Type == "drum_pattern" {
			wavFile = f.File
		}
	}
	if wavFile == "" {
		t.Fatal("expected drum_pattern fixture")
	}

	opts := config.Defaults()
	opts.InputPath = filepath.Join(dir, wavFile)
	opts.IsolateDrums = false // passthrough; no remote separator in tests
	useML := false
	opts.UseMLClassifier = &useML

	result, err := Process(opts.InputPath, opts, Deps{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Beatmap.Version == "" {
		t.Fatal("expected a populated beatmap")
	}
	if result.Telemetry.Mode != "heuristic" {
		t.Fatalf("expected heuristic classifier, got %v", result.Telemetry.Mode)
	}

	beatmapJSON, err := MarshalBeatmap(result.Beatmap)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	if len(beatmapJSON) == 0 {
		t.Fatal("expected non-empty beatmap JSON")
	}
}

func TestProcessMissingFileReturnsInvalidAudioError(t *testing.T) {
	opts := config.Defaults()
	_, err := Process("/nonexistent/path/to/file.wav", opts, Deps{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var cfgErr *config.Error
	if ce, ok := err.(*config.Error); ok {
		cfgErr = ce
	} else {
		t.Fatalf("expected *config.Error, got %T", err)
	}
	if cfgErr.Kind != config.KindInvalidAudio {
		t.Fatalf("expected KindInvalidAudio, got %v", cfgErr.Kind)
	}
}

func TestCacheOptionsViewOmitsCosmeticFields(t *testing.T) {
	opts := config.Defaults()
	opts.DebugOutputPath = "/tmp/debug.json"
	view := CacheOptionsView(opts)
	if _, ok := view["debug_output_path"]; ok {
		t.Fatal("expected debug_output_path to be excluded from cache key view")
	}
	if _, ok := view["quantization_grid"]; !ok {
		t.Fatal("expected quantization_grid to be present")
	}
}
