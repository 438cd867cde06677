// Package pipeline wires the Preprocessor, Drum Isolator, Onset Detector,
// Onset Refiner, Classifier, and Beatmap Assembler into the single
// process(input_path, output_path, options) entry point spec.md §6
// describes, grounded on the orchestration shape of the teacher's
// internal/analyzer.Client/CPUFallback pair but expanded into BeatSight's
// six-stage DSP chain.
package pipeline

import (
	"encoding/json"
	"log/slog"

	"github.com/rosacry/beatsight/internal/audio"
	"github.com/rosacry/beatsight/internal/beatmap"
	"github.com/rosacry/beatsight/internal/classifier"
	"github.com/rosacry/beatsight/internal/config"
	"github.com/rosacry/beatsight/internal/isolator"
	"github.com/rosacry/beatsight/internal/metadata"
	"github.com/rosacry/beatsight/internal/onset"
)

// Result is what cmd/beatsight reports after a run: the assembled beatmap,
// its debug payload (nil unless requested), and the classifier telemetry
// that informed it.
type Result struct {
	Beatmap   beatmap.Beatmap
	Debug     *beatmap.DebugPayload
	Telemetry classifier.Telemetry
}

// Deps lets callers substitute collaborators — a remote isolator, a
// metadata provider, a run cache — without Process depending on concrete
// constructors, so tests can supply stand-ins.
type Deps struct {
	Isolator         isolator.Isolator // nil -> isolator.Passthrough{}
	MetadataProvider metadata.Provider // nil -> metadata.NullProvider{}
	Logger           *slog.Logger
}

// Process runs the full DSP chain over inputPath and returns the assembled
// Result, per spec.md §6. It does not write outputPath itself; callers
// (cmd/beatsight) own artifact export via internal/exporter so Process stays
// testable without touching the filesystem beyond reading the input.
func Process(inputPath string, opts config.Options, deps Deps) (Result, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	buf, err := audio.Load(inputPath, 44100)
	if err != nil {
		return Result{}, config.NewError(config.KindInvalidAudio, "load audio", err)
	}

	iso := deps.Isolator
	if iso == nil {
		iso = isolator.Passthrough{}
	}
	if opts.IsolateDrums {
		percussive, err := iso.Isolate(buf)
		if err != nil {
			return Result{}, config.NewError(config.KindIOError, "drum isolation", err)
		}
		buf = percussive
	}

	detectOpts := onset.DefaultDetectOptions()
	detectOpts.Sensitivity = opts.DetectionSensitivity
	if len(opts.TempoCandidatesHint) > 0 {
		hint := opts.TempoCandidatesHint[0]
		detectOpts.TempoHint = &hint
	}
	detection := onset.Detect(buf, detectOpts)

	refined := onset.Refine(buf, detection.Onsets, 28)
	detection.Onsets = refined

	provider := deps.MetadataProvider
	if provider == nil {
		provider = metadata.NullProvider{}
	}
	detected, err := provider.Detect(inputPath)
	if err != nil {
		logger.Warn("metadata detection failed", "error", err)
		detected = metadata.Metadata{}
	}

	backend, telemetry := classifier.Select(classifier.SelectOptions{
		UseML:     opts.UseMLClassifier,
		ModelPath: opts.MLModelPath,
	}, logger)

	hits := classifier.ClassifyAll(buf, detection.Onsets, backend, opts.ConfidenceThreshold)

	var forcedBPM, forcedOffset, forcedStep *float64
	if opts.ForcedBPM != nil {
		forcedBPM = opts.ForcedBPM
	}
	if opts.ForcedOffset != nil {
		forcedOffset = opts.ForcedOffset
	}
	if opts.ForcedStep != nil {
		forcedStep = opts.ForcedStep
	}

	assembleOpts := beatmap.AssembleOptions{
		Grid:            opts.QuantizationGrid,
		MaxSnapErrorMS:  opts.MaxSnapErrorMS,
		TempoCandidates: detection.TempoCandidates,
		TempoHints:      opts.TempoCandidatesHint,
		Forced: beatmap.ForcedOverrides{
			BPM:               forcedBPM,
			OffsetMS:          forcedOffset,
			StepMS:            forcedStep,
			ForceQuantization: opts.ForceQuantization,
		},
		Metadata:          detected,
		ClassifierMode:    string(telemetry.Mode),
		ClassifierWarning: telemetry.Warning,
	}

	bm, debug := beatmap.Assemble(buf, detection, hits, assembleOpts)

	result := Result{Beatmap: bm, Telemetry: telemetry}
	if opts.DebugOutputPath != "" {
		result.Debug = &debug
	}
	return result, nil
}

// MarshalBeatmap renders the beatmap as indented JSON, matching spec.md
// §6's output format.
func MarshalBeatmap(bm beatmap.Beatmap) ([]byte, error) {
	data, err := json.MarshalIndent(bm, "", "  ")
	if err != nil {
		return nil, config.NewError(config.KindIOError, "marshal beatmap", err)
	}
	return data, nil
}

// MarshalDebug renders the debug payload as indented JSON, or returns nil
// if debug is nil.
func MarshalDebug(debug *beatmap.DebugPayload) ([]byte, error) {
	if debug == nil {
		return nil, nil
	}
	data, err := json.MarshalIndent(debug, "", "  ")
	if err != nil {
		return nil, config.NewError(config.KindIOError, "marshal debug payload", err)
	}
	return data, nil
}

// CacheOptionsView narrows Options to the fields that affect pipeline
// output, used as the cache-key payload so cosmetic fields like
// DebugOutputPath don't bust the cache needlessly.
func CacheOptionsView(opts config.Options) map[string]any {
	return map[string]any{
		"isolate_drums":         opts.IsolateDrums,
		"confidence_threshold":  opts.ConfidenceThreshold,
		"detection_sensitivity": opts.DetectionSensitivity,
		"quantization_grid":     opts.QuantizationGrid,
		"max_snap_error_ms":     opts.MaxSnapErrorMS,
		"forced_bpm":            opts.ForcedBPM,
		"forced_offset_ms":      opts.ForcedOffset,
		"forced_step_ms":        opts.ForcedStep,
		"force_quantization":    opts.ForceQuantization,
		"tempo_candidates_hint": opts.TempoCandidatesHint,
		"use_ml_classifier":     opts.UseMLClassifier,
		"ml_model_path":         opts.MLModelPath,
	}
}
