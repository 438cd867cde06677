// Package config resolves pipeline options from CLI flags and environment
// variables, grounded on the teacher's internal/config/config.go pattern.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
)

// Options bundles every pipeline knob from spec.md §6, with defaults
// matching that section exactly.
type Options struct {
	InputPath  string
	OutputPath string

	IsolateDrums         bool
	ConfidenceThreshold  float64
	DetectionSensitivity float64
	QuantizationGrid     string
	MaxSnapErrorMS       float64
	DebugOutputPath      string

	ForcedBPM    *float64
	ForcedOffset *float64
	ForcedStep   *float64

	ForceQuantization   bool
	TempoCandidatesHint []float64

	UseMLClassifier *bool
	MLModelPath     string
	MLDevice        string

	IsolatorAddr string
	CacheDir     string
	LogLevel     string
}

// Defaults returns the spec.md §6 default option set.
func Defaults() Options {
	return Options{
		IsolateDrums:         true,
		ConfidenceThreshold:  0.7,
		DetectionSensitivity: 60,
		QuantizationGrid:     "sixteenth",
		MaxSnapErrorMS:       12,
		LogLevel:             "info",
	}
}

// Parse builds Options from os.Args, mirroring the CLI surface in
// spec.md §6 and the teacher's flag.*Var + Parse() convention.
func Parse(args []string) (Options, error) {
	opts := Defaults()

	fs := flag.NewFlagSet("beatsight", flag.ContinueOnError)
	fs.StringVar(&opts.InputPath, "input", "", "input audio file path")
	fs.StringVar(&opts.OutputPath, "output", "", "output beatmap JSON path")
	noSeparation := fs.Bool("no-separation", false, "disable drum isolation")
	fs.Float64Var(&opts.ConfidenceThreshold, "confidence", opts.ConfidenceThreshold, "classifier confidence threshold")
	fs.Float64Var(&opts.DetectionSensitivity, "sensitivity", opts.DetectionSensitivity, "onset detection sensitivity [0,100]")
	fs.StringVar(&opts.QuantizationGrid, "quantization", opts.QuantizationGrid, "quantization grid (quarter, eighth, triplet, sixteenth, thirtysecond)")
	fs.Float64Var(&opts.MaxSnapErrorMS, "max-snap-error", opts.MaxSnapErrorMS, "maximum snap error in ms")
	fs.StringVar(&opts.DebugOutputPath, "debug", "", "debug payload output path")
	forceBPM := fs.Float64("force-bpm", 0, "force a specific BPM")
	forceOffset := fs.Float64("force-offset", 0, "force a specific offset in ms")
	forceStep := fs.Float64("force-step", 0, "force a specific quantization step in ms")
	fs.BoolVar(&opts.ForceQuantization, "force-quantization", false, "snap all hits regardless of tolerance")
	tempoCandidates := fs.String("tempo-candidates", "", "comma-separated tempo hints")
	fs.StringVar(&opts.MLModelPath, "ml-model", "", "ML classifier model path")
	fs.StringVar(&opts.MLDevice, "ml-device", "", "ML inference device")
	useML := fs.Bool("ml", false, "force ML classifier")
	noML := fs.Bool("no-ml", false, "force heuristic classifier")
	fs.StringVar(&opts.IsolatorAddr, "isolator-addr", "", "remote drum isolator gRPC address")
	fs.StringVar(&opts.CacheDir, "cache-dir", "", "run-cache directory (optional)")
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.IsolateDrums = !*noSeparation

	if *forceBPM > 0 {
		opts.ForcedBPM = forceBPM
	}
	if *forceOffset != 0 {
		opts.ForcedOffset = forceOffset
	}
	if *forceStep > 0 {
		opts.ForcedStep = forceStep
	}
	if *tempoCandidates != "" {
		for _, part := range strings.Split(*tempoCandidates, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return opts, NewError(KindInvalidOptions, "invalid --tempo-candidates value: "+part, err)
			}
			opts.TempoCandidatesHint = append(opts.TempoCandidatesHint, v)
		}
	}

	switch {
	case *useML && *noML:
		return opts, NewError(KindInvalidOptions, "--ml and --no-ml are contradictory", nil)
	case *useML:
		v := true
		opts.UseMLClassifier = &v
	case *noML:
		v := false
		opts.UseMLClassifier = &v
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// Validate checks for the InvalidOptions conditions spec.md §7 names:
// contradictory ML flags (checked during Parse), invalid grid, and
// out-of-range threshold.
func (o Options) Validate() error {
	if _, ok := gridDivisorNames[o.QuantizationGrid]; !ok {
		return NewError(KindInvalidOptions, "invalid quantization grid: "+o.QuantizationGrid, nil)
	}
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 1 {
		return NewError(KindInvalidOptions, "confidence_threshold out of range [0,1]", nil)
	}
	if o.DetectionSensitivity < 0 || o.DetectionSensitivity > 100 {
		return NewError(KindInvalidOptions, "detection_sensitivity out of range [0,100]", nil)
	}
	return nil
}

var gridDivisorNames = map[string]struct{}{
	"quarter": {}, "eighth": {}, "triplet": {}, "sixteenth": {}, "thirtysecond": {},
}

// ResolveUseMLFromEnv fills UseMLClassifier from BEATSIGHT_USE_ML_CLASSIFIER
// when the CLI left it unset, per spec.md §6.
func (o *Options) ResolveUseMLFromEnv() {
	if o.UseMLClassifier != nil {
		return
	}
	raw, ok := os.LookupEnv("BEATSIGHT_USE_ML_CLASSIFIER")
	if !ok {
		return
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		v := true
		o.UseMLClassifier = &v
	case "0", "false", "no", "off":
		v := false
		o.UseMLClassifier = &v
	}
}

// ResolveMLModelPathFromEnv fills MLModelPath from BEATSIGHT_ML_MODEL_PATH
// when unset, per spec.md §6.
func (o *Options) ResolveMLModelPathFromEnv() {
	if o.MLModelPath != "" {
		return
	}
	o.MLModelPath = os.Getenv("BEATSIGHT_ML_MODEL_PATH")
}

// DefaultDataDir mirrors the teacher's CARTOMIX_DATA_DIR pattern,
// retargeted to BeatSight's run cache.
func DefaultDataDir() string {
	if dir := os.Getenv("BEATSIGHT_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".beatsight"
	}
	return home + "/.beatsight"
}
