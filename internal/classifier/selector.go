package classifier

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// SelectOptions carries the inputs to backend selection, mirroring
// spec.md §4.E's `classify(..., use_ml?, model_path?)` parameters and the
// BEATSIGHT_USE_ML_CLASSIFIER / BEATSIGHT_ML_MODEL_PATH environment
// fallbacks from spec.md §6.
type SelectOptions struct {
	UseML     *bool // nil means "unset"; env var fills the gap
	ModelPath string
}

// Select resolves a Backend and its Telemetry per spec.md §4.E's selection
// order:
//  1. use_ml explicitly false -> heuristic.
//  2. else a model file is available (arg or env) -> ML.
//  3. else -> heuristic, with a warning.
//
// The resolved telemetry is returned, not stored in package state, per the
// §9 redesign of the source material's module globals.
func Select(opts SelectOptions, logger *slog.Logger) (Backend, Telemetry) {
	useML := opts.UseML
	if useML == nil {
		if envVal, ok := boolFromEnv("BEATSIGHT_USE_ML_CLASSIFIER"); ok {
			useML = &envVal
		}
	}

	if useML != nil && !*useML {
		return Heuristic{}, Telemetry{Mode: ModeHeuristic}
	}

	modelPath := opts.ModelPath
	if modelPath == "" {
		modelPath = os.Getenv("BEATSIGHT_ML_MODEL_PATH")
	}

	backend, err := LoadML(modelPath)
	if err == nil {
		return backend, Telemetry{Mode: ModeML, ModelPath: modelPath}
	}

	warning := "ML classifier unavailable, falling back to heuristic: " + err.Error()
	if logger != nil {
		logger.Warn("classifier falling back to heuristic", "error", err, "model_path", modelPath)
	}
	return Heuristic{}, Telemetry{Mode: ModeHeuristic, Warning: warning}
}

func boolFromEnv(key string) (bool, bool) {
	raw, present := os.LookupEnv(key)
	if !present {
		return false, false
	}
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		return v, true
	}
	return false, false
}
