// Command beatsight converts a drum recording into a rhythm-game beatmap,
// per spec.md §6. Grounded on the teacher's cmd/engine/main.go structured-
// logging and graceful-exit conventions, narrowed from a long-running gRPC
// server to a single-shot CLI pipeline run.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rosacry/beatsight/internal/config"
	"github.com/rosacry/beatsight/internal/exporter"
	"github.com/rosacry/beatsight/internal/isolator"
	"github.com/rosacry/beatsight/internal/pipeline"
	"github.com/rosacry/beatsight/internal/store"
)

func main() {
	opts, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	opts.ResolveUseMLFromEnv()
	opts.ResolveMLModelPathFromEnv()

	if opts.DebugOutputPath != "" {
		config.EnableDebugStacks()
	}

	level := slog.LevelInfo
	switch opts.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if opts.InputPath == "" || opts.OutputPath == "" {
		logger.Error("--input and --output are required")
		os.Exit(1)
	}

	var iso isolator.Isolator
	if opts.IsolatorAddr != "" {
		remote, err := isolator.NewRemoteClient(opts.IsolatorAddr, logger)
		if err != nil {
			logger.Warn("isolator unavailable, using passthrough", "error", err)
			iso = isolator.Passthrough{}
		} else {
			defer remote.Close()
			iso = remote
		}
	}

	var cache *store.DB
	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
			logger.Warn("failed to create cache dir, continuing without run cache", "error", err)
		} else if db, err := store.Open(opts.CacheDir, logger); err != nil {
			logger.Warn("failed to open run cache, continuing without it", "error", err)
		} else {
			cache = db
			defer cache.Close()
		}
	}

	result, err := pipeline.Process(opts.InputPath, opts, pipeline.Deps{Isolator: iso, Logger: logger})
	if err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}

	beatmapJSON, err := pipeline.MarshalBeatmap(result.Beatmap)
	if err != nil {
		logger.Error("marshal beatmap failed", "error", err)
		os.Exit(1)
	}
	debugJSON, err := pipeline.MarshalDebug(result.Debug)
	if err != nil {
		logger.Error("marshal debug payload failed", "error", err)
		os.Exit(1)
	}

	outDir := filepath.Dir(opts.OutputPath)
	baseName := trimExt(filepath.Base(opts.OutputPath))
	exportResult, err := exporter.Write(outDir, baseName, exporter.Artifacts{
		BeatmapJSON: beatmapJSON,
		DebugJSON:   debugJSON,
	})
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}

	if opts.DebugOutputPath != "" {
		if err := os.WriteFile(opts.DebugOutputPath, debugJSON, 0o644); err != nil {
			logger.Error("write debug payload failed", "error", err)
			os.Exit(1)
		}
	}

	if cache != nil {
		if key, err := cacheKeyFor(result.Beatmap.Audio.Hash, opts); err == nil {
			entry := store.Entry{BeatmapJSON: string(beatmapJSON), DebugJSON: string(debugJSON)}
			if err := cache.Put(key, result.Beatmap.Audio.Hash, pipeline.CacheOptionsView(opts), entry); err != nil {
				logger.Warn("failed to write run cache", "error", err)
			}
		}
	}

	logger.Info("beatmap generated",
		"beatmap", exportResult.BeatmapPath,
		"classifier_mode", result.Telemetry.Mode,
		"hit_count", len(result.Beatmap.HitObjects),
	)
}

func cacheKeyFor(sourceHash string, opts config.Options) (string, error) {
	return store.Key(sourceHash, pipeline.CacheOptionsView(opts))
}

func trimExt(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}
