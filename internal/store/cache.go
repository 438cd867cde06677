package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound indicates the cache holds no entry for the given key.
var ErrNotFound = errors.New("beatsight: run cache entry not found")

// Entry is a cached run result: the assembled beatmap and optional debug
// payload, stored as their JSON encodings so the cache stays agnostic to
// the internal/beatmap types.
type Entry struct {
	BeatmapJSON string
	DebugJSON   string
}

// Key derives a cache key from the source audio hash (already computed by
// internal/audio.Load) and a canonical JSON encoding of the resolved
// options, so identical (file, options) pairs hit the same row.
func Key(sourceHash string, options any) (string, error) {
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("beatsight: marshal options for cache key: %w", err)
	}
	h := sha256.Sum256(append([]byte(sourceHash+"|"), optionsJSON...))
	return hex.EncodeToString(h[:]), nil
}

// optionsHash re-derives just the options portion, stored alongside the
// key for diagnostics and lookups by source alone.
func optionsHash(options any) (string, error) {
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(optionsJSON)
	return hex.EncodeToString(h[:]), nil
}

// Get looks up a cached run by key, returning ErrNotFound if absent.
func (d *DB) Get(cacheKey string) (Entry, error) {
	var entry Entry
	var debugJSON sql.NullString
	row := d.db.QueryRow(`SELECT beatmap_json, debug_json FROM runs WHERE cache_key = ?`, cacheKey)
	if err := row.Scan(&entry.BeatmapJSON, &debugJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("beatsight: query run cache: %w", err)
	}
	entry.DebugJSON = debugJSON.String
	return entry, nil
}

// Put stores (or replaces) a cached run result.
func (d *DB) Put(cacheKey, sourceHash string, options any, entry Entry) error {
	optHash, err := optionsHash(options)
	if err != nil {
		return fmt.Errorf("beatsight: hash options: %w", err)
	}
	_, err = d.db.Exec(`
		INSERT INTO runs (cache_key, source_hash, options_hash, beatmap_json, debug_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			beatmap_json = excluded.beatmap_json,
			debug_json = excluded.debug_json
	`, cacheKey, sourceHash, optHash, entry.BeatmapJSON, nullableString(entry.DebugJSON))
	if err != nil {
		return fmt.Errorf("beatsight: write run cache: %w", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
