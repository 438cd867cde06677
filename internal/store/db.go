// Package store implements the optional run cache from SPEC_FULL.md §6: a
// local SQLite database keyed by (source audio hash, options hash) that
// stores each run's beatmap and debug JSON and looks them up again by key.
// cmd/beatsight writes entries after a run; it does not read them back, so
// a repeated run still executes the DSP pipeline.
// Adapted from the teacher's internal/storage/db.go open+WAL+embedded-
// migrations pattern, narrowed from a full relational job-queue schema
// down to a single cache table.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the SQLite-backed run cache.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the run-cache database under dataDir
// and applies any pending migrations.
func Open(dataDir string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dbPath := filepath.Join(dataDir, "beatsight.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("beatsight: open run cache: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("beatsight: enable WAL mode: %w", err)
	}

	store := &DB{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("beatsight: run cache migrations: %w", err)
	}
	return store, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) migrate() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var currentVersion int
	row := d.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("read current version: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		versionStr, _, _ := strings.Cut(entry.Name(), "_")
		version, err := strconv.Atoi(versionStr)
		if err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		d.logger.Info("applying run-cache migration", "version", version, "file", entry.Name())
		if _, err := d.db.Exec(string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := d.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}
