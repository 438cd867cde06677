package store

import (
	"log/slog"
	"testing"
)

func TestKeyDeterministic(t *testing.T) {
	k1, err := Key("sha256:abc", map[string]any{"grid": "sixteenth"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k2, err := Key("sha256:abc", map[string]any{"grid": "sixteenth"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k1 != k2 {
		t.Fatal("expected identical keys for identical inputs")
	}
}

func TestKeyDiffersOnOptions(t *testing.T) {
	k1, _ := Key("sha256:abc", map[string]any{"grid": "sixteenth"})
	k2, _ := Key("sha256:abc", map[string]any{"grid": "eighth"})
	if k1 == k2 {
		t.Fatal("expected different keys for different options")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error opening db: %v", err)
	}
	defer db.Close()

	key, err := Key("sha256:abc", map[string]any{"grid": "sixteenth"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Entry{BeatmapJSON: `{"id":"x"}`, DebugJSON: `{"foo":1}`}
	if err := db.Put(key, "sha256:abc", map[string]any{"grid": "sixteenth"}, want); err != nil {
		t.Fatalf("unexpected error on put: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("unexpected error on get: %v", err)
	}
	if got.BeatmapJSON != want.BeatmapJSON || got.DebugJSON != want.DebugJSON {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error opening db: %v", err)
	}
	defer db.Close()

	_, err = db.Get("does-not-exist")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
