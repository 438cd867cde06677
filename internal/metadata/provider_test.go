package metadata

import "testing"

func TestMergeIntoSetsDefaults(t *testing.T) {
	m := Metadata{Title: "Song", Artist: "Artist", Tags: []string{"rock"}, Provider: "tagscan"}
	target := map[string]any{}
	m.MergeInto(target)

	if target["title"] != "Song" {
		t.Fatalf("expected title set, got %v", target["title"])
	}
	if target["artist"] != "Artist" {
		t.Fatalf("expected artist set, got %v", target["artist"])
	}
	tags, _ := target["tags"].([]string)
	if len(tags) != 1 || tags[0] != "rock" {
		t.Fatalf("expected tags [rock], got %v", tags)
	}
}

func TestMergeIntoDoesNotOverwriteExisting(t *testing.T) {
	m := Metadata{Title: "New Title"}
	target := map[string]any{"title": "Existing Title"}
	m.MergeInto(target)
	if target["title"] != "Existing Title" {
		t.Fatalf("expected existing title preserved, got %v", target["title"])
	}
}

func TestMergeIntoDeduplicatesTags(t *testing.T) {
	m := Metadata{Tags: []string{"rock", "live"}}
	target := map[string]any{"tags": []string{"rock"}}
	m.MergeInto(target)
	tags, _ := target["tags"].([]string)
	count := 0
	for _, tg := range tags {
		if tg == "rock" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected rock to appear once, got %d times in %v", count, tags)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 unique tags, got %v", tags)
	}
}

func TestNullProviderReturnsEmpty(t *testing.T) {
	m, err := NullProvider{}.Detect("/some/path.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Title != "" || m.Artist != "" || len(m.Tags) != 0 {
		t.Fatalf("expected zero-value metadata, got %+v", m)
	}
}
