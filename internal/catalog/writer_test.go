package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ozevents/marquee/internal/model"
)

func merged(source, id, title string) model.MergedEvent {
	return model.MergedEvent{
		CanonicalEvent: model.CanonicalEvent{
			Title:     title,
			Category:  model.CategoryOther,
			StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Source:    source,
			SourceID:  id,
		},
	}
}

func TestJSONWriter_UpsertIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	w := NewJSONWriter(path)
	ctx := context.Background()

	if err := w.Upsert(ctx, "whatson", "1", merged("whatson", "1", "First Title")); err != nil {
		t.Fatal(err)
	}
	if err := w.Upsert(ctx, "whatson", "1", merged("whatson", "1", "Replaced Title")); err != nil {
		t.Fatal(err)
	}
	if err := w.Upsert(ctx, "ticketek", "a", merged("ticketek", "a", "Other Event")); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read catalog: %v", err)
	}

	var out []model.MergedEvent
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal catalog: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records after replacing upsert, got %d", len(out))
	}

	// Records are keyed and sorted by source:sourceId.
	if out[0].Key() != "ticketek:a" || out[1].Key() != "whatson:1" {
		t.Errorf("order = %s, %s", out[0].Key(), out[1].Key())
	}
	if out[1].Title != "Replaced Title" {
		t.Errorf("upsert did not replace: %q", out[1].Title)
	}
}

func TestJSONWriter_FlushEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	w := NewJSONWriter(path)

	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out []model.MergedEvent
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("empty catalog is not valid JSON: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty list, got %d", len(out))
	}
}

func TestMemoryWriter(t *testing.T) {
	w := NewMemoryWriter()
	ctx := context.Background()

	_ = w.Upsert(ctx, "whatson", "1", merged("whatson", "1", "A"))
	_ = w.Upsert(ctx, "whatson", "1", merged("whatson", "1", "B"))

	events := w.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 record, got %d", len(events))
	}
	if events["whatson:1"].Title != "B" {
		t.Errorf("latest upsert should win, got %q", events["whatson:1"].Title)
	}

	// Events returns a copy, not the live map.
	delete(events, "whatson:1")
	if len(w.Events()) != 1 {
		t.Error("mutating the returned map affected the writer")
	}
}
