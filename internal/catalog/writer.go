// Package catalog defines the write boundary the pipeline hands its
// merged records to. The pipeline assumes nothing about storage beyond
// an idempotent upsert keyed by (source, sourceId).
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/ozevents/marquee/internal/model"
)

// Writer persists merged events.
type Writer interface {
	// Upsert stores ev under (source, sourceID), replacing any previous
	// record with that key. Must be idempotent.
	Upsert(ctx context.Context, source, sourceID string, ev model.MergedEvent) error

	// Flush completes the write, e.g. committing a file.
	Flush(ctx context.Context) error
}

// JSONWriter accumulates upserts and writes them as one pretty-printed
// JSON document on Flush. It is the CLI's default sink.
type JSONWriter struct {
	path   string
	mu     sync.Mutex
	events map[string]model.MergedEvent
}

// NewJSONWriter creates a writer targeting path.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{
		path:   path,
		events: make(map[string]model.MergedEvent),
	}
}

func (w *JSONWriter) Upsert(_ context.Context, source, sourceID string, ev model.MergedEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events[source+":"+sourceID] = ev
	return nil
}

func (w *JSONWriter) Flush(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	keys := make([]string, 0, len(w.events))
	for k := range w.events {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.MergedEvent, 0, len(keys))
	for _, k := range keys {
		out = append(out, w.events[k])
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// MemoryWriter keeps upserts in memory, for tests and dry runs.
type MemoryWriter struct {
	mu     sync.Mutex
	events map[string]model.MergedEvent
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{events: make(map[string]model.MergedEvent)}
}

func (w *MemoryWriter) Upsert(_ context.Context, source, sourceID string, ev model.MergedEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events[source+":"+sourceID] = ev
	return nil
}

func (w *MemoryWriter) Flush(_ context.Context) error { return nil }

// Events returns a copy of everything upserted so far.
func (w *MemoryWriter) Events() map[string]model.MergedEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]model.MergedEvent, len(w.events))
	for k, v := range w.events {
		out[k] = v
	}
	return out
}
