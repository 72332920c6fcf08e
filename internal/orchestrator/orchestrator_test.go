package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ozevents/marquee/internal/model"
	"github.com/ozevents/marquee/internal/sources"
)

// fakeSource is a canned adapter for scheduling tests.
type fakeSource struct {
	name   string
	events []model.CanonicalEvent
	stats  model.SourceStats
	err    error
	panics bool
	calls  int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, opts model.AdapterOptions) ([]model.CanonicalEvent, model.SourceStats, error) {
	f.calls++
	if f.panics {
		panic("adapter blew up")
	}
	return f.events, f.stats, f.err
}

func fakeEvent(source, id string) model.CanonicalEvent {
	return model.CanonicalEvent{
		Title:     "Event " + id,
		Category:  model.CategoryOther,
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Source:    source,
		SourceID:  id,
	}
}

func newTestRegistry(fakes ...*fakeSource) *sources.Registry {
	registry := sources.NewRegistry(sources.Deps{})
	for _, f := range fakes {
		registry.Register(f)
	}
	return registry
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	alpha := &fakeSource{
		name:   "alpha",
		events: []model.CanonicalEvent{fakeEvent("alpha", "1"), fakeEvent("alpha", "2")},
		stats:  model.SourceStats{Fetched: 2, Normalised: 2},
	}
	beta := &fakeSource{name: "beta", err: errors.New("listing page unreachable")}
	gamma := &fakeSource{
		name:   "gamma",
		events: []model.CanonicalEvent{fakeEvent("gamma", "1")},
		stats:  model.SourceStats{Fetched: 1, Normalised: 1},
	}

	runner := NewRunner(newTestRegistry(alpha, beta, gamma), nil)
	result, err := runner.Run(context.Background(), Selection{
		Sources: []string{"alpha", "beta", "gamma"},
		Mode:    ModeParallel,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Events) != 3 {
		t.Errorf("expected 3 events from healthy sources, got %d", len(result.Events))
	}
	for _, ev := range result.Events {
		if ev.Source == "beta" {
			t.Error("failed source contributed events")
		}
	}
	if result.Stats["beta"].Errors == 0 {
		t.Error("failed source must report at least one error")
	}
	if result.Stats["alpha"].Errors != 0 || result.Stats["gamma"].Errors != 0 {
		t.Error("healthy sources must not inherit another source's failure")
	}
}

func TestRun_PanicIsolation(t *testing.T) {
	boom := &fakeSource{name: "boom", panics: true}
	calm := &fakeSource{
		name:   "calm",
		events: []model.CanonicalEvent{fakeEvent("calm", "1")},
	}

	runner := NewRunner(newTestRegistry(boom, calm), nil)
	result, err := runner.Run(context.Background(), Selection{
		Sources: []string{"boom", "calm"},
		Mode:    ModeParallel,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Events) != 1 {
		t.Errorf("expected the surviving source's event, got %d events", len(result.Events))
	}
	if result.Stats["boom"].Errors == 0 {
		t.Error("panicking source must report an error")
	}
}

func TestRun_SequentialContinuesPastFailure(t *testing.T) {
	first := &fakeSource{name: "first", err: errors.New("down")}
	second := &fakeSource{
		name:   "second",
		events: []model.CanonicalEvent{fakeEvent("second", "1")},
	}

	runner := NewRunner(newTestRegistry(first, second), nil)
	result, err := runner.Run(context.Background(), Selection{
		Sources: []string{"first", "second"},
		Mode:    ModeSequential,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if second.calls != 1 {
		t.Error("sequential run must continue after a failed adapter")
	}
	if len(result.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(result.Events))
	}
}

func TestRun_UnknownSourceFailsFast(t *testing.T) {
	good := &fakeSource{name: "good"}
	runner := NewRunner(newTestRegistry(good), nil)

	_, err := runner.Run(context.Background(), Selection{
		Sources: []string{"good", "nonexistent"},
	})
	if err == nil {
		t.Fatal("expected error for unknown source name")
	}
	if good.calls != 0 {
		t.Error("no adapter should run when name resolution fails")
	}
}

func TestRun_NoSources(t *testing.T) {
	runner := NewRunner(newTestRegistry(), nil)
	if _, err := runner.Run(context.Background(), Selection{}); err == nil {
		t.Fatal("expected error for empty selection")
	}
}

func TestRun_PerSourceOptions(t *testing.T) {
	var got model.AdapterOptions
	probe := &optionProbe{name: "probe", got: &got}

	registry := sources.NewRegistry(sources.Deps{})
	registry.Register(probe)

	runner := NewRunner(registry, nil)
	want := model.AdapterOptions{MaxItems: 7, FetchDetailPages: true}
	_, err := runner.Run(context.Background(), Selection{
		Sources:   []string{"probe"},
		Mode:      ModeSequential,
		PerSource: map[string]model.AdapterOptions{"probe": want},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.MaxItems != want.MaxItems || got.FetchDetailPages != want.FetchDetailPages {
		t.Errorf("adapter received options %+v, want %+v", got, want)
	}
}

type optionProbe struct {
	name string
	got  *model.AdapterOptions
}

func (p *optionProbe) Name() string { return p.name }

func (p *optionProbe) Fetch(ctx context.Context, opts model.AdapterOptions) ([]model.CanonicalEvent, model.SourceStats, error) {
	*p.got = opts
	return nil, model.SourceStats{}, nil
}

func TestParseMode(t *testing.T) {
	if _, err := ParseMode("parallel"); err != nil {
		t.Errorf("parallel: %v", err)
	}
	if _, err := ParseMode("sequential"); err != nil {
		t.Errorf("sequential: %v", err)
	}
	if _, err := ParseMode("turbo"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
