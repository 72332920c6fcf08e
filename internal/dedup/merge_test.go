package dedup

import (
	"testing"
	"time"

	"github.com/ozevents/marquee/internal/model"
)

func TestChoosePrimary_SourcePriority(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil)

	candidates := []model.CanonicalEvent{
		cand("whatson", "a", "Gig", "Forum", date(2025, 8, 1), nil),
		cand("ticketek", "b", "Gig", "Forum", date(2025, 8, 1), nil),
		cand("eventbrite", "c", "Gig", "Forum", date(2025, 8, 1), nil),
	}

	if got := engine.choosePrimary([]int{0, 1, 2}, candidates); got != 1 {
		t.Errorf("choosePrimary = %d, want ticketek member 1", got)
	}
}

func TestChoosePrimary_CompletenessTieBreak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SourcePriority = nil // equal rank for every source
	engine := NewEngine(cfg, nil)

	sparse := cand("whatson", "a", "Gig", "Forum", date(2025, 8, 1), nil)
	rich := cand("eventbrite", "b", "Gig", "Forum", date(2025, 8, 1), nil)
	rich.Description = "A full description of the event with plenty of substance in it."
	rich.ImageURL = "https://img.example/gig.jpg"
	rich.IsFree = true

	if got := engine.choosePrimary([]int{0, 1}, []model.CanonicalEvent{sparse, rich}); got != 1 {
		t.Errorf("choosePrimary = %d, want the more complete member 1", got)
	}
}

func TestMergeCluster_FieldRules(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil)

	min, max := 30.0, 80.0
	primary := cand("ticketek", "p", "Gig", "Forum", date(2025, 8, 1), nil)
	primary.Description = "Short blurb."
	primary.Venue.Address = "TBA"

	alt := cand("eventbrite", "q", "Gig", "The Forum Melbourne", date(2025, 8, 1), datePtr(2025, 8, 3))
	alt.Description = "A much longer and genuinely informative description of the performance."
	alt.ImageURL = "https://img.example/gig.jpg"
	alt.PriceMin = &min
	alt.PriceMax = &max
	alt.Venue.Address = "154 Flinders St"
	alt.Venue.Suburb = "Melbourne"

	merged := engine.mergeCluster(0, []int{0, 1}, []model.CanonicalEvent{primary, alt})

	if merged.Source != "ticketek" {
		t.Errorf("primary identity lost: %s", merged.Source)
	}
	if merged.Description != alt.Description {
		t.Errorf("longer description should win, got %q", merged.Description)
	}
	if merged.ImageURL != alt.ImageURL {
		t.Error("missing image should fill from alternate")
	}
	if merged.PriceMin == nil || *merged.PriceMin != min {
		t.Error("price should fill when primary has no price signal")
	}
	if merged.EndDate == nil {
		t.Error("end date should fill from alternate")
	}
	if merged.Venue.Address != "154 Flinders St" {
		t.Errorf("placeholder address should be replaced, got %q", merged.Venue.Address)
	}
	if merged.Venue.Suburb != "Melbourne" {
		t.Errorf("missing suburb should fill, got %q", merged.Venue.Suburb)
	}
	if len(merged.AlternateSources) != 1 || merged.AlternateSources[0].Source != "eventbrite" {
		t.Errorf("alternate cross-link missing: %+v", merged.AlternateSources)
	}
}

func TestMergeCluster_PrimaryPriceWins(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil)

	primaryMin := 25.0
	altMin := 99.0
	primary := cand("ticketek", "p", "Gig", "Forum", date(2025, 8, 1), nil)
	primary.PriceMin = &primaryMin
	alt := cand("eventbrite", "q", "Gig", "Forum", date(2025, 8, 1), nil)
	alt.PriceMin = &altMin

	merged := engine.mergeCluster(0, []int{0, 1}, []model.CanonicalEvent{primary, alt})
	if *merged.PriceMin != primaryMin {
		t.Errorf("primary price overwritten: %v", *merged.PriceMin)
	}
}

func TestBetterDescription(t *testing.T) {
	tests := []struct {
		current, candidate, want string
	}{
		{"short", "a considerably longer text", "a considerably longer text"},
		{"a considerably longer text", "short", "a considerably longer text"},
		{"TBA", "real text", "real text"},
		{"real text", "TBC", "real text"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := betterDescription(tt.current, tt.candidate); got != tt.want {
			t.Errorf("betterDescription(%q, %q) = %q, want %q", tt.current, tt.candidate, got, tt.want)
		}
	}
}

func TestIsPlaceholder(t *testing.T) {
	for _, s := range []string{"", "TBA", " tbc ", "N/A", "See Website", "Various"} {
		if !isPlaceholder(s) {
			t.Errorf("isPlaceholder(%q) = false, want true", s)
		}
	}
	if isPlaceholder("Regent Theatre") {
		t.Error("real venue flagged as placeholder")
	}
}

func TestCompleteness(t *testing.T) {
	sparse := model.CanonicalEvent{Venue: model.Venue{Address: "TBA"}}
	if got := completeness(sparse); got != 0 {
		t.Errorf("sparse completeness = %d, want 0", got)
	}

	full := model.CanonicalEvent{
		Description: "A description that comfortably clears the substantive length bar.",
		ImageURL:    "https://img.example/x.jpg",
		IsFree:      true,
		Venue:       model.Venue{Address: "1 Example St"},
		StartDate:   time.Now(),
	}
	if got := completeness(full); got != 5 {
		t.Errorf("full completeness = %d, want 5", got)
	}
}
