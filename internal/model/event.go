package model

import "time"

// Category is the closed top-level taxonomy for catalog events.
type Category string

const (
	CategoryMusic   Category = "music"
	CategoryTheatre Category = "theatre"
	CategorySports  Category = "sports"
	CategoryArts    Category = "arts"
	CategoryFamily  Category = "family"
	CategoryOther   Category = "other"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMusic, CategoryTheatre, CategorySports, CategoryArts, CategoryFamily, CategoryOther:
		return true
	}
	return false
}

// Venue identifies where an event takes place.
type Venue struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Suburb  string `json:"suburb,omitempty"`
}

// CanonicalEvent is the normalized record every source adapter produces.
// (Source, SourceID) uniquely identifies a candidate before deduplication.
type CanonicalEvent struct {
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Category      Category   `json:"category"`
	Subcategories []string   `json:"subcategories,omitempty"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Venue         Venue      `json:"venue"`
	PriceMin      *float64   `json:"price_min,omitempty"`
	PriceMax      *float64   `json:"price_max,omitempty"`
	IsFree        bool       `json:"is_free"`
	BookingURL    string     `json:"booking_url"`
	ImageURL      string     `json:"image_url,omitempty"`
	Source        string     `json:"source"`
	SourceID      string     `json:"source_id"`
	ScrapedAt     time.Time  `json:"scraped_at"`
	LastUpdated   time.Time  `json:"last_updated"`
}

// Key returns the (source, sourceId) identity of the candidate.
func (e CanonicalEvent) Key() string {
	return e.Source + ":" + e.SourceID
}

// AlternateSource is a cross-link to another listing of the same event.
type AlternateSource struct {
	Source     string `json:"source"`
	BookingURL string `json:"booking_url"`
}

// MergedEvent is a deduplicated catalog record: one primary listing plus
// the listings absorbed into it.
type MergedEvent struct {
	CanonicalEvent
	AlternateSources []AlternateSource `json:"alternate_sources,omitempty"`
}

// SourceStats is the per-adapter outcome of one fetch. Stats are never
// merged across sources so failures stay attributable.
type SourceStats struct {
	Fetched    int   `json:"fetched"`
	Normalised int   `json:"normalised"`
	Errors     int   `json:"errors"`
	DurationMs int64 `json:"duration_ms"`
}

// AdapterOptions bounds and shapes a single adapter run.
type AdapterOptions struct {
	MaxItems         int           `json:"max_items"`
	FetchDetailPages bool          `json:"fetch_detail_pages"`
	DetailFetchDelay time.Duration `json:"detail_fetch_delay"`
	CategoryFilter   []string      `json:"category_filter,omitempty"`
}
