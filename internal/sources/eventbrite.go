package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ozevents/marquee/internal/fetch"
	"github.com/ozevents/marquee/internal/model"
	"github.com/ozevents/marquee/internal/taxonomy"
)

const (
	eventbriteName    = "eventbrite"
	eventbriteFeedURL = "https://www.eventbrite.com.au/api/v3/destination/search/melbourne?page=%d"
	eventbritePageCap = 20
)

// Eventbrite consumes the structured listing feed: typed JSON pages for
// discovery, then per-item detail pages whose ld+json block fills in
// price bounds and venue detail the feed omits.
type Eventbrite struct {
	pages   *fetch.Client
	feedURL string // printf template with one %d page placeholder
	logger  *zap.Logger
	now     func() time.Time
}

func NewEventbrite(deps Deps) *Eventbrite {
	return &Eventbrite{
		pages:   deps.Pages,
		feedURL: eventbriteFeedURL,
		logger:  deps.Logger.Named(eventbriteName),
		now:     deps.Now,
	}
}

func (e *Eventbrite) Name() string { return eventbriteName }

// feedPage is the typed shape of one listing-feed page. The decode is
// strict: a page that does not fit this shape is an error for that page,
// not a reason to probe fields ad hoc.
type feedPage struct {
	Events     []feedEvent `json:"events"`
	Pagination struct {
		PageCount int `json:"page_count"`
	} `json:"pagination"`
}

type feedEvent struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	Summary   string   `json:"summary"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	IsFree    bool     `json:"is_free"`
	ImageURL  string   `json:"image_url"`
	Tags      []string `json:"tags"`
	Venue     struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Suburb  string `json:"suburb"`
	} `json:"primary_venue"`
}

func (e *Eventbrite) Fetch(ctx context.Context, opts model.AdapterOptions) ([]model.CanonicalEvent, model.SourceStats, error) {
	started := e.now()
	var stats model.SourceStats
	defer func() { stats.DurationMs = time.Since(started).Milliseconds() }()

	items := e.discover(ctx, opts, &stats)
	if len(items) == 0 {
		stats.Errors++
		e.logger.Warn("feed discovery returned no items")
		return nil, stats, nil
	}
	stats.Fetched = len(items)

	var events []model.CanonicalEvent
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		ev, ok := e.normalize(ctx, item, opts, &stats)
		if !ok {
			continue
		}
		if !categoryWanted(opts.CategoryFilter, string(ev.Category)) {
			continue
		}
		events = append(events, ev)
		stats.Normalised++
	}

	return events, stats, nil
}

// discover walks the paginated feed until the advertised page count, the
// item cap, or an empty page.
func (e *Eventbrite) discover(ctx context.Context, opts model.AdapterOptions, stats *model.SourceStats) []feedEvent {
	var items []feedEvent
	pageCount := eventbritePageCap

	for page := 1; page <= pageCount && page <= eventbritePageCap; page++ {
		if opts.MaxItems > 0 && len(items) >= opts.MaxItems {
			break
		}

		feedURL := fmt.Sprintf(e.feedURL, page)
		body, err := e.pages.Page(ctx, feedURL, 0)
		if errors.Is(err, fetch.ErrDisallowed) {
			break
		}
		if err != nil {
			stats.Errors++
			e.logger.Debug("feed page fetch failed", zap.Int("page", page), zap.Error(err))
			break
		}

		var fp feedPage
		if err := json.Unmarshal(body, &fp); err != nil {
			stats.Errors++
			e.logger.Debug("feed page decode failed", zap.Int("page", page), zap.Error(err))
			break
		}

		if fp.Pagination.PageCount > 0 && fp.Pagination.PageCount < pageCount {
			pageCount = fp.Pagination.PageCount
		}
		if len(fp.Events) == 0 {
			break
		}
		items = append(items, fp.Events...)
	}

	if opts.MaxItems > 0 && len(items) > opts.MaxItems {
		items = items[:opts.MaxItems]
	}
	return items
}

// normalize maps one feed item to a canonical event, optionally refined
// from the item page's structured data.
func (e *Eventbrite) normalize(ctx context.Context, item feedEvent, opts model.AdapterOptions, stats *model.SourceStats) (model.CanonicalEvent, bool) {
	if item.Name == "" || item.URL == "" {
		stats.Errors++
		return model.CanonicalEvent{}, false
	}

	start, err := parseSchemaDate(item.StartDate)
	if err != nil {
		stats.Errors++
		e.logger.Debug("unparseable start date", zap.String("id", item.ID), zap.String("value", item.StartDate))
		return model.CanonicalEvent{}, false
	}

	var end *time.Time
	if t, err := parseSchemaDate(item.EndDate); err == nil && !t.Before(start) {
		end = &t
	}

	cls := taxonomy.Classify(taxonomy.Signal{
		Tag:   strings.Join(item.Tags, " "),
		Title: item.Name,
	})

	now := e.now()
	ev := model.CanonicalEvent{
		Title:         item.Name,
		Description:   item.Summary,
		Category:      cls.Category,
		Subcategories: []string{cls.Subcategory},
		StartDate:     start,
		EndDate:       end,
		Venue: model.Venue{
			Name:    item.Venue.Name,
			Address: item.Venue.Address,
			Suburb:  item.Venue.Suburb,
		},
		IsFree:      item.IsFree,
		BookingURL:  item.URL,
		ImageURL:    item.ImageURL,
		Source:      eventbriteName,
		SourceID:    item.ID,
		ScrapedAt:   now,
		LastUpdated: now,
	}

	if opts.FetchDetailPages {
		e.refineFromDetail(ctx, &ev, opts, stats)
	}

	return ev, true
}

// refineFromDetail fills price bounds and missing venue fields from the
// item page's schema block. Failures here degrade to the feed record.
func (e *Eventbrite) refineFromDetail(ctx context.Context, ev *model.CanonicalEvent, opts model.AdapterOptions, stats *model.SourceStats) {
	body, err := e.pages.Page(ctx, ev.BookingURL, opts.DetailFetchDelay)
	if err != nil {
		if !errors.Is(err, fetch.ErrDisallowed) {
			stats.Errors++
		}
		return
	}

	doc, err := parseHTML(body)
	if err != nil {
		stats.Errors++
		return
	}

	sev, err := parseEventSchema(doc)
	if err != nil {
		return // no schema block on the page; the feed record stands
	}
	d := fromSchema(sev)

	if ev.PriceMin == nil && ev.PriceMax == nil && !ev.IsFree {
		ev.PriceMin, ev.PriceMax, ev.IsFree = d.PriceMin, d.PriceMax, d.IsFree
	}
	if ev.Venue.Name == "" {
		ev.Venue = d.Venue
	}
	if ev.Description == "" {
		ev.Description = d.Description
	}
	if ev.ImageURL == "" {
		ev.ImageURL = d.ImageURL
	}
	if ev.EndDate == nil {
		ev.EndDate = d.End
	}
}
