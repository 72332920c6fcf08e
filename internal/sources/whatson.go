package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ozevents/marquee/internal/fetch"
	"github.com/ozevents/marquee/internal/model"
	"github.com/ozevents/marquee/internal/taxonomy"
	"github.com/ozevents/marquee/internal/util"
)

const (
	whatsOnName = "whatson"
	whatsOnBase = "https://whatson.melbourne.vic.gov.au"

	// Pagination stops after this many consecutive pages yield no new
	// items; the hard cap guarantees termination on pathological sites.
	whatsOnStopAfterEmpty = 2
	whatsOnPageCap        = 50
)

// WhatsOn crawls the What's On Melbourne listing pages. Server-rendered
// HTML, so a plain HTTP client is enough: paginate the listing, then pull
// each detail page's structured data with a heuristic DOM fallback.
type WhatsOn struct {
	pages  *fetch.Client
	base   string
	logger *zap.Logger
	now    func() time.Time
}

func NewWhatsOn(deps Deps) *WhatsOn {
	return &WhatsOn{
		pages:  deps.Pages,
		base:   whatsOnBase,
		logger: deps.Logger.Named(whatsOnName),
		now:    deps.Now,
	}
}

func (w *WhatsOn) Name() string { return whatsOnName }

func (w *WhatsOn) Fetch(ctx context.Context, opts model.AdapterOptions) ([]model.CanonicalEvent, model.SourceStats, error) {
	started := w.now()
	var stats model.SourceStats
	defer func() { stats.DurationMs = time.Since(started).Milliseconds() }()

	urls := w.discover(ctx, &stats)
	if len(urls) == 0 {
		// Discovery found nothing: non-fatal, the orchestrator carries
		// on with other sources.
		stats.Errors++
		w.logger.Warn("listing discovery returned no items")
		return nil, stats, nil
	}

	if opts.MaxItems > 0 && len(urls) > opts.MaxItems {
		urls = urls[:opts.MaxItems]
	}
	stats.Fetched = len(urls)

	var events []model.CanonicalEvent
	for _, itemURL := range urls {
		if ctx.Err() != nil {
			break
		}

		d, ok := w.itemDetail(ctx, itemURL, opts, &stats)
		if !ok {
			continue
		}

		cls := taxonomy.Classify(taxonomy.Signal{Tag: tagFromURL(itemURL), Title: d.Title})
		if !categoryWanted(opts.CategoryFilter, string(cls.Category)) {
			continue
		}

		now := w.now()
		events = append(events, model.CanonicalEvent{
			Title:         d.Title,
			Description:   d.Description,
			Category:      cls.Category,
			Subcategories: []string{cls.Subcategory},
			StartDate:     d.Start,
			EndDate:       d.End,
			Venue:         d.Venue,
			PriceMin:      d.PriceMin,
			PriceMax:      d.PriceMax,
			IsFree:        d.IsFree,
			BookingURL:    itemURL,
			ImageURL:      d.ImageURL,
			Source:        whatsOnName,
			SourceID:      lastPathSegment(itemURL),
			ScrapedAt:     now,
			LastUpdated:   now,
		})
		stats.Normalised++
	}

	return events, stats, nil
}

// discover paginates the listing until no new items appear, collecting
// detail-page URLs in document order.
func (w *WhatsOn) discover(ctx context.Context, stats *model.SourceStats) []string {
	seen := make(map[string]bool)
	var urls []string
	emptyStreak := 0

	for page := 1; page <= whatsOnPageCap && emptyStreak < whatsOnStopAfterEmpty; page++ {
		pageURL := fmt.Sprintf("%s/whats-on?page=%d", w.base, page)

		body, err := w.pages.Page(ctx, pageURL, 0)
		if errors.Is(err, fetch.ErrDisallowed) {
			// Listing itself is off-limits; nothing to crawl here.
			return urls
		}
		if err != nil {
			stats.Errors++
			w.logger.Debug("listing page fetch failed", zap.Int("page", page), zap.Error(err))
			emptyStreak++
			continue
		}

		doc, err := parseHTML(body)
		if err != nil {
			stats.Errors++
			emptyStreak++
			continue
		}

		var newItems int
		for _, href := range anchorHrefs(doc, w.base, "/event/") {
			if !seen[href] {
				seen[href] = true
				urls = append(urls, href)
				newItems++
			}
		}

		if newItems == 0 {
			emptyStreak++
		} else {
			emptyStreak = 0
		}
	}

	return urls
}

// itemDetail produces the detail for one item, degrading to a skeleton
// record when detail fetching is disabled.
func (w *WhatsOn) itemDetail(ctx context.Context, itemURL string, opts model.AdapterOptions, stats *model.SourceStats) (detail, bool) {
	if !opts.FetchDetailPages {
		return detail{
			Title: util.TitleFromSlug(itemURL),
			Start: w.now().AddDate(0, 0, 14), // estimated, refined on a detail run
		}, true
	}

	body, err := w.pages.Page(ctx, itemURL, opts.DetailFetchDelay)
	if errors.Is(err, fetch.ErrDisallowed) {
		return detail{}, false
	}
	if err != nil {
		stats.Errors++
		w.logger.Debug("detail fetch failed", zap.String("url", itemURL), zap.Error(err))
		return detail{}, false
	}

	doc, err := parseHTML(body)
	if err != nil {
		stats.Errors++
		return detail{}, false
	}

	var d detail
	if ev, err := parseEventSchema(doc); err == nil {
		d = fromSchema(ev)
	} else {
		d = extractHeuristic(doc)
	}

	if d.Title == "" || d.Start.IsZero() {
		stats.Errors++
		w.logger.Debug("unparsable item", zap.String("url", itemURL))
		return detail{}, false
	}
	return d, true
}

// tagFromURL extracts the listing's category path segment, e.g.
// /event/music/some-gig -> "music".
func tagFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "event" {
		return parts[1]
	}
	return ""
}

func lastPathSegment(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) == 0 {
		return parsed.Host
	}
	return parts[len(parts)-1]
}
