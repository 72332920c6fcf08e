package sources

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/net/html"

	"github.com/ozevents/marquee/internal/model"
)

// detail is what either extraction path produces for one item page.
type detail struct {
	Title       string
	Description string
	Start       time.Time
	End         *time.Time
	Venue       model.Venue
	PriceMin    *float64
	PriceMax    *float64
	IsFree      bool
	ImageURL    string
}

// fromSchema maps a decoded schema block into a detail.
func fromSchema(ev *schemaEvent) detail {
	d := detail{
		Title:       strings.TrimSpace(ev.Name),
		Description: strings.TrimSpace(ev.Description),
		Venue: model.Venue{
			Name:    strings.TrimSpace(ev.Location.Name),
			Address: strings.TrimSpace(ev.Location.Address.Street),
			Suburb:  strings.TrimSpace(ev.Location.Address.Suburb),
		},
		PriceMin: ev.Offers.LowPrice,
		PriceMax: ev.Offers.HighPrice,
		IsFree:   ev.Offers.Free,
		ImageURL: ev.Image.URL,
	}

	d.Start, _ = parseSchemaDate(ev.StartDate) // validated by parseEventSchema
	if end, err := parseSchemaDate(ev.EndDate); err == nil && !end.Before(d.Start) {
		d.End = &end
	}
	return d
}

var priceRe = regexp.MustCompile(`\$\s?(\d+(?:\.\d{2})?)`)

var freeRe = regexp.MustCompile(`(?i)\b(free entry|free event|entry is free|admission free|free admission)\b`)

// dateCandidateRe pulls substrings likely to be dates out of page text
// for dateparse to try: "14 June 2025", "2025-06-14", "June 14".
var dateCandidateRe = regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{4}|\d{4}-\d{2}-\d{2}|(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2},?\s+\d{4})\b`)

// extractHeuristic is the fallback path when no structured data block is
// present or decodable: text-pattern price and date matching plus
// first-plausible-image selection.
func extractHeuristic(doc *html.Node) detail {
	var d detail

	if h1 := findFirst(doc, func(n *html.Node) bool { return isElement(n, "h1") }); h1 != nil {
		d.Title = nodeText(h1)
	}
	if d.Title == "" {
		if t := findFirst(doc, func(n *html.Node) bool { return isElement(n, "title") }); t != nil {
			d.Title = nodeText(t)
		}
	}

	text := nodeText(doc)

	if prices := priceRe.FindAllStringSubmatch(text, -1); len(prices) > 0 {
		min, max := parsePrices(prices)
		d.PriceMin, d.PriceMax = min, max
	} else if freeRe.MatchString(text) {
		d.IsFree = true
	}

	if start, end, ok := extractDates(text); ok {
		d.Start = start
		d.End = end
	}

	d.ImageURL = firstPlausibleImage(doc)

	// Sites commonly mark the blurb with a description class; the first
	// paragraph is the fallback.
	if n := findFirst(doc, func(n *html.Node) bool {
		return hasClass(n, "description") || hasClass(n, "event-description")
	}); n != nil {
		d.Description = nodeText(n)
	} else if p := findFirst(doc, func(n *html.Node) bool { return isElement(n, "p") }); p != nil {
		d.Description = nodeText(p)
	}

	return d
}

// parsePrices returns the minimum and maximum of all matched amounts.
func parsePrices(matches [][]string) (*float64, *float64) {
	var min, max float64
	var found bool
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if !found || v < min {
			min = v
		}
		if !found || v > max {
			max = v
		}
		found = true
	}
	if !found {
		return nil, nil
	}
	if min == max {
		return &min, nil
	}
	return &min, &max
}

// extractDates finds up to two parseable dates in the text: the first is
// the start, a later second one the end.
func extractDates(text string) (time.Time, *time.Time, bool) {
	candidates := dateCandidateRe.FindAllString(text, 4)

	var dates []time.Time
	for _, c := range candidates {
		if t, err := dateparse.ParseAny(c); err == nil {
			dates = append(dates, t)
		}
	}
	if len(dates) == 0 {
		return time.Time{}, nil, false
	}

	start := dates[0]
	for _, t := range dates[1:] {
		if t.Before(start) {
			start = t
		}
	}
	var end *time.Time
	for _, t := range dates[1:] {
		if t.After(start) && (end == nil || t.After(*end)) {
			tt := t
			end = &tt
		}
	}
	return start, end, true
}

// skipImageParts reject icons, logos and decorative assets.
var skipImageParts = []string{"logo", "icon", "sprite", "avatar", "placeholder", ".svg"}

// firstPlausibleImage returns the first content image on the page.
func firstPlausibleImage(doc *html.Node) string {
	// og:image is curated and preferred when present.
	if meta := findFirst(doc, func(n *html.Node) bool {
		return isElement(n, "meta") && attr(n, "property") == "og:image"
	}); meta != nil {
		if src := attr(meta, "content"); src != "" {
			return src
		}
	}

	for _, img := range findAll(doc, func(n *html.Node) bool { return isElement(n, "img") }) {
		src := attr(img, "src")
		if src == "" || !strings.HasPrefix(src, "http") {
			continue
		}
		lower := strings.ToLower(src)
		plausible := true
		for _, part := range skipImageParts {
			if strings.Contains(lower, part) {
				plausible = false
				break
			}
		}
		if plausible {
			return src
		}
	}
	return ""
}
