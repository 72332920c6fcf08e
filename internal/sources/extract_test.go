package sources

import (
	"testing"
	"time"

	"golang.org/x/net/html"
)

func TestExtractHeuristic(t *testing.T) {
	page := `<html><head>
	<title>Fallback Title</title>
	<meta property="og:image" content="https://img.example/hero.jpg">
	</head><body>
	<h1> Winter Night Market </h1>
	<p>Weekly market under the sheds, 4 June 2025 to 27 August 2025.</p>
	<p>Entry $5, food from $12.50.</p>
	</body></html>`

	doc := mustParse(t, page)
	d := extractHeuristic(doc)

	if d.Title != "Winter Night Market" {
		t.Errorf("title = %q", d.Title)
	}
	if d.PriceMin == nil || *d.PriceMin != 5 {
		t.Errorf("price min = %+v", d.PriceMin)
	}
	if d.PriceMax == nil || *d.PriceMax != 12.50 {
		t.Errorf("price max = %+v", d.PriceMax)
	}
	if d.Start.IsZero() || d.Start.Month() != time.June {
		t.Errorf("start = %v", d.Start)
	}
	if d.End == nil || d.End.Month() != time.August {
		t.Errorf("end = %v", d.End)
	}
	if d.ImageURL != "https://img.example/hero.jpg" {
		t.Errorf("image = %q", d.ImageURL)
	}
	if d.Description == "" {
		t.Error("first paragraph should become the description")
	}
}

func TestExtractHeuristic_TitleFallsBackToTitleTag(t *testing.T) {
	doc := mustParse(t, `<html><head><title>Only Title</title></head><body><div>text</div></body></html>`)
	if d := extractHeuristic(doc); d.Title != "Only Title" {
		t.Errorf("title = %q", d.Title)
	}
}

func TestExtractHeuristic_DescriptionClassPreferred(t *testing.T) {
	page := `<html><body>
	<h1>Chamber Series</h1>
	<p>Buy tickets online.</p>
	<div class="hero event-description">An intimate evening of chamber music.</div>
	</body></html>`

	d := extractHeuristic(mustParse(t, page))
	if d.Description != "An intimate evening of chamber music." {
		t.Errorf("description = %q, want the marked-up blurb over the first paragraph", d.Description)
	}
}

func TestHasClass(t *testing.T) {
	doc := mustParse(t, `<html><body><div class="card event-card featured">x</div></body></html>`)
	div := findFirst(doc, func(n *html.Node) bool { return isElement(n, "div") })
	if div == nil {
		t.Fatal("no div parsed")
	}
	if !hasClass(div, "event-card") || !hasClass(div, "featured") {
		t.Error("listed classes should match")
	}
	if hasClass(div, "event") {
		t.Error("partial class names must not match")
	}
}

func TestExtractHeuristic_FreeEvent(t *testing.T) {
	doc := mustParse(t, `<html><body><h1>Open Day</h1><p>Free entry for everyone.</p></body></html>`)
	d := extractHeuristic(doc)
	if !d.IsFree {
		t.Error("free-entry phrasing should set IsFree")
	}
	if d.PriceMin != nil {
		t.Error("free event should carry no price")
	}
}

func TestParsePrices_SingleAmount(t *testing.T) {
	min, max := parsePrices([][]string{{"$40", "40"}, {"$40", "40"}})
	if min == nil || *min != 40 {
		t.Errorf("min = %+v", min)
	}
	if max != nil {
		t.Errorf("equal amounts should leave max nil, got %+v", max)
	}
}

func TestExtractDates(t *testing.T) {
	start, end, ok := extractDates("Season runs 1 September 2025 through 14 September 2025.")
	if !ok {
		t.Fatal("expected dates")
	}
	if start.Day() != 1 || start.Month() != time.September {
		t.Errorf("start = %v", start)
	}
	if end == nil || end.Day() != 14 {
		t.Errorf("end = %v", end)
	}

	if _, _, ok := extractDates("no dates in this text"); ok {
		t.Error("expected no dates")
	}

	// Single date: start only, no end.
	start, end, ok = extractDates("One night only: 2025-10-31.")
	if !ok || end != nil {
		t.Errorf("single date: start=%v end=%v ok=%v", start, end, ok)
	}
}

func TestFirstPlausibleImage_SkipsDecorative(t *testing.T) {
	page := `<html><body>
	<img src="https://cdn.example/logo.png">
	<img src="https://cdn.example/sprite-sheet.png">
	<img src="/relative/ignored.jpg">
	<img src="https://cdn.example/shows/hamlet-hero.jpg">
	</body></html>`

	if got := firstPlausibleImage(mustParse(t, page)); got != "https://cdn.example/shows/hamlet-hero.jpg" {
		t.Errorf("image = %q", got)
	}
}

func TestNodeText_SkipsScripts(t *testing.T) {
	page := `<html><body><p>visible</p><script>var hidden = 1;</script><style>.x{}</style></body></html>`
	if got := nodeText(mustParse(t, page)); got != "visible" {
		t.Errorf("nodeText = %q", got)
	}
}

func TestAnchorHrefs(t *testing.T) {
	page := `<html><body>
	<a href="/event/first">First</a>
	<a href="https://other.example/event/second">Second</a>
	<a href="/event/first">Duplicate</a>
	<a href="/about">Not an event</a>
	<a href="#">Empty-ish</a>
	</body></html>`

	hrefs := anchorHrefs(mustParse(t, page), "https://base.example", "/event/")
	want := []string{"https://base.example/event/first", "https://other.example/event/second"}
	if len(hrefs) != len(want) {
		t.Fatalf("hrefs = %v, want %v", hrefs, want)
	}
	for i := range want {
		if hrefs[i] != want[i] {
			t.Errorf("hrefs[%d] = %q, want %q", i, hrefs[i], want[i])
		}
	}
}
