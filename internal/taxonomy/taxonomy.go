// Package taxonomy maps source-specific genre, tag and title signals onto
// the closed catalog taxonomy. It is a pure function library: no I/O, no
// state, deterministic output for a given signal.
package taxonomy

import (
	"strings"

	"github.com/ozevents/marquee/internal/model"
)

// Signal carries whatever classification hints a source exposes. Any
// field may be empty; richer fields win over weaker ones.
type Signal struct {
	Segment  string // coarse source bucket, e.g. "Arts & Theatre"
	Genre    string // e.g. "Rock", "Ballet"
	SubGenre string // e.g. "Indie Rock"
	Tag      string // free-form source tag
	Title    string // raw listing title, weakest signal
}

// Classification is the result of mapping a signal.
type Classification struct {
	Category    model.Category
	Subcategory string
}

// DefaultSubcategory is assigned when no keyword rule matches within the
// resolved category.
const DefaultSubcategory = "general"

// subcategories is the fixed vocabulary per category.
var subcategories = map[model.Category][]string{
	model.CategoryMusic:   {"rock", "pop", "jazz", "classical", "electronic", "hip-hop", "country", "folk", "metal", "blues", "festival", "general"},
	model.CategoryTheatre: {"drama", "musical", "comedy", "ballet", "dance", "opera", "cabaret", "circus", "general"},
	model.CategorySports:  {"football", "cricket", "tennis", "basketball", "soccer", "rugby", "racing", "general"},
	model.CategoryArts:    {"exhibition", "film", "literature", "workshop", "general"},
	model.CategoryFamily:  {"kids", "show", "workshop", "general"},
	model.CategoryOther:   {"community", "market", "festival", "general"},
}

// ValidSubcategory reports whether sub belongs to cat's vocabulary.
func ValidSubcategory(cat model.Category, sub string) bool {
	for _, s := range subcategories[cat] {
		if s == sub {
			return true
		}
	}
	return false
}

// keywordRule maps a keyword found in a signal to a classification.
type keywordRule struct {
	keyword string
	cat     model.Category
	sub     string
}

// genreRules are checked against genre, sub-genre and tag text, in order.
// Specific keywords come before generic ones; first match wins.
var genreRules = []keywordRule{
	{"hip hop", model.CategoryMusic, "hip-hop"},
	{"hip-hop", model.CategoryMusic, "hip-hop"},
	{"rap", model.CategoryMusic, "hip-hop"},
	{"indie", model.CategoryMusic, "rock"},
	{"rock", model.CategoryMusic, "rock"},
	{"metal", model.CategoryMusic, "metal"},
	{"punk", model.CategoryMusic, "rock"},
	{"jazz", model.CategoryMusic, "jazz"},
	{"blues", model.CategoryMusic, "blues"},
	{"symphony", model.CategoryMusic, "classical"},
	{"orchestra", model.CategoryMusic, "classical"},
	{"classical", model.CategoryMusic, "classical"},
	{"electronic", model.CategoryMusic, "electronic"},
	{"techno", model.CategoryMusic, "electronic"},
	{"house", model.CategoryMusic, "electronic"},
	{"dance music", model.CategoryMusic, "electronic"},
	{"country", model.CategoryMusic, "country"},
	{"folk", model.CategoryMusic, "folk"},
	{"acoustic", model.CategoryMusic, "folk"},
	{"pop", model.CategoryMusic, "pop"},

	{"ballet", model.CategoryTheatre, "ballet"},
	{"opera", model.CategoryTheatre, "opera"},
	{"musical", model.CategoryTheatre, "musical"},
	{"cabaret", model.CategoryTheatre, "cabaret"},
	{"circus", model.CategoryTheatre, "circus"},
	{"stand-up", model.CategoryTheatre, "comedy"},
	{"stand up", model.CategoryTheatre, "comedy"},
	{"comedy", model.CategoryTheatre, "comedy"},
	{"drama", model.CategoryTheatre, "drama"},
	{"play", model.CategoryTheatre, "drama"},
	{"dance", model.CategoryTheatre, "dance"},
	{"theatre", model.CategoryTheatre, "general"},
	{"theater", model.CategoryTheatre, "general"},

	{"afl", model.CategorySports, "football"},
	{"football", model.CategorySports, "football"},
	{"cricket", model.CategorySports, "cricket"},
	{"tennis", model.CategorySports, "tennis"},
	{"basketball", model.CategorySports, "basketball"},
	{"soccer", model.CategorySports, "soccer"},
	{"rugby", model.CategorySports, "rugby"},
	{"motorsport", model.CategorySports, "racing"},
	{"racing", model.CategorySports, "racing"},
	{"grand prix", model.CategorySports, "racing"},

	{"exhibition", model.CategoryArts, "exhibition"},
	{"gallery", model.CategoryArts, "exhibition"},
	{"film", model.CategoryArts, "film"},
	{"cinema", model.CategoryArts, "film"},
	{"book", model.CategoryArts, "literature"},
	{"poetry", model.CategoryArts, "literature"},
	{"workshop", model.CategoryArts, "workshop"},

	{"kids", model.CategoryFamily, "kids"},
	{"children", model.CategoryFamily, "kids"},
	{"family", model.CategoryFamily, "show"},

	{"market", model.CategoryOther, "market"},
	{"community", model.CategoryOther, "community"},
	{"festival", model.CategoryOther, "festival"},
}

// segmentDefaults map a source's coarse segment to a category when no
// keyword rule fired. Subcategory is the category default.
var segmentDefaults = map[string]model.Category{
	"music":            model.CategoryMusic,
	"concerts":         model.CategoryMusic,
	"arts & theatre":   model.CategoryTheatre,
	"arts and theatre": model.CategoryTheatre,
	"theatre":          model.CategoryTheatre,
	"sports":           model.CategorySports,
	"sport":            model.CategorySports,
	"arts":             model.CategoryArts,
	"family":           model.CategoryFamily,
}

// Classify maps a source signal to a category and subcategory. Rules are
// evaluated in fixed priority order: sub-genre, genre and tag keywords
// first, then the segment default, then title keywords, then the total
// fallback. It never fails.
func Classify(sig Signal) Classification {
	for _, text := range []string{sig.SubGenre, sig.Genre, sig.Tag} {
		if c, ok := matchKeywords(text); ok {
			return c
		}
	}

	if cat, ok := segmentDefaults[strings.ToLower(strings.TrimSpace(sig.Segment))]; ok {
		// A title keyword can still refine the subcategory within the
		// segment's category, but never override the category itself.
		if c, ok := matchKeywords(sig.Title); ok && c.Category == cat {
			return c
		}
		return Classification{Category: cat, Subcategory: DefaultSubcategory}
	}

	if c, ok := matchKeywords(sig.Title); ok {
		return c
	}

	return Classification{Category: model.CategoryOther, Subcategory: DefaultSubcategory}
}

func matchKeywords(text string) (Classification, bool) {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return Classification{}, false
	}
	for _, rule := range genreRules {
		if strings.Contains(lower, rule.keyword) {
			return Classification{Category: rule.cat, Subcategory: rule.sub}, true
		}
	}
	return Classification{}, false
}
