package dedup

import "strings"

// titleStopWords are tokens that carry no identity: articles, filler and
// promoter boilerplate that varies between listings of the same event.
var titleStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "of": true,
	"in": true, "at": true, "live": true, "tour": true,
	"presents": true, "show": true, "2025": true, "2026": true,
}

// venueSuffixes are generic venue-name tokens whose presence or absence
// causes spurious divergence ("Regent Theatre" vs "Regent Theatre
// Melbourne").
var venueSuffixes = map[string]bool{
	"theatre": true, "theater": true, "centre": true, "center": true,
	"hall": true, "arena": true, "stadium": true, "room": true,
	"melbourne": true, "the": true,
}

// normalizeTitle lowercases, strips punctuation and removes stop words.
func normalizeTitle(title string) string {
	return strings.Join(titleTokens(title), " ")
}

// titleTokens returns the significant tokens of a title in order.
func titleTokens(title string) []string {
	var tokens []string
	for _, tok := range strings.Fields(stripPunct(strings.ToLower(title))) {
		if !titleStopWords[tok] {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// normalizeVenue lowercases, strips punctuation and removes the generic
// suffix tokens.
func normalizeVenue(venue string) string {
	var tokens []string
	for _, tok := range strings.Fields(stripPunct(strings.ToLower(venue))) {
		if !venueSuffixes[tok] {
			tokens = append(tokens, tok)
		}
	}
	return strings.Join(tokens, " ")
}

// stripPunct replaces every non-alphanumeric rune with a space.
func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}
