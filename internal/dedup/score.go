package dedup

import (
	"strings"
	"time"

	"github.com/ozevents/marquee/internal/model"
)

// Match is one scored candidate pair with its component scores.
// Matches live only for the duration of a dedup pass.
type Match struct {
	A, B       int // candidate indexes
	TitleScore float64
	VenueScore float64
	DateScore  float64
	Confidence float64
}

const (
	nearWindow = 7 * 24 * time.Hour
	farWindow  = 14 * 24 * time.Hour
)

// scorePair computes the weighted pair confidence from normalized titles
// and venues plus the raw date intervals.
func (e *Engine) scorePair(i, j int, titleA, titleB, venueA, venueB string, a, b model.CanonicalEvent) Match {
	m := Match{
		A:          i,
		B:          j,
		TitleScore: stringScore(titleA, titleB),
		VenueScore: stringScore(venueA, venueB),
		DateScore:  dateScore(a, b),
	}
	m.Confidence = e.cfg.TitleWeight*m.TitleScore + e.cfg.VenueWeight*m.VenueScore + e.cfg.DateWeight*m.DateScore
	return m
}

// stringScore applies the three-tier scheme: identical, substring, then
// a general similarity coefficient.
func stringScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.95
	}
	return diceCoefficient(a, b)
}

// diceCoefficient is the Sørensen–Dice bigram similarity in [0,1].
func diceCoefficient(a, b string) float64 {
	bigramsA := bigrams(a)
	bigramsB := bigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0
	}

	var shared int
	for bg, n := range bigramsA {
		if m, ok := bigramsB[bg]; ok {
			if n < m {
				shared += n
			} else {
				shared += m
			}
		}
	}

	var totalA, totalB int
	for _, n := range bigramsA {
		totalA += n
	}
	for _, n := range bigramsB {
		totalB += n
	}

	return 2 * float64(shared) / float64(totalA+totalB)
}

func bigrams(s string) map[string]int {
	grams := make(map[string]int)
	runes := []rune(s)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}

// dateScore compares the [start,end] intervals of two events: full score
// on overlap, partial scores when the closest endpoints fall within the
// near or far window.
func dateScore(a, b model.CanonicalEvent) float64 {
	startA, endA := interval(a)
	startB, endB := interval(b)

	if !startA.After(endB) && !startB.After(endA) {
		return 1.0
	}

	var gap time.Duration
	if startA.After(endB) {
		gap = startA.Sub(endB)
	} else {
		gap = startB.Sub(endA)
	}

	switch {
	case gap <= nearWindow:
		return 0.8
	case gap <= farWindow:
		return 0.5
	default:
		return 0
	}
}

func interval(e model.CanonicalEvent) (time.Time, time.Time) {
	if e.EndDate != nil && e.EndDate.After(e.StartDate) {
		return e.StartDate, *e.EndDate
	}
	return e.StartDate, e.StartDate
}
