package dedup

import (
	"strings"

	"github.com/ozevents/marquee/internal/model"
)

// placeholderValues are strings sources emit when they have nothing real.
var placeholderValues = map[string]bool{
	"": true, "tba": true, "tbc": true, "n/a": true,
	"to be announced": true, "to be confirmed": true,
	"various": true, "see website": true,
}

func isPlaceholder(s string) bool {
	return placeholderValues[strings.ToLower(strings.TrimSpace(s))]
}

const substantiveDescriptionLen = 50

// choosePrimary picks the cluster member whose record anchors the merge:
// highest source-priority rank first, field completeness as the
// tie-break.
func (e *Engine) choosePrimary(members []int, candidates []model.CanonicalEvent) int {
	best := members[0]
	for _, idx := range members[1:] {
		cand, cur := candidates[idx], candidates[best]

		candRank, curRank := e.cfg.priorityRank(cand.Source), e.cfg.priorityRank(cur.Source)
		if candRank < curRank {
			best = idx
			continue
		}
		if candRank == curRank && completeness(cand) > completeness(cur) {
			best = idx
		}
	}
	return best
}

// completeness scores how much usable detail a record carries.
func completeness(e model.CanonicalEvent) int {
	var points int
	if len(e.Description) >= substantiveDescriptionLen && !isPlaceholder(e.Description) {
		points += 2
	}
	if e.ImageURL != "" {
		points++
	}
	if e.PriceMin != nil || e.PriceMax != nil || e.IsFree {
		points++
	}
	if !isPlaceholder(e.Venue.Address) {
		points++
	}
	return points
}

// mergeCluster folds every cluster member into the primary record. The
// primary's value wins for each field except where an alternate carries
// strictly better detail; non-primary members become alternate-source
// cross-links.
func (e *Engine) mergeCluster(primary int, members []int, candidates []model.CanonicalEvent) model.MergedEvent {
	merged := model.MergedEvent{CanonicalEvent: candidates[primary]}

	for _, idx := range members {
		if idx == primary {
			continue
		}
		alt := candidates[idx]

		merged.AlternateSources = append(merged.AlternateSources, model.AlternateSource{
			Source:     alt.Source,
			BookingURL: alt.BookingURL,
		})

		merged.Description = betterDescription(merged.Description, alt.Description)

		if merged.ImageURL == "" {
			merged.ImageURL = alt.ImageURL
		}

		// Price bounds and the free flag fill from alternates only when
		// the primary has no price signal at all.
		if merged.PriceMin == nil && merged.PriceMax == nil && !merged.IsFree {
			merged.PriceMin = alt.PriceMin
			merged.PriceMax = alt.PriceMax
			merged.IsFree = alt.IsFree
		}

		if merged.EndDate == nil {
			merged.EndDate = alt.EndDate
		}

		merged.Venue.Name = longerNonPlaceholder(merged.Venue.Name, alt.Venue.Name)
		merged.Venue.Address = longerNonPlaceholder(merged.Venue.Address, alt.Venue.Address)
		if merged.Venue.Suburb == "" {
			merged.Venue.Suburb = alt.Venue.Suburb
		}
	}

	return merged
}

// betterDescription keeps the longer substantive text, discarding
// placeholders.
func betterDescription(current, candidate string) string {
	if isPlaceholder(candidate) {
		return current
	}
	if isPlaceholder(current) || len(candidate) > len(current) {
		return candidate
	}
	return current
}

func longerNonPlaceholder(current, candidate string) string {
	if isPlaceholder(current) {
		return candidate
	}
	if !isPlaceholder(candidate) && len(candidate) > len(current) {
		return candidate
	}
	return current
}
