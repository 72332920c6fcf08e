package dedup

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ozevents/marquee/internal/model"
)

// ErrInvalidCandidate marks a candidate violating the adapter contract
// (missing title or start date). This is fatal for the ingestion run: a
// corrupt candidate pool must not silently produce a corrupt catalog.
var ErrInvalidCandidate = errors.New("dedup: invalid candidate")

// Engine runs the dedup pass. It is single-threaded over the full
// candidate pool and holds no state between passes.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine creates an engine with the given tunables.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Deduplicate clusters same-event candidates across sources and merges
// each cluster into one record. Candidates that never match anything
// pass through as single-member merges.
func (e *Engine) Deduplicate(candidates []model.CanonicalEvent) ([]model.MergedEvent, error) {
	for _, c := range candidates {
		if c.Title == "" || c.StartDate.IsZero() {
			return nil, fmt.Errorf("%w: %s missing title or start date", ErrInvalidCandidate, c.Key())
		}
	}

	titles := make([]string, len(candidates))
	venues := make([]string, len(candidates))
	for i, c := range candidates {
		titles[i] = normalizeTitle(c.Title)
		venues[i] = normalizeVenue(c.Venue.Name)
	}

	buckets := make(map[string][]int)
	for i, c := range candidates {
		for _, key := range bucketKeys(c.Title) {
			buckets[key] = append(buckets[key], i)
		}
	}

	uf := newUnionFind(len(candidates))
	scored := make(map[[2]int]bool)
	var matches []Match

	for _, members := range buckets {
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				i, j := members[x], members[y]
				if i > j {
					i, j = j, i
				}

				// Same-source listings are distinct by construction, and
				// a pair sharing several buckets is scored once.
				if candidates[i].Source == candidates[j].Source {
					continue
				}
				if scored[[2]int{i, j}] {
					continue
				}
				scored[[2]int{i, j}] = true

				m := e.scorePair(i, j, titles[i], titles[j], venues[i], venues[j], candidates[i], candidates[j])
				if m.Confidence >= e.cfg.MergeThreshold {
					matches = append(matches, m)
					uf.union(m.A, m.B)
					e.logger.Debug("duplicate match",
						zap.String("a", candidates[m.A].Key()),
						zap.String("b", candidates[m.B].Key()),
						zap.Float64("title", m.TitleScore),
						zap.Float64("venue", m.VenueScore),
						zap.Float64("date", m.DateScore),
						zap.Float64("confidence", m.Confidence))
				}
			}
		}
	}

	merged := make([]model.MergedEvent, 0, len(candidates))
	for _, members := range uf.clusters() {
		primary := e.choosePrimary(members, candidates)
		merged = append(merged, e.mergeCluster(primary, members, candidates))
	}

	// Deterministic output order regardless of map iteration.
	sort.Slice(merged, func(a, b int) bool {
		if !merged[a].StartDate.Equal(merged[b].StartDate) {
			return merged[a].StartDate.Before(merged[b].StartDate)
		}
		return merged[a].Key() < merged[b].Key()
	})

	e.logger.Info("dedup pass complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
		zap.Int("merged", len(merged)))

	return merged, nil
}
