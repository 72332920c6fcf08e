// Package dedup reconciles overlapping listings of the same real-world
// event across sources into single merged catalog records.
package dedup

// Config holds the merge tunables. The weights and threshold are
// empirically chosen starting points, not fixed law; they are exposed in
// the runtime configuration.
type Config struct {
	TitleWeight    float64
	VenueWeight    float64
	DateWeight     float64
	MergeThreshold float64

	// SourcePriority is a fixed total order over known sources,
	// highest-trust first. Unknown sources rank below all known ones.
	SourcePriority []string
}

// DefaultConfig returns the standard merge parameters.
func DefaultConfig() Config {
	return Config{
		TitleWeight:    0.50,
		VenueWeight:    0.30,
		DateWeight:     0.20,
		MergeThreshold: 0.80,
		SourcePriority: []string{"ticketek", "eventbrite", "whatson"},
	}
}

// priorityRank returns the trust rank for a source; lower is better.
func (c Config) priorityRank(source string) int {
	for i, s := range c.SourcePriority {
		if s == source {
			return i
		}
	}
	return len(c.SourcePriority)
}
