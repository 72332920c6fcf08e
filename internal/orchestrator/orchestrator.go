// Package orchestrator runs the configured adapters and aggregates their
// output. It is purely a collection and failure-isolation layer: no
// deduplication, no cross-adapter state.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ozevents/marquee/internal/model"
	"github.com/ozevents/marquee/internal/sources"
)

// Mode selects how adapters are scheduled.
type Mode string

const (
	ModeParallel   Mode = "parallel"
	ModeSequential Mode = "sequential"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeParallel, ModeSequential:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode: %q (want parallel or sequential)", s)
}

// Selection names the sources to run and their per-source options.
type Selection struct {
	Sources   []string
	Mode      Mode
	PerSource map[string]model.AdapterOptions
}

// Result aggregates every adapter's successful events plus per-source
// stats. Stats are never merged across sources so downstream alerting
// can attribute failures.
type Result struct {
	Events []model.CanonicalEvent
	Stats  map[string]model.SourceStats
}

// Runner schedules adapters from a registry.
type Runner struct {
	registry *sources.Registry
	logger   *zap.Logger
}

// NewRunner creates a runner over the given registry.
func NewRunner(registry *sources.Registry, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{registry: registry, logger: logger}
}

// sourceOutcome is one settled adapter task.
type sourceOutcome struct {
	name   string
	events []model.CanonicalEvent
	stats  model.SourceStats
}

// Run executes the selection. An individual adapter's error or panic is
// recorded in that adapter's stats and never cancels or fails the other
// sources; Run itself errors only on invalid input.
func (r *Runner) Run(ctx context.Context, sel Selection) (Result, error) {
	if len(sel.Sources) == 0 {
		return Result{}, fmt.Errorf("no sources selected")
	}

	// Resolve all names up front so a typo fails fast instead of
	// surfacing as a mid-run skip.
	adapters := make([]sources.Source, 0, len(sel.Sources))
	for _, name := range sel.Sources {
		src, err := r.registry.Get(name)
		if err != nil {
			return Result{}, err
		}
		adapters = append(adapters, src)
	}

	var outcomes []sourceOutcome
	switch sel.Mode {
	case ModeSequential:
		outcomes = r.runSequential(ctx, adapters, sel.PerSource)
	default:
		outcomes = r.runParallel(ctx, adapters, sel.PerSource)
	}

	result := Result{Stats: make(map[string]model.SourceStats, len(outcomes))}
	for _, out := range outcomes {
		result.Events = append(result.Events, out.events...)
		result.Stats[out.name] = out.stats
	}
	return result, nil
}

// runParallel launches one task per adapter and waits for all of them to
// settle. No adapter's failure cancels another's task.
func (r *Runner) runParallel(ctx context.Context, adapters []sources.Source, perSource map[string]model.AdapterOptions) []sourceOutcome {
	outcomes := make([]sourceOutcome, len(adapters))
	var wg sync.WaitGroup

	for i, src := range adapters {
		wg.Add(1)
		go func(idx int, src sources.Source) {
			defer wg.Done()
			outcomes[idx] = r.runOne(ctx, src, perSource[src.Name()])
		}(i, src)
	}

	wg.Wait()
	return outcomes
}

// runSequential runs adapters one at a time in the given order; a failed
// adapter is recorded and the loop continues.
func (r *Runner) runSequential(ctx context.Context, adapters []sources.Source, perSource map[string]model.AdapterOptions) []sourceOutcome {
	outcomes := make([]sourceOutcome, 0, len(adapters))
	for _, src := range adapters {
		outcomes = append(outcomes, r.runOne(ctx, src, perSource[src.Name()]))
	}
	return outcomes
}

// runOne executes a single adapter, converting errors and panics into
// that source's stats.
func (r *Runner) runOne(ctx context.Context, src sources.Source, opts model.AdapterOptions) (out sourceOutcome) {
	out.name = src.Name()

	defer func() {
		if rec := recover(); rec != nil {
			out.events = nil
			out.stats.Errors++
			r.logger.Error("adapter panicked",
				zap.String("source", out.name),
				zap.Any("panic", rec))
		}
	}()

	r.logger.Info("running adapter", zap.String("source", out.name))

	events, stats, err := src.Fetch(ctx, opts)
	out.stats = stats
	if err != nil {
		// Adapter-level failure: zero events for this source, everything
		// else unaffected.
		out.stats.Errors++
		r.logger.Error("adapter failed", zap.String("source", out.name), zap.Error(err))
		return out
	}

	out.events = events
	r.logger.Info("adapter settled",
		zap.String("source", out.name),
		zap.Int("events", len(events)),
		zap.Int("errors", stats.Errors),
		zap.Int64("duration_ms", stats.DurationMs))
	return out
}
