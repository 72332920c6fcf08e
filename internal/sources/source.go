// Package sources holds the per-source adapters that fetch and normalize
// raw listings into canonical candidate events. Each adapter is
// purpose-built for one site's markup or API and owns its fetch strategy.
package sources

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ozevents/marquee/internal/browser"
	"github.com/ozevents/marquee/internal/compliance"
	"github.com/ozevents/marquee/internal/fetch"
	"github.com/ozevents/marquee/internal/model"
	"github.com/ozevents/marquee/internal/worker"
)

// Source is one external listing source.
type Source interface {
	Name() string
	Fetch(ctx context.Context, opts model.AdapterOptions) ([]model.CanonicalEvent, model.SourceStats, error)
}

// Deps are the shared collaborators adapters draw on. Everything is
// explicitly constructed and injected; adapters hold no globals.
type Deps struct {
	Pages   *fetch.Client
	Browser *browser.Driver
	Solver  browser.ChallengeSolver
	Gate    *compliance.Gate
	Limiter *worker.Limiter
	Logger  *zap.Logger
	Now     func() time.Time
}

// Registry maps source names to adapters.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds the registry with every known adapter.
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	r := &Registry{sources: make(map[string]Source)}
	r.Register(NewWhatsOn(deps))
	r.Register(NewEventbrite(deps))
	r.Register(NewTicketek(deps))
	return r
}

// Register adds an adapter, replacing any existing one of the same name.
func (r *Registry) Register(s Source) {
	r.sources[s.Name()] = s
}

// Get returns the adapter for name.
func (r *Registry) Get(name string) (Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("unknown source: %s (known: %v)", name, r.Names())
	}
	return s, nil
}

// Names lists the registered source names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// categoryWanted applies an adapter-level category filter; an empty
// filter admits everything.
func categoryWanted(filter []string, category string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == category {
			return true
		}
	}
	return false
}
