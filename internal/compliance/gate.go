// Package compliance gates every crawl fetch on the target host's
// published crawl policy (robots.txt). Policies are fetched once per host
// and cached for a fixed TTL.
package compliance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// wildcardAgent scopes rule matching to the generic user-agent group
// only; agent-specific groups in the policy document are ignored.
const wildcardAgent = "*"

// Gate checks crawl targets against per-host policy documents. It is
// explicitly constructed and injected; the policy cache is owned by the
// gate, not by the package.
type Gate struct {
	httpClient *http.Client
	cache      *gocache.Cache
	ttl        time.Duration
	userAgent  string
	logger     *zap.Logger
}

// NewGate creates a gate whose parsed policies live for ttl.
func NewGate(userAgent string, timeout, ttl time.Duration, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		httpClient: &http.Client{Timeout: timeout},
		cache:      gocache.New(ttl, 10*time.Minute),
		ttl:        ttl,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// IsAllowed reports whether the target URL may be fetched. Missing,
// unreachable or malformed policy documents allow by default: the
// adapters are not malicious, and a broken robots.txt should not halt
// ingestion.
func (g *Gate) IsAllowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}

	data, err := g.policyFor(ctx, parsed)
	if err != nil {
		g.logger.Debug("crawl policy unavailable, allowing",
			zap.String("host", parsed.Host), zap.Error(err))
		return true
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, wildcardAgent)
}

// policyFor returns the cached policy for the URL's host, fetching and
// parsing it on a miss.
func (g *Gate) policyFor(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	if cached, found := g.cache.Get(target.Host); found {
		return cached.(*robotstxt.RobotsData), nil
	}

	policyURL := fmt.Sprintf("%s://%s/robots.txt", target.Scheme, target.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, policyURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Non-2xx means no enforceable policy: cache an allow-all document
	// so the host is not re-fetched for every item.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := robotstxt.FromStatusAndBytes(404, nil)
		g.cache.Set(target.Host, data, g.ttl)
		return data, nil
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	g.cache.Set(target.Host, data, g.ttl)
	return data, nil
}

// Flush drops all cached policies.
func (g *Gate) Flush() {
	g.cache.Flush()
}
