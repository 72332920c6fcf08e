// Package fetch provides the shared HTTP page client used by the
// non-browser source adapters. Every fetch goes through the compliance
// gate and the politeness limiter before touching the network.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ozevents/marquee/internal/cache"
	"github.com/ozevents/marquee/internal/compliance"
	"github.com/ozevents/marquee/internal/util"
	"github.com/ozevents/marquee/internal/worker"
)

// ErrDisallowed is returned when the target's crawl policy forbids the
// fetch. Callers skip the item silently; this is expected behavior, not
// an error condition to count.
var ErrDisallowed = errors.New("fetch: disallowed by crawl policy")

// Client fetches pages with compliance, pacing and caching applied.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	gate       *compliance.Gate
	limiter    *worker.Limiter
	pageCache  cache.Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// Options configures a Client.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	MaxBytes   int64
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
	Cache      cache.Cache // nil disables caching
	CacheTTL   time.Duration
}

// NewClient creates a page client. gate and limiter are required;
// opts.Cache is optional.
func NewClient(opts Options, gate *compliance.Gate, limiter *worker.Limiter, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		gate:      gate,
		limiter:   limiter,
		pageCache: opts.Cache,
		cacheTTL:  opts.CacheTTL,
		logger:    logger,
	}
}

// Page fetches one page. delay is the politeness delay applied before
// the request (jittered by the limiter); pass 0 for listing-discovery
// fetches that are already paced by the caller.
func (c *Client) Page(ctx context.Context, rawURL string, delay time.Duration) ([]byte, error) {
	if !c.gate.IsAllowed(ctx, rawURL) {
		c.logger.Debug("skipping disallowed target", zap.String("url", rawURL))
		return nil, ErrDisallowed
	}

	if c.pageCache != nil {
		if body, found := c.pageCache.Get(cache.PageKey(rawURL)); found {
			return body, nil
		}
	}

	if err := c.limiter.WaitWithJitter(ctx, rawURL, delay); err != nil {
		return nil, fmt.Errorf("rate wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if c.pageCache != nil {
		if err := c.pageCache.Set(cache.PageKey(rawURL), body, c.cacheTTL); err != nil {
			c.logger.Debug("page cache write failed", zap.Error(err))
		}
	}

	return body, nil
}
