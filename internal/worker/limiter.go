// Package worker provides the per-host politeness limiter that paces
// every network operation an adapter performs.
package worker

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter implements per-host rate limiting. Limiters are created lazily
// per host so one slow source never consumes another source's budget.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
	jitterFrac   float64
}

// NewLimiter creates a limiter with the given default budget. jitterFrac
// widens explicit delays by ±jitterFrac to avoid a detectable fixed
// request cadence.
func NewLimiter(requestsPerSecond float64, burst int, jitterFrac float64) *Limiter {
	if burst <= 0 {
		burst = 2
	}
	if jitterFrac < 0 {
		jitterFrac = 0
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
		jitterFrac:   jitterFrac,
	}
}

// Wait blocks until the host's rate budget allows another request.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := extractHost(rawURL)
	if err != nil {
		return err
	}
	return l.limiterFor(host).Wait(ctx)
}

// WaitWithJitter waits for rate clearance then sleeps for baseDelay
// widened by the configured jitter fraction. Used between detail-page
// fetches and pagination steps.
func (l *Limiter) WaitWithJitter(ctx context.Context, rawURL string, baseDelay time.Duration) error {
	if err := l.Wait(ctx, rawURL); err != nil {
		return err
	}
	if baseDelay <= 0 {
		return nil
	}

	delay := jitter(baseDelay, l.jitterFrac)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// SetHostRate overrides the budget for one host, e.g. from a policy
// document's crawl-delay directive.
func (l *Limiter) SetHostRate(host string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.limiters[host] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func (l *Limiter) limiterFor(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[host] = limiter
	return limiter
}

// jitter returns base scaled by a uniform factor in [1-frac, 1+frac].
func jitter(base time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return base
	}
	scale := 1 + (rand.Float64()*2-1)*frac
	return time.Duration(float64(base) * scale)
}

func extractHost(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
