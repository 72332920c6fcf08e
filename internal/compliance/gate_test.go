package compliance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const testAgent = "Marquee/0.1 (test)"

func newTestGate() *Gate {
	return NewGate(testAgent, 5*time.Second, time.Hour, nil)
}

func TestIsAllowed_DisallowHonored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\nAllow: /\n"))
	}))
	defer srv.Close()

	gate := newTestGate()
	ctx := context.Background()

	if gate.IsAllowed(ctx, srv.URL+"/private/event-1") {
		t.Error("disallowed path was admitted")
	}
	if !gate.IsAllowed(ctx, srv.URL+"/whats-on") {
		t.Error("allowed path was refused")
	}
	if !gate.IsAllowed(ctx, srv.URL) {
		t.Error("bare host with empty path was refused")
	}
}

func TestIsAllowed_MissingPolicyAllows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	gate := newTestGate()
	if !gate.IsAllowed(context.Background(), srv.URL+"/anything") {
		t.Error("host without robots.txt must allow by default")
	}
}

func TestIsAllowed_UnreachableHostAllows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	gate := newTestGate()
	if !gate.IsAllowed(context.Background(), srv.URL+"/event") {
		t.Error("unreachable policy host must allow by default")
	}
}

func TestIsAllowed_MalformedURL(t *testing.T) {
	gate := newTestGate()
	if gate.IsAllowed(context.Background(), "://not a url") {
		t.Error("unparseable URL must be refused")
	}
	if gate.IsAllowed(context.Background(), "/relative/only") {
		t.Error("URL without a host must be refused")
	}
}

func TestPolicyCachedPerHost(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt64(&hits, 1)
			if got := r.Header.Get("User-Agent"); got != testAgent {
				t.Errorf("robots fetch used User-Agent %q, want %q", got, testAgent)
			}
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
		}
	}))
	defer srv.Close()

	gate := newTestGate()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		gate.IsAllowed(ctx, srv.URL+"/page")
	}

	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", got)
	}

	gate.Flush()
	gate.IsAllowed(ctx, srv.URL+"/page")
	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Errorf("robots.txt fetched %d times after flush, want 2", got)
	}
}

func TestNotFoundPolicyCached(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	gate := newTestGate()
	ctx := context.Background()
	gate.IsAllowed(ctx, srv.URL+"/a")
	gate.IsAllowed(ctx, srv.URL+"/b")

	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("missing policy fetched %d times, want 1", got)
	}
}
