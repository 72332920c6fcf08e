package worker

import (
	"context"
	"testing"
	"time"
)

func TestWait_SeparateHostBudgets(t *testing.T) {
	// One request per second with burst 1: a second wait on the same host
	// must block, while a first wait on a different host must not.
	limiter := NewLimiter(1, 1, 0)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://a.example/x"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "https://b.example/y"); err != nil {
		t.Fatalf("other-host wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("other host blocked for %v, budgets are not per-host", elapsed)
	}
}

func TestWait_BlocksWhenBudgetSpent(t *testing.T) {
	limiter := NewLimiter(10, 1, 0)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://a.example/1"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "https://a.example/2"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second wait returned after %v, expected rate pacing", elapsed)
	}
}

func TestWait_CancelledContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1, 0)
	ctx := context.Background()

	// Spend the burst, then cancel while the next wait would block for a
	// very long time.
	if err := limiter.Wait(ctx, "https://a.example/1"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(cancelCtx, "https://a.example/2"); err == nil {
		t.Fatal("expected error when context expires during wait")
	}
}

func TestWaitWithJitter_ZeroDelay(t *testing.T) {
	limiter := NewLimiter(100, 10, 0.4)
	start := time.Now()
	if err := limiter.WaitWithJitter(context.Background(), "https://a.example/x", 0); err != nil {
		t.Fatalf("WaitWithJitter: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("zero base delay slept %v", elapsed)
	}
}

func TestSetHostRate(t *testing.T) {
	limiter := NewLimiter(0.001, 1, 0)
	limiter.SetHostRate("fast.example", 1000, 10)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := limiter.Wait(ctx, "https://fast.example/p"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("overridden host still paced at default rate (%v)", elapsed)
	}
}

func TestJitter(t *testing.T) {
	base := time.Second
	if got := jitter(base, 0); got != base {
		t.Errorf("zero fraction changed the delay: %v", got)
	}

	for i := 0; i < 100; i++ {
		got := jitter(base, 0.4)
		if got < 600*time.Millisecond || got > 1400*time.Millisecond {
			t.Fatalf("jittered delay %v outside [0.6s, 1.4s]", got)
		}
	}
}

func TestExtractHost(t *testing.T) {
	host, err := extractHost("https://www.ticketek.com.au/shows/x")
	if err != nil {
		t.Fatalf("extractHost: %v", err)
	}
	if host != "www.ticketek.com.au" {
		t.Errorf("host = %q", host)
	}
}
