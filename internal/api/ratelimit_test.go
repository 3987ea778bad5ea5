package api

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestRateLimiter_Burst(t *testing.T) {
	rl := newRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request past burst should be denied")
	}

	// A different IP has its own bucket.
	if !rl.allow("10.0.0.2") {
		t.Error("fresh IP should be allowed")
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	// Other tests in this package leave framework goroutines behind;
	// only goroutines spawned here count.
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := newRateLimiter(1000, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rl.allow("10.0.0.1")
				rl.allow("10.0.0.2")
			}
		}()
	}
	wg.Wait()

	if len(rl.visitors) != 2 {
		t.Errorf("visitors = %d, want 2", len(rl.visitors))
	}
}

func TestRateLimiter_StaleCleanup(t *testing.T) {
	rl := newRateLimiter(1, 1)

	rl.allow("10.0.0.1")
	rl.allow("10.0.0.2")

	// Age one visitor past the stale threshold and force a cleanup sweep
	// on the next allow call.
	rl.mu.Lock()
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-rateLimiterStaleThreshold - time.Minute)
	rl.lastCleanup = time.Now().Add(-rateLimiterCleanupInterval - time.Minute)
	rl.mu.Unlock()

	rl.allow("10.0.0.3")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Error("stale visitor should have been evicted")
	}
	if _, ok := rl.visitors["10.0.0.2"]; !ok {
		t.Error("fresh visitor should survive cleanup")
	}
}
