package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryThrottle(t *testing.T) {
	th := NewMemoryThrottle(2, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _ := th.Allow(ctx, "ann@x.com"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if ok, _ := th.Allow(ctx, "ann@x.com"); ok {
		t.Fatalf("third attempt should be rejected")
	}
	if ok, _ := th.Allow(ctx, "bob@x.com"); !ok {
		t.Fatalf("other emails keep their own budget")
	}

	_ = th.Reset(ctx, "ann@x.com")
	if ok, _ := th.Allow(ctx, "ann@x.com"); !ok {
		t.Fatalf("reset should restore the budget")
	}
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryThrottle_EvictsIdleBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	th := NewMemoryThrottle(3, time.Minute)
	th.now = clock.now
	th.lastSweep = clock.t
	ctx := context.Background()

	for i := 0; i < 10_000; i++ {
		_, _ = th.Allow(ctx, fmt.Sprintf("user%d@x.com", i))
	}
	if got := th.Len(); got != 10_000 {
		t.Fatalf("want 10000 buckets, got %d", got)
	}

	clock.advance(time.Minute + time.Second)
	_, _ = th.Allow(ctx, "late@x.com")

	if got := th.Len(); got != 1 {
		t.Fatalf("idle buckets should be evicted, %d retained", got)
	}
}

func TestMemoryThrottle_SweepKeepsActiveBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	th := NewMemoryThrottle(1, time.Minute)
	th.now = clock.now
	th.lastSweep = clock.t
	ctx := context.Background()

	if ok, _ := th.Allow(ctx, "ann@x.com"); !ok {
		t.Fatalf("first attempt should be allowed")
	}
	clock.advance(59 * time.Second)
	if ok, _ := th.Allow(ctx, "ann@x.com"); ok {
		t.Fatalf("budget should still be spent inside the window")
	}

	clock.advance(2 * time.Second)
	_, _ = th.Allow(ctx, "bob@x.com")
	if got := th.Len(); got != 2 {
		t.Fatalf("recently used bucket must survive the sweep, got %d", got)
	}
}
