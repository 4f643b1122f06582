// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ratelimit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

func testLimiter(cfg types.RateLimitConfig) *Limiter {
	return New(cfg, zerolog.Nop())
}

// admitAll runs n concurrent Acquire calls and returns the sorted
// admission timestamps.
func admitAll(t *testing.T, l *Limiter, n int) []time.Time {
	t.Helper()
	var mu sync.Mutex
	var stamps []time.Time
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, l.Acquire(context.Background()))
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	return stamps
}

func TestAcquire_PerSecondSpacing(t *testing.T) {
	// 20/s with burst 1 means admissions spaced at least 50ms apart, so
	// no sliding one-second interval can hold more than 20 admissions.
	l := testLimiter(types.RateLimitConfig{PerSecond: 20, PerWindow: 1000, Window: time.Minute})
	stamps := admitAll(t, l, 8)

	require.Len(t, stamps, 8)
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		// Allow scheduling slop below the theoretical 50ms spacing.
		assert.GreaterOrEqual(t, gap, 30*time.Millisecond,
			"admissions %d and %d too close: %v", i-1, i, gap)
	}
}

func TestAcquire_WindowBudgetDelaysOverflow(t *testing.T) {
	// 3 calls per 300ms window; per-second budget effectively unbounded.
	l := testLimiter(types.RateLimitConfig{PerSecond: 1000, PerWindow: 3, Window: 300 * time.Millisecond})

	var waits int
	var mu sync.Mutex
	l.OnWait = func(time.Duration) {
		mu.Lock()
		waits++
		mu.Unlock()
	}

	start := time.Now()
	stamps := admitAll(t, l, 5)

	require.Len(t, stamps, 5)
	// First three admitted within the window; the rest had to wait for
	// the oldest admission to age out.
	assert.Less(t, stamps[2].Sub(start), 300*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[3].Sub(start), 250*time.Millisecond)
	assert.GreaterOrEqual(t, waits, 1)

	// Property: no sliding window interval ever held more than 3 calls.
	for i := 0; i+3 < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i+3].Sub(stamps[i]), 250*time.Millisecond)
	}
}

func TestAcquire_NeverDropsCalls(t *testing.T) {
	l := testLimiter(types.RateLimitConfig{PerSecond: 1000, PerWindow: 2, Window: 100 * time.Millisecond})
	stamps := admitAll(t, l, 7)
	assert.Len(t, stamps, 7)
}

func TestAcquire_ContextCancellation(t *testing.T) {
	l := testLimiter(types.RateLimitConfig{PerSecond: 1000, PerWindow: 1, Window: time.Hour})
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInWindowPrunesAgedCalls(t *testing.T) {
	l := testLimiter(types.RateLimitConfig{PerSecond: 1000, PerWindow: 10, Window: time.Minute})

	base := time.Now()
	l.now = func() time.Time { return base }
	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Acquire(context.Background()))
	assert.Equal(t, 2, l.inWindow())

	// Advance past the window: both admissions age out.
	l.now = func() time.Time { return base.Add(61 * time.Second) }
	assert.Equal(t, 0, l.inWindow())
}
