// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit gates citation-graph calls behind a dual budget:
// a short per-second budget and a long sliding-window budget. Both must
// admit a call before it proceeds.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// Limiter is safe for concurrent use by all paper workers. Acquire never
// drops or rejects a call; it only delays. The only error it can return
// is the context's, when the whole run is cancelled.
type Limiter struct {
	// perSecond spaces admissions so any sliding one-second interval
	// holds at most PerSecond calls (burst of 1 forces even spacing).
	perSecond *rate.Limiter

	window      time.Duration
	maxInWindow int

	mu    sync.Mutex
	calls []time.Time // admission times within the window, oldest first

	logger zerolog.Logger

	// OnWait, when set, observes each delay imposed by the long window.
	OnWait func(d time.Duration)

	// now is replaceable in tests.
	now func() time.Time
}

// New builds a Limiter from the run configuration.
func New(cfg types.RateLimitConfig, logger zerolog.Logger) *Limiter {
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = types.DefaultPerSecond
	}
	if cfg.PerWindow <= 0 {
		cfg.PerWindow = types.DefaultPerWindow
	}
	if cfg.Window <= 0 {
		cfg.Window = types.DefaultWindow
	}
	return &Limiter{
		perSecond:   rate.NewLimiter(rate.Limit(cfg.PerSecond), 1),
		window:      cfg.Window,
		maxInWindow: cfg.PerWindow,
		logger:      logger,
		now:         time.Now,
	}
}

// Acquire blocks until both budgets admit one more call, records the
// admission, and returns. Suspension is computed, not polled: when the
// long window is full the caller sleeps until the oldest admission ages
// out, then rechecks.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.perSecond.Wait(ctx); err != nil {
		return err
	}

	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.calls) < l.maxInWindow {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.calls[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		l.logger.Warn().
			Dur("wait", wait).
			Int("window_calls", l.maxInWindow).
			Msg("rate limit window full, waiting")
		if l.OnWait != nil {
			l.OnWait(wait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// prune drops admissions older than the window. Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	cut := 0
	for cut < len(l.calls) && now.Sub(l.calls[cut]) >= l.window {
		cut++
	}
	if cut > 0 {
		l.calls = append(l.calls[:0], l.calls[cut:]...)
	}
}

// inWindow returns the number of admissions currently inside the long
// window.
func (l *Limiter) inWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.calls)
}
