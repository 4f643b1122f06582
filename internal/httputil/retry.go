// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retry policy and error classification
// shared by all network-facing stages.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// Sentinel errors for the failure taxonomy. Collaborator clients wrap
// these so stages can classify failures with errors.Is.
var (
	// ErrNotFound marks a permanently missing resource (HTTP 404/410).
	ErrNotFound = errors.New("not found")

	// ErrRateLimited marks an HTTP 429 from the citation-graph API.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidID marks a malformed paper identifier.
	ErrInvalidID = errors.New("invalid arxiv identifier")
)

// StatusError wraps an unexpected HTTP status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Code)
}

// IsTransient reports whether err is worth retrying: timeouts, connection
// resets, 5xx statuses, and rate-limit responses. Not-found, malformed
// identifiers, and context cancellation are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == 429
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	// Remaining errors from an HTTP round trip are connection-level
	// (reset, refused, EOF) and retryable.
	return true
}

// Policy describes bounded exponential backoff with jitter. The same
// policy is applied to existence probes, bundle downloads, and
// citation-graph calls.
type Policy struct {
	// MaxAttempts is the total number of tries including the first.
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// Multiplier scales the delay after each attempt.
	Multiplier float64

	// Jitter is the maximum random addition as a fraction of the delay.
	Jitter float64

	// OnRetry, when set, is invoked before each backoff sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// PolicyFrom builds a Policy from the shared retry configuration.
func PolicyFrom(cfg types.RetryConfig) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		Multiplier:  cfg.Multiplier,
		Jitter:      cfg.Jitter,
	}
}

// delay computes the backoff before retry number attempt (1-based).
func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * rand.Float64()
	}
	return time.Duration(d)
}

// Do invokes op until it succeeds, fails permanently, or the attempt
// budget is exhausted. Backoff sleeps respect ctx; cancellation returns
// ctx.Err(). The last error is returned on exhaustion.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = types.DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = types.DefaultBaseDelay
	}
	if p.Multiplier <= 0 {
		p.Multiplier = types.DefaultMultiplier
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}
		d := p.delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr, d)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return lastErr
}
