// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"time"

	"github.com/pdiddy/arxiv-harvester/internal/httputil"
	"github.com/pdiddy/arxiv-harvester/internal/telemetry"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// fetchReferences runs one citation-graph lookup through the dedup
// cache. Every real attempt acquires the rate limiter first, including
// retries, so the budget holds no matter how often a call is retried.
// Concurrent lookups for the same identifier collapse into one call.
func (h *Harvester) fetchReferences(ctx context.Context, id string) (*types.ReferencePayload, error) {
	start := time.Now()
	defer func() { h.stats.StageTime(telemetry.StageReferences, time.Since(start)) }()

	payload, hit, err := h.cache.GetOrFetch(id, func() (*types.ReferencePayload, error) {
		var p *types.ReferencePayload
		doErr := httputil.Do(ctx, h.policy, func(ctx context.Context) error {
			if err := h.limiter.Acquire(ctx); err != nil {
				return err
			}
			h.stats.CitationRequest()
			var err error
			p, err = h.cites.Lookup(ctx, id)
			return err
		})
		return p, doErr
	})
	if err != nil {
		return nil, err
	}
	if hit {
		h.stats.CacheHit()
	}
	return payload, nil
}
