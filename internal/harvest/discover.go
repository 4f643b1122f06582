// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"sync"
	"time"

	"github.com/pdiddy/arxiv-harvester/internal/httputil"
	"github.com/pdiddy/arxiv-harvester/internal/telemetry"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// discoverVersions probes versions 1..MaxVersion in batches of
// ProbeConcurrency and returns the contiguous confirmed prefix: a
// version is kept only when every lower-numbered version also exists.
// A probe that is still failing after retries counts as absent, which
// stops discovery at the preceding version rather than failing the
// paper.
func (h *Harvester) discoverVersions(ctx context.Context, id string) []types.VersionRecord {
	start := time.Now()
	defer func() { h.stats.StageTime(telemetry.StageDiscovery, time.Since(start)) }()

	exists := make([]bool, h.cfg.MaxVersion+1) // 1-based

	for lo := 1; lo <= h.cfg.MaxVersion; lo += h.cfg.ProbeConcurrency {
		hi := lo + h.cfg.ProbeConcurrency - 1
		if hi > h.cfg.MaxVersion {
			hi = h.cfg.MaxVersion
		}

		var wg sync.WaitGroup
		for v := lo; v <= hi; v++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				exists[v] = h.probe(ctx, id, v)
			}()
		}
		wg.Wait()

		// no point probing beyond the first gap
		if gapBefore(exists, lo, hi) {
			break
		}
	}

	var records []types.VersionRecord
	for v := 1; v <= h.cfg.MaxVersion && exists[v]; v++ {
		records = append(records, types.VersionRecord{
			PaperID:      id,
			Version:      v,
			DiscoveredAt: time.Now().UTC(),
		})
	}
	return records
}

// probe checks one version's existence with retries. Errors degrade to
// absent.
func (h *Harvester) probe(ctx context.Context, id string, version int) bool {
	h.stats.VersionCheck()
	var found bool
	err := httputil.Do(ctx, h.policy, func(ctx context.Context) error {
		var err error
		found, err = h.source.Exists(ctx, id, version)
		return err
	})
	if err != nil {
		h.logger.Warn().Str("paper_id", id).Int("version", version).Err(err).
			Msg("version probe failed, treating as absent")
		return false
	}
	return found
}

// gapBefore reports whether any version in [lo, hi] is absent.
func gapBefore(exists []bool, lo, hi int) bool {
	for v := lo; v <= hi; v++ {
		if !exists[v] {
			return true
		}
	}
	return false
}
