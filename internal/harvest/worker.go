// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/arxiv-harvester/internal/arxiv"
	"github.com/pdiddy/arxiv-harvester/internal/httputil"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// harvestOne runs the full pipeline for a single paper. The metadata
// lookup gates everything: when it fails after retries the paper is
// failed and no further stages run. After that point, stage failures
// degrade the outcome to partial but never abort the paper.
func (h *Harvester) harvestOne(ctx context.Context, rawID string) types.PaperResult {
	start := time.Now()
	id := arxiv.Normalize(rawID)
	res := types.PaperResult{PaperID: id}
	defer func() { res.Elapsed = time.Since(start) }()

	logger := h.logger.With().Str("paper_id", id).Logger()

	if !arxiv.Valid(id) {
		res.Outcome = types.OutcomeFailed
		res.Error = fmt.Sprintf("invalid arXiv identifier %q: %v", rawID, httputil.ErrInvalidID)
		return h.finish(ctx, logger, res)
	}

	if h.cfg.SkipComplete && h.ledger != nil {
		done, err := h.ledger.IsComplete(ctx, id)
		if err != nil {
			logger.Warn().Err(err).Msg("catalog check failed, harvesting anyway")
		} else if done {
			logger.Info().Msg("already complete, skipping")
			res.Outcome = types.OutcomeSkipped
			return res
		}
	}

	md, err := h.lookupMetadata(ctx, id)
	if err != nil {
		logger.Warn().Err(err).Msg("metadata lookup failed")
		res.Outcome = types.OutcomeFailed
		res.Error = fmt.Sprintf("metadata lookup: %v", err)
		return h.finish(ctx, logger, res)
	}
	res.Metadata = md

	// The citation-graph fetch is independent of discovery and
	// downloads, so it runs alongside them.
	refCh := make(chan refResult, 1)
	go func() {
		payload, err := h.fetchReferences(ctx, id)
		refCh <- refResult{payload: payload, err: err}
	}()

	if dates, err := h.source.VersionDates(ctx, id); err != nil {
		logger.Debug().Err(err).Msg("version date scrape failed")
	} else {
		md.RevisedDates = dates
	}

	res.Versions = h.discoverVersions(ctx, id)
	h.stats.VersionsFound(len(res.Versions))
	res.Downloads = h.downloadVersions(ctx, id, res.Versions)

	ref := <-refCh
	if ref.err != nil {
		logger.Warn().Err(ref.err).Msg("reference fetch failed")
		res.ReferenceFetchFailed = true
	} else {
		res.References = ref.payload.References
		res.Venue = ref.payload.Venue
		withID := 0
		for _, r := range ref.payload.References {
			if r.ArxivID != "" {
				withID++
			}
		}
		h.stats.References(len(ref.payload.References), withID)
	}
	if res.Venue == "" {
		res.Venue = md.Venue
	}
	md.Venue = res.Venue

	if err := h.sink.WriteMetadata(id, *md); err != nil {
		logger.Error().Err(err).Msg("metadata write failed")
		res.Outcome = types.OutcomeFailed
		res.Error = fmt.Sprintf("writing metadata: %v", err)
		return h.finish(ctx, logger, res)
	}
	if !res.ReferenceFetchFailed {
		payload := types.ReferencePayload{References: res.References, Venue: res.Venue}
		if err := h.sink.WriteReferences(id, payload); err != nil {
			logger.Error().Err(err).Msg("references write failed")
			res.ReferenceFetchFailed = true
		}
	}

	res.Outcome = outcomeOf(res)
	logger.Info().
		Str("outcome", string(res.Outcome)).
		Int("versions", len(res.Versions)).
		Int("downloaded", res.DownloadedVersions()).
		Int("references", len(res.References)).
		Dur("elapsed", time.Since(start)).
		Msg("paper harvested")
	return h.finish(ctx, logger, res)
}

type refResult struct {
	payload *types.ReferencePayload
	err     error
}

// lookupMetadata fetches the paper's core record with retries.
func (h *Harvester) lookupMetadata(ctx context.Context, id string) (*types.PaperMetadata, error) {
	var md *types.PaperMetadata
	err := httputil.Do(ctx, h.policy, func(ctx context.Context) error {
		var err error
		md, err = h.source.Lookup(ctx, id)
		return err
	})
	return md, err
}

// outcomeOf classifies a result whose metadata lookup succeeded.
func outcomeOf(res types.PaperResult) types.Outcome {
	if len(res.Versions) == 0 || res.HasDownloadFailure() || res.ReferenceFetchFailed {
		return types.OutcomePartial
	}
	return types.OutcomeSuccess
}

// finish records the result in the ledger when one is configured.
func (h *Harvester) finish(ctx context.Context, logger zerolog.Logger, res types.PaperResult) types.PaperResult {
	if h.ledger != nil {
		if err := h.ledger.Record(ctx, res); err != nil {
			logger.Warn().Err(err).Msg("catalog record failed")
		}
	}
	return res
}
