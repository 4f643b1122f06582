// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest coordinates the paper pipeline: a bounded worker pool
// fans out over identifiers, and each worker runs metadata lookup,
// version discovery, bundle downloads, and the citation-graph fetch for
// its paper. Failures stay contained to the stage that produced them.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/arxiv-harvester/internal/arxiv"
	"github.com/pdiddy/arxiv-harvester/internal/dedup"
	"github.com/pdiddy/arxiv-harvester/internal/httputil"
	"github.com/pdiddy/arxiv-harvester/internal/ratelimit"
	"github.com/pdiddy/arxiv-harvester/internal/storage"
	"github.com/pdiddy/arxiv-harvester/internal/telemetry"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// Source fetches paper data from the archive: the metadata record,
// per-version announcement dates, version existence, and source bundles.
// *arxiv.Client satisfies it.
type Source interface {
	Lookup(ctx context.Context, id string) (*types.PaperMetadata, error)
	VersionDates(ctx context.Context, id string) ([]string, error)
	Exists(ctx context.Context, id string, version int) (bool, error)
	FetchBundle(ctx context.Context, id string, version int) ([]byte, error)
}

// CitationClient resolves a paper's reference set and venue through the
// citation graph. *semscholar.Client satisfies it.
type CitationClient interface {
	Lookup(ctx context.Context, id string) (*types.ReferencePayload, error)
}

// Sink persists harvest output. HasVersion reports versions already on
// disk so reruns do not fetch them again. *storage.Sink satisfies it.
type Sink interface {
	SaveBundle(paperID string, version int, r io.Reader) (storage.BundleInfo, error)
	HasVersion(paperID string, version int) bool
	WriteMetadata(paperID string, md types.PaperMetadata) error
	WriteReferences(paperID string, payload types.ReferencePayload) error
}

// Ledger records per-paper outcomes across runs. *catalog.Store
// satisfies it. May be absent.
type Ledger interface {
	IsComplete(ctx context.Context, paperID string) (bool, error)
	Record(ctx context.Context, res types.PaperResult) error
}

// Options carries the collaborators for a Harvester. Source, Citations,
// and Sink are required; Ledger and Stats are optional.
type Options struct {
	Source    Source
	Citations CitationClient
	Sink      Sink
	Ledger    Ledger
	Stats     *telemetry.Stats
	Logger    zerolog.Logger
}

// Harvester runs the pipeline for a batch of identifiers.
type Harvester struct {
	cfg    types.HarvestConfig
	source Source
	cites  CitationClient
	sink   Sink
	ledger Ledger
	stats  *telemetry.Stats
	logger zerolog.Logger

	limiter *ratelimit.Limiter
	cache   *dedup.Cache[*types.ReferencePayload]
	policy  httputil.Policy
}

// New builds a Harvester from cfg and its collaborators. Zero config
// fields take their defaults.
func New(cfg types.HarvestConfig, opts Options) (*Harvester, error) {
	if opts.Source == nil || opts.Citations == nil || opts.Sink == nil {
		return nil, errors.New("harvest: Source, Citations, and Sink are required")
	}
	cfg = cfg.WithDefaults()

	stats := opts.Stats
	if stats == nil {
		stats = telemetry.New()
	}
	logger := opts.Logger.With().Str("component", "harvest").Logger()

	limiter := ratelimit.New(cfg.RateLimit, logger)
	limiter.OnWait = stats.RateLimitWait

	policy := httputil.PolicyFrom(cfg.Retry)
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		stats.Retry()
		logger.Debug().Int("attempt", attempt).Dur("delay", delay).Err(err).Msg("retrying")
	}

	return &Harvester{
		cfg:     cfg,
		source:  opts.Source,
		cites:   opts.Citations,
		sink:    opts.Sink,
		ledger:  opts.Ledger,
		stats:   stats,
		logger:  logger,
		limiter: limiter,
		cache:   dedup.New[*types.ReferencePayload](),
		policy:  policy,
	}, nil
}

// Stats returns the run counters shared by all workers.
func (h *Harvester) Stats() *telemetry.Stats {
	return h.stats
}

// Run harvests every identifier and returns exactly one result per
// input, in input order. Individual paper failures are recorded in
// their result; Run itself fails only when ctx is canceled.
func (h *Harvester) Run(ctx context.Context, ids []string) ([]types.PaperResult, error) {
	results := make([]types.PaperResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Workers)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = types.PaperResult{
					PaperID: arxiv.Normalize(id),
					Outcome: types.OutcomeFailed,
					Error:   err.Error(),
				}
				return err
			}
			h.stats.WorkerStarted()
			defer h.stats.WorkerFinished()
			results[i] = h.harvestOne(gctx, id)
			return nil
		})
	}

	err := g.Wait()
	if err != nil && ctx.Err() != nil {
		return results, fmt.Errorf("harvest interrupted: %w", ctx.Err())
	}
	return results, nil
}
