// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"bytes"
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/arxiv-harvester/internal/httputil"
	"github.com/pdiddy/arxiv-harvester/internal/telemetry"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// downloadVersions fetches and persists every confirmed version with a
// bounded pool. One result per version, in version order; a failed
// sibling never cancels the others.
func (h *Harvester) downloadVersions(ctx context.Context, id string, versions []types.VersionRecord) []types.DownloadResult {
	start := time.Now()
	defer func() { h.stats.StageTime(telemetry.StageDownload, time.Since(start)) }()

	results := make([]types.DownloadResult, len(versions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.DownloadWorkers)
	for i, rec := range versions {
		g.Go(func() error {
			results[i] = h.downloadOne(gctx, id, rec.Version)
			return nil
		})
	}
	g.Wait()
	return results
}

// downloadOne fetches one version bundle with retries and hands it to
// the sink. A version already persisted by an earlier run is not fetched
// again.
func (h *Harvester) downloadOne(ctx context.Context, id string, version int) types.DownloadResult {
	res := types.DownloadResult{PaperID: id, Version: version}

	if h.sink.HasVersion(id, version) {
		h.logger.Debug().Str("paper_id", id).Int("version", version).
			Msg("version already on disk, skipping download")
		res.OK = true
		return res
	}

	var bundle []byte
	err := httputil.Do(ctx, h.policy, func(ctx context.Context) error {
		var err error
		bundle, err = h.source.FetchBundle(ctx, id, version)
		return err
	})
	if err != nil {
		res.Error = err.Error()
		h.logger.Warn().Str("paper_id", id).Int("version", version).Err(err).
			Msg("bundle download failed")
		return res
	}

	info, err := h.sink.SaveBundle(id, version, bytes.NewReader(bundle))
	if err != nil {
		res.Error = err.Error()
		h.logger.Error().Str("paper_id", id).Int("version", version).Err(err).
			Msg("bundle persist failed")
		return res
	}

	res.OK = true
	res.Bytes = info.Bytes
	h.stats.VersionDownloaded(info.Bytes)
	h.stats.FilesRemoved(info.FilesRemoved)
	return res
}
