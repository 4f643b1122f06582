// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report builds the run-level summary from per-paper results
// and telemetry counters.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/arxiv-harvester/internal/telemetry"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// FileName is the report's name inside the output directory.
const FileName = "harvest_report.json"

// Build aggregates results and telemetry into a run report.
func Build(results []types.PaperResult, snap telemetry.Snapshot, runtime time.Duration) types.AggregateReport {
	r := types.AggregateReport{
		GeneratedAt:         time.Now().UTC().Format(time.RFC3339),
		TotalRuntimeSeconds: runtime.Seconds(),
		PapersAttempted:     len(results),

		VersionsFound:      snap.VersionsFound,
		VersionsDownloaded: snap.VersionsDownloaded,
		VersionChecks:      snap.VersionChecks,
		BytesDownloaded:    snap.BytesDownloaded,
		FilesRemoved:       snap.FilesRemoved,

		ReferencesFound:       snap.ReferencesFound,
		ReferencesWithArxivID: snap.ReferencesWithID,

		CitationRequestsMade: snap.CitationRequests,
		CitationCacheHits:    snap.CitationCacheHits,
		RateLimitWaits:       snap.RateLimitWaits,
		RetriesAttempted:     snap.Retries,
	}

	for _, res := range results {
		switch res.Outcome {
		case types.OutcomeSuccess:
			r.PapersSuccessful++
		case types.OutcomePartial:
			r.PapersPartial++
		case types.OutcomeFailed:
			r.PapersFailed++
		case types.OutcomeSkipped:
			r.PapersSkipped++
		}
	}

	harvested := r.PapersAttempted - r.PapersSkipped
	if harvested > 0 {
		r.SuccessRatePct = 100 * float64(r.PapersSuccessful) / float64(harvested)
		r.AvgTimePerPaperSeconds = runtime.Seconds() / float64(harvested)
		r.AvgReferencesPerPaper = float64(r.ReferencesFound) / float64(harvested)
	}
	if r.ReferencesFound > 0 {
		r.ExtractionRatePct = 100 * float64(r.ReferencesWithArxivID) / float64(r.ReferencesFound)
	}
	return r
}

// Write stores the report as indented JSON in dir.
func Write(dir string, r types.AggregateReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
