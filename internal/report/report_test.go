// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-harvester/internal/telemetry"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

func sampleResults() []types.PaperResult {
	return []types.PaperResult{
		{PaperID: "2301.00001", Outcome: types.OutcomeSuccess},
		{PaperID: "2301.00002", Outcome: types.OutcomeSuccess},
		{PaperID: "2301.00003", Outcome: types.OutcomePartial},
		{PaperID: "2301.00004", Outcome: types.OutcomeFailed},
		{PaperID: "2301.00005", Outcome: types.OutcomeSkipped},
	}
}

func TestBuildCountsOutcomes(t *testing.T) {
	snap := telemetry.Snapshot{
		VersionsFound:      6,
		VersionsDownloaded: 5,
		VersionChecks:      12,
		BytesDownloaded:    4096,
		ReferencesFound:    20,
		ReferencesWithID:   8,
		CitationRequests:   3,
		CitationCacheHits:  1,
		Retries:            2,
	}

	r := Build(sampleResults(), snap, 8*time.Second)

	assert.Equal(t, 5, r.PapersAttempted)
	assert.Equal(t, 2, r.PapersSuccessful)
	assert.Equal(t, 1, r.PapersPartial)
	assert.Equal(t, 1, r.PapersFailed)
	assert.Equal(t, 1, r.PapersSkipped)

	// skipped papers stay out of the rate denominators
	assert.InDelta(t, 50.0, r.SuccessRatePct, 0.001)
	assert.InDelta(t, 2.0, r.AvgTimePerPaperSeconds, 0.001)
	assert.InDelta(t, 5.0, r.AvgReferencesPerPaper, 0.001)
	assert.InDelta(t, 40.0, r.ExtractionRatePct, 0.001)

	assert.Equal(t, 6, r.VersionsFound)
	assert.Equal(t, int64(4096), r.BytesDownloaded)
	assert.Equal(t, 3, r.CitationRequestsMade)
	assert.Equal(t, 2, r.RetriesAttempted)
}

func TestBuildEmptyRun(t *testing.T) {
	r := Build(nil, telemetry.Snapshot{}, 0)
	assert.Zero(t, r.PapersAttempted)
	assert.Zero(t, r.SuccessRatePct)
	assert.Zero(t, r.AvgReferencesPerPaper)
	assert.Zero(t, r.ExtractionRatePct)
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := Build(sampleResults(), telemetry.Snapshot{ReferencesFound: 4, ReferencesWithID: 2}, 2*time.Second)

	path, err := Write(dir, r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got types.AggregateReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, r.PapersAttempted, got.PapersAttempted)
	assert.Equal(t, r.SuccessRatePct, got.SuccessRatePct)
	assert.NotEmpty(t, got.GeneratedAt)
}
