// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AggregateReport summarizes a full harvest run. It is written as JSON
// next to the dataset when the run completes.
type AggregateReport struct {
	GeneratedAt         string  `json:"generated_at"`
	TotalRuntimeSeconds float64 `json:"total_runtime_seconds"`

	PapersAttempted  int     `json:"papers_attempted"`
	PapersSuccessful int     `json:"papers_successful"`
	PapersPartial    int     `json:"papers_partial"`
	PapersFailed     int     `json:"papers_failed"`
	PapersSkipped    int     `json:"papers_skipped"`
	SuccessRatePct   float64 `json:"overall_success_rate_percent"`

	AvgTimePerPaperSeconds float64 `json:"average_time_per_paper_seconds"`

	VersionsFound      int   `json:"versions_found_total"`
	VersionsDownloaded int   `json:"versions_downloaded_total"`
	VersionChecks      int   `json:"version_checks_total"`
	BytesDownloaded    int64 `json:"bytes_downloaded_total"`
	FilesRemoved       int   `json:"files_removed_total"`

	ReferencesFound       int     `json:"total_references_found"`
	ReferencesWithArxivID int     `json:"references_with_arxiv_ids"`
	AvgReferencesPerPaper float64 `json:"average_references_per_paper"`
	ExtractionRatePct     float64 `json:"reference_arxiv_id_extraction_rate_percent"`

	CitationRequestsMade int `json:"citation_requests_made"`
	CitationCacheHits    int `json:"citation_cache_hits"`
	RateLimitWaits       int `json:"rate_limit_waits"`
	RetriesAttempted     int `json:"retries_attempted"`
}
