// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package telemetry collects run counters and per-stage timings. All
// recording methods are lock-free and never block the pipeline; the
// Prometheus mirrors exist for scraping when the metrics endpoint is
// enabled.
package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus mirrors of the run counters.
var (
	citationRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_citation_requests_total",
		Help: "Citation-graph API calls actually made",
	})

	citationCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_citation_cache_hits_total",
		Help: "Citation-graph lookups served from the dedup cache",
	})

	rateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_rate_limit_waits_total",
		Help: "Times a worker was suspended by the rate limiter window",
	})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_retries_total",
		Help: "Retry attempts across probes, downloads, and citation calls",
	})

	versionChecksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_version_checks_total",
		Help: "Version existence probes issued",
	})

	versionsDownloadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_versions_downloaded_total",
		Help: "Version bundles downloaded and persisted",
	})

	activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "harvester_active_workers",
		Help: "Paper workers currently running",
	})

	stageSeconds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_stage_seconds_total",
		Help: "Cumulative wall time per pipeline stage",
	}, []string{"stage"})
)

// Stage labels for timing records.
const (
	StageDiscovery  = "discovery"
	StageDownload   = "download"
	StageReferences = "references"
)

// Stats accumulates one run's counters. The zero value is unusable; use
// New. Shared by all workers of a run.
type Stats struct {
	citationRequests   atomic.Int64
	citationCacheHits  atomic.Int64
	rateLimitWaits     atomic.Int64
	retries            atomic.Int64
	versionChecks      atomic.Int64
	versionsFound      atomic.Int64
	versionsDownloaded atomic.Int64
	bytesDownloaded    atomic.Int64
	filesRemoved       atomic.Int64
	referencesFound    atomic.Int64
	referencesWithID   atomic.Int64

	discoveryNanos atomic.Int64
	downloadNanos  atomic.Int64
	referenceNanos atomic.Int64

	workers    atomic.Int64
	maxWorkers atomic.Int64
}

// New returns an empty Stats.
func New() *Stats {
	return &Stats{}
}

// CitationRequest records one real citation-graph API call.
func (s *Stats) CitationRequest() {
	s.citationRequests.Add(1)
	citationRequestsTotal.Inc()
}

// CacheHit records a citation lookup served from the dedup cache.
func (s *Stats) CacheHit() {
	s.citationCacheHits.Add(1)
	citationCacheHitsTotal.Inc()
}

// RateLimitWait records a suspension imposed by the limiter window.
func (s *Stats) RateLimitWait(time.Duration) {
	s.rateLimitWaits.Add(1)
	rateLimitWaitsTotal.Inc()
}

// Retry records one retry attempt of any network operation.
func (s *Stats) Retry() {
	s.retries.Add(1)
	retriesTotal.Inc()
}

// VersionCheck records one existence probe.
func (s *Stats) VersionCheck() {
	s.versionChecks.Add(1)
	versionChecksTotal.Inc()
}

// VersionsFound records how many contiguous versions discovery confirmed.
func (s *Stats) VersionsFound(n int) {
	s.versionsFound.Add(int64(n))
}

// VersionDownloaded records one persisted bundle of the given size.
func (s *Stats) VersionDownloaded(bytes int64) {
	s.versionsDownloaded.Add(1)
	s.bytesDownloaded.Add(bytes)
	versionsDownloadedTotal.Inc()
}

// FilesRemoved records files deleted during archive cleanup.
func (s *Stats) FilesRemoved(n int) {
	s.filesRemoved.Add(int64(n))
}

// References records reference extraction counts for one paper.
func (s *Stats) References(found, withArxivID int) {
	s.referencesFound.Add(int64(found))
	s.referencesWithID.Add(int64(withArxivID))
}

// StageTime adds elapsed wall time to a stage total.
func (s *Stats) StageTime(stage string, d time.Duration) {
	switch stage {
	case StageDiscovery:
		s.discoveryNanos.Add(int64(d))
	case StageDownload:
		s.downloadNanos.Add(int64(d))
	case StageReferences:
		s.referenceNanos.Add(int64(d))
	}
	stageSeconds.WithLabelValues(stage).Add(d.Seconds())
}

// WorkerStarted marks a paper worker as running and tracks the high
// water mark, which lets tests observe the pool bound.
func (s *Stats) WorkerStarted() {
	n := s.workers.Add(1)
	activeWorkers.Inc()
	for {
		max := s.maxWorkers.Load()
		if n <= max || s.maxWorkers.CompareAndSwap(max, n) {
			return
		}
	}
}

// WorkerFinished marks a paper worker as done.
func (s *Stats) WorkerFinished() {
	s.workers.Add(-1)
	activeWorkers.Dec()
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	CitationRequests   int
	CitationCacheHits  int
	RateLimitWaits     int
	Retries            int
	VersionChecks      int
	VersionsFound      int
	VersionsDownloaded int
	BytesDownloaded    int64
	FilesRemoved       int
	ReferencesFound    int
	ReferencesWithID   int

	DiscoveryTime  time.Duration
	DownloadTime   time.Duration
	ReferenceTime  time.Duration
	MaxWorkersSeen int
}

// Snapshot returns a consistent-enough copy for reporting.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		CitationRequests:   int(s.citationRequests.Load()),
		CitationCacheHits:  int(s.citationCacheHits.Load()),
		RateLimitWaits:     int(s.rateLimitWaits.Load()),
		Retries:            int(s.retries.Load()),
		VersionChecks:      int(s.versionChecks.Load()),
		VersionsFound:      int(s.versionsFound.Load()),
		VersionsDownloaded: int(s.versionsDownloaded.Load()),
		BytesDownloaded:    s.bytesDownloaded.Load(),
		FilesRemoved:       int(s.filesRemoved.Load()),
		ReferencesFound:    int(s.referencesFound.Load()),
		ReferencesWithID:   int(s.referencesWithID.Load()),
		DiscoveryTime:      time.Duration(s.discoveryNanos.Load()),
		DownloadTime:       time.Duration(s.downloadNanos.Load()),
		ReferenceTime:      time.Duration(s.referenceNanos.Load()),
		MaxWorkersSeen:     int(s.maxWorkers.Load()),
	}
}
