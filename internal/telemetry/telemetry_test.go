// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsCounters(t *testing.T) {
	s := New()

	s.CitationRequest()
	s.CitationRequest()
	s.CacheHit()
	s.RateLimitWait(40 * time.Millisecond)
	s.Retry()
	s.Retry()
	s.Retry()
	s.VersionCheck()
	s.VersionsFound(3)
	s.VersionDownloaded(1024)
	s.VersionDownloaded(2048)
	s.FilesRemoved(5)
	s.References(10, 4)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.CitationRequests)
	assert.Equal(t, 1, snap.CitationCacheHits)
	assert.Equal(t, 1, snap.RateLimitWaits)
	assert.Equal(t, 3, snap.Retries)
	assert.Equal(t, 1, snap.VersionChecks)
	assert.Equal(t, 3, snap.VersionsFound)
	assert.Equal(t, 2, snap.VersionsDownloaded)
	assert.Equal(t, int64(3072), snap.BytesDownloaded)
	assert.Equal(t, 5, snap.FilesRemoved)
	assert.Equal(t, 10, snap.ReferencesFound)
	assert.Equal(t, 4, snap.ReferencesWithID)
}

func TestStatsStageTime(t *testing.T) {
	s := New()
	s.StageTime(StageDiscovery, 100*time.Millisecond)
	s.StageTime(StageDiscovery, 50*time.Millisecond)
	s.StageTime(StageDownload, 200*time.Millisecond)
	s.StageTime(StageReferences, 10*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, 150*time.Millisecond, snap.DiscoveryTime)
	assert.Equal(t, 200*time.Millisecond, snap.DownloadTime)
	assert.Equal(t, 10*time.Millisecond, snap.ReferenceTime)
}

func TestStatsWorkerHighWaterMark(t *testing.T) {
	s := New()

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			s.WorkerStarted()
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 8, s.Snapshot().MaxWorkersSeen)

	for i := 0; i < 8; i++ {
		s.WorkerFinished()
	}
	// finishing workers never lowers the high water mark
	assert.Equal(t, 8, s.Snapshot().MaxWorkersSeen)
}

func TestStatsConcurrentUpdates(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Retry()
				s.VersionCheck()
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, 1000, snap.Retries)
	assert.Equal(t, 1000, snap.VersionChecks)
}
