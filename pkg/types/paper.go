// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the arxiv-harvester
// pipeline: paper metadata, version and download records, reference
// entries, per-paper results, and the run-level aggregate report.
package types

import (
	"fmt"
	"time"
)

// Outcome classifies the terminal state of one paper's harvest.
type Outcome string

const (
	// OutcomeSuccess means metadata, all discovered versions, and the
	// reference set were all obtained.
	OutcomeSuccess Outcome = "success"

	// OutcomePartial means metadata was obtained but at least one
	// secondary stage (a version download or the reference fetch) failed.
	OutcomePartial Outcome = "partial"

	// OutcomeFailed means the initial metadata lookup itself failed;
	// no further stages were attempted.
	OutcomeFailed Outcome = "failed"

	// OutcomeSkipped means the catalog already held a complete record
	// for the paper and the harvest was not re-attempted.
	OutcomeSkipped Outcome = "skipped"
)

// PaperMetadata holds the core record fetched from the arXiv export API,
// written to each paper's metadata file.
type PaperMetadata struct {
	// Title is the paper title as returned by arXiv.
	Title string `json:"paper_title" yaml:"paper_title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// SubmissionDate is the v1 submission date (YYYY-MM-DD).
	SubmissionDate string `json:"submission_date" yaml:"submission_date"`

	// Venue is the publication venue, resolved from the citation graph
	// when available, otherwise from the arXiv journal reference.
	Venue string `json:"publication_venue" yaml:"publication_venue"`

	// RevisedDates lists per-version announcement dates (YYYY-MM-DD),
	// scraped from the abstract page. May be empty.
	RevisedDates []string `json:"revised_dates,omitempty" yaml:"revised_dates,omitempty"`
}

// VersionRecord is the result of one existence probe that confirmed a
// version. Versions are numbered contiguously from 1; a record is only
// produced when every lower-numbered version also exists.
type VersionRecord struct {
	// PaperID is the canonical arXiv identifier (e.g. "2504.13946").
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Version is the 1-based version number.
	Version int `json:"version" yaml:"version"`

	// DiscoveredAt is when the probe confirmed the version.
	DiscoveredAt time.Time `json:"discovered_at" yaml:"discovered_at"`
}

// VersionID returns the versioned identifier, e.g. "2504.13946v2".
func (v VersionRecord) VersionID() string {
	return fmt.Sprintf("%sv%d", v.PaperID, v.Version)
}

// DownloadResult records the outcome of one version download attempt.
// Exactly one is produced per confirmed version; sibling failures never
// cancel each other.
type DownloadResult struct {
	// PaperID is the canonical arXiv identifier.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Version is the 1-based version number that was attempted.
	Version int `json:"version" yaml:"version"`

	// OK reports whether the source bundle was fetched and persisted.
	OK bool `json:"ok" yaml:"ok"`

	// Error describes the failure when OK is false.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Bytes is the size of the fetched bundle before cleanup.
	Bytes int64 `json:"bytes" yaml:"bytes"`
}

// ReferenceEntry is one reference extracted from a citation-graph lookup.
// ArxivID is empty when the reference could not be resolved to an arXiv
// identifier; such entries still carry title, authors, and date.
type ReferenceEntry struct {
	// ArxivID is the referenced paper's arXiv identifier, or "" when the
	// reference did not resolve.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// Title is the referenced paper's title.
	Title string `json:"paper_title" yaml:"paper_title"`

	// Authors lists the referenced paper's authors.
	Authors []string `json:"authors" yaml:"authors"`

	// SubmissionDate is the referenced paper's publication date
	// (YYYY-MM-DD), best effort.
	SubmissionDate string `json:"submission_date" yaml:"submission_date"`

	// SemanticScholarID is the citation graph's own paper identifier.
	SemanticScholarID string `json:"semantic_scholar_id,omitempty" yaml:"semantic_scholar_id,omitempty"`
}

// ReferencePayload is the full result of one citation-graph lookup:
// the reference set plus the citing paper's venue. It is the unit cached
// by the dedup cache.
type ReferencePayload struct {
	// References holds the extracted reference entries.
	References []ReferenceEntry `json:"references" yaml:"references"`

	// Venue is the citing paper's publication venue, or "".
	Venue string `json:"venue" yaml:"venue"`
}

// PaperResult is the per-paper record handed back to the coordinator.
// It is immutable once produced.
type PaperResult struct {
	// PaperID is the canonical arXiv identifier.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Outcome is the terminal state of the harvest for this paper.
	Outcome Outcome `json:"outcome" yaml:"outcome"`

	// Metadata is the core record; nil when Outcome is failed.
	Metadata *PaperMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Versions lists the confirmed contiguous versions.
	Versions []VersionRecord `json:"versions" yaml:"versions"`

	// Downloads holds one entry per attempted version download.
	Downloads []DownloadResult `json:"downloads" yaml:"downloads"`

	// References is the extracted reference set; empty when the citation
	// lookup exhausted its retries.
	References []ReferenceEntry `json:"references" yaml:"references"`

	// ReferenceFetchFailed reports whether the citation lookup failed
	// after retries. Distinguishes "no references" from "lookup failed".
	ReferenceFetchFailed bool `json:"reference_fetch_failed,omitempty" yaml:"reference_fetch_failed,omitempty"`

	// Venue is the resolved publication venue, or "".
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Elapsed is the wall time spent processing this paper.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// Error describes the failure when Outcome is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// DownloadedVersions counts the successful downloads in the result.
func (r PaperResult) DownloadedVersions() int {
	n := 0
	for _, d := range r.Downloads {
		if d.OK {
			n++
		}
	}
	return n
}

// HasDownloadFailure reports whether any version download failed.
func (r PaperResult) HasDownloadFailure() bool {
	for _, d := range r.Downloads {
		if !d.OK {
			return true
		}
	}
	return false
}
