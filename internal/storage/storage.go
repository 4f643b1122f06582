// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage persists harvested papers on disk. Each paper gets
// its own directory under the output root, named with the dashed form
// of its identifier, holding a metadata file, a references file, and
// one source directory per downloaded version.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-harvester/internal/arxiv"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

const (
	metadataFile   = "metadata.yaml"
	referencesFile = "references.json"
)

// BundleInfo summarizes one persisted version bundle.
type BundleInfo struct {
	Bytes        int64
	FilesKept    int
	FilesRemoved int
}

// Sink writes harvest output below a single root directory.
type Sink struct {
	root   string
	logger zerolog.Logger
}

// NewSink returns a Sink rooted at dir. The directory is created on
// first write, not here.
func NewSink(dir string, logger zerolog.Logger) *Sink {
	return &Sink{root: dir, logger: logger.With().Str("component", "storage").Logger()}
}

// PaperDir returns the directory for one paper.
func (s *Sink) PaperDir(paperID string) string {
	return filepath.Join(s.root, arxiv.DirID(paperID))
}

// VersionDir returns the source directory for one version of a paper.
func (s *Sink) VersionDir(paperID string, version int) string {
	return filepath.Join(s.PaperDir(paperID), fmt.Sprintf("v%d", version))
}

// SaveBundle streams one version's source archive to disk, extracts it,
// keeps only .tex and .bib files, flattens a single wrapping directory,
// and removes the archive. A partially written version directory from a
// failed earlier attempt is replaced.
func (s *Sink) SaveBundle(paperID string, version int, r io.Reader) (BundleInfo, error) {
	var info BundleInfo

	dir := s.PaperDir(paperID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return info, fmt.Errorf("creating paper directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".bundle-*.tar.gz")
	if err != nil {
		return info, fmt.Errorf("creating temp archive: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	n, copyErr := io.Copy(tmpFile, r)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		return info, fmt.Errorf("writing archive: %w", copyErr)
	}
	if closeErr != nil {
		return info, fmt.Errorf("closing temp archive: %w", closeErr)
	}
	info.Bytes = n

	versionDir := s.VersionDir(paperID, version)
	if err := os.RemoveAll(versionDir); err != nil {
		return info, fmt.Errorf("clearing version directory: %w", err)
	}
	if err := extractTarGz(tmpPath, versionDir); err != nil {
		os.RemoveAll(versionDir)
		return info, fmt.Errorf("extracting archive: %w", err)
	}

	kept, removed, err := pruneSources(versionDir)
	if err != nil {
		return info, fmt.Errorf("cleaning sources: %w", err)
	}
	info.FilesKept = kept
	info.FilesRemoved = removed

	if err := flattenSingleDir(versionDir); err != nil {
		return info, fmt.Errorf("flattening sources: %w", err)
	}

	s.logger.Debug().
		Str("paper_id", paperID).
		Int("version", version).
		Int64("bytes", n).
		Int("files_kept", kept).
		Int("files_removed", removed).
		Msg("bundle saved")
	return info, nil
}

// WriteMetadata writes the paper's metadata record as YAML.
func (s *Sink) WriteMetadata(paperID string, md types.PaperMetadata) error {
	dir := s.PaperDir(paperID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating paper directory: %w", err)
	}
	data, err := yaml.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, metadataFile), data, 0o644)
}

// WriteReferences writes the paper's extracted references as JSON.
func (s *Sink) WriteReferences(paperID string, payload types.ReferencePayload) error {
	dir := s.PaperDir(paperID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating paper directory: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling references: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, referencesFile), data, 0o644)
}

// HasVersion reports whether a version directory already exists and is
// non-empty. The download stage uses it to skip versions persisted by an
// earlier run.
func (s *Sink) HasVersion(paperID string, version int) bool {
	entries, err := os.ReadDir(s.VersionDir(paperID, version))
	return err == nil && len(entries) > 0
}
