// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// buildTarGz assembles a gzipped tar from name→content pairs. Names
// ending in "/" become directories.
func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		if name[len(name)-1] == '/' {
			if err := tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
				t.Fatalf("writing dir header: %v", err)
			}
			continue
		}
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("writing content: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}
	return buf.Bytes()
}

func newTestSink(t *testing.T) *Sink {
	t.Helper()
	return NewSink(t.TempDir(), zerolog.Nop())
}

func TestSaveBundleKeepsSourcesOnly(t *testing.T) {
	s := newTestSink(t)
	archive := buildTarGz(t, map[string]string{
		"main.tex":    "\\documentclass{article}",
		"refs.bib":    "@article{x}",
		"figure.pdf":  "%PDF",
		"Makefile":    "all:",
		"img/plot.px": "binary",
	})

	info, err := s.SaveBundle("2301.04567", 1, bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("SaveBundle: %v", err)
	}
	if info.FilesKept != 2 {
		t.Errorf("FilesKept = %d, want 2", info.FilesKept)
	}
	if info.FilesRemoved != 3 {
		t.Errorf("FilesRemoved = %d, want 3", info.FilesRemoved)
	}
	if info.Bytes != int64(len(archive)) {
		t.Errorf("Bytes = %d, want %d", info.Bytes, len(archive))
	}

	vdir := s.VersionDir("2301.04567", 1)
	for _, want := range []string{"main.tex", "refs.bib"} {
		if _, err := os.Stat(filepath.Join(vdir, want)); err != nil {
			t.Errorf("expected %s to survive: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(vdir, "figure.pdf")); !os.IsNotExist(err) {
		t.Errorf("figure.pdf should be removed")
	}
	// emptied subdirectory is gone too
	if _, err := os.Stat(filepath.Join(vdir, "img")); !os.IsNotExist(err) {
		t.Errorf("empty img/ should be removed")
	}
	// no archive left behind
	entries, err := os.ReadDir(s.PaperDir("2301.04567"))
	if err != nil {
		t.Fatalf("reading paper dir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".gz" {
			t.Errorf("archive %s not cleaned up", e.Name())
		}
	}
}

func TestSaveBundleFlattensWrapperDir(t *testing.T) {
	s := newTestSink(t)
	archive := buildTarGz(t, map[string]string{
		"paper-v1/":         "",
		"paper-v1/main.tex": "content",
		"paper-v1/cite.bib": "@misc{y}",
	})

	if _, err := s.SaveBundle("2301.04567", 2, bytes.NewReader(archive)); err != nil {
		t.Fatalf("SaveBundle: %v", err)
	}

	vdir := s.VersionDir("2301.04567", 2)
	if _, err := os.Stat(filepath.Join(vdir, "main.tex")); err != nil {
		t.Errorf("main.tex not lifted to version root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(vdir, "paper-v1")); !os.IsNotExist(err) {
		t.Errorf("wrapper directory should be removed")
	}
}

func TestSaveBundleRejectsTraversal(t *testing.T) {
	s := newTestSink(t)
	archive := buildTarGz(t, map[string]string{
		"../escape.tex": "bad",
	})

	if _, err := s.SaveBundle("2301.04567", 1, bytes.NewReader(archive)); err == nil {
		t.Fatal("expected error for escaping entry")
	}
}

func TestSaveBundleReplacesPartialDir(t *testing.T) {
	s := newTestSink(t)
	vdir := s.VersionDir("2301.04567", 1)
	if err := os.MkdirAll(vdir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(vdir, "stale.tex"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	archive := buildTarGz(t, map[string]string{"fresh.tex": "new"})
	if _, err := s.SaveBundle("2301.04567", 1, bytes.NewReader(archive)); err != nil {
		t.Fatalf("SaveBundle: %v", err)
	}
	if _, err := os.Stat(filepath.Join(vdir, "stale.tex")); !os.IsNotExist(err) {
		t.Errorf("stale file from earlier attempt should be gone")
	}
	if _, err := os.Stat(filepath.Join(vdir, "fresh.tex")); err != nil {
		t.Errorf("fresh file missing: %v", err)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	s := newTestSink(t)
	md := types.PaperMetadata{
		Title:          "Attention Is All You Need",
		Authors:        []string{"Ashish Vaswani", "Noam Shazeer"},
		SubmissionDate: "2017-06-12",
		Venue:          "NeurIPS",
		RevisedDates:   []string{"2017-06-12", "2017-12-06"},
	}
	if err := s.WriteMetadata("1706.03762", md); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.PaperDir("1706.03762"), "metadata.yaml"))
	if err != nil {
		t.Fatalf("reading metadata file: %v", err)
	}
	var got types.PaperMetadata
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshaling metadata: %v", err)
	}
	if got.Title != md.Title {
		t.Errorf("Title = %q, want %q", got.Title, md.Title)
	}
	if len(got.Authors) != 2 {
		t.Errorf("Authors = %v, want 2 entries", got.Authors)
	}
	if got.Venue != md.Venue {
		t.Errorf("Venue = %q, want %q", got.Venue, md.Venue)
	}
}

func TestWriteReferences(t *testing.T) {
	s := newTestSink(t)
	payload := types.ReferencePayload{
		Venue: "ICML",
		References: []types.ReferenceEntry{
			{ArxivID: "2301.00001", Title: "First", SubmissionDate: "2023-01-01"},
			{Title: "No arXiv link"},
		},
	}
	if err := s.WriteReferences("2301.04567", payload); err != nil {
		t.Fatalf("WriteReferences: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.PaperDir("2301.04567"), "references.json"))
	if err != nil {
		t.Fatalf("reading references file: %v", err)
	}
	if !bytes.Contains(data, []byte("2301.00001")) {
		t.Errorf("references file missing arXiv id: %s", data)
	}
	if !bytes.Contains(data, []byte("ICML")) {
		t.Errorf("references file missing venue: %s", data)
	}
}

func TestPaperDirUsesDashedForm(t *testing.T) {
	s := NewSink("/out", zerolog.Nop())
	got := s.PaperDir("2301.04567")
	want := filepath.Join("/out", "2301-04567")
	if got != want {
		t.Errorf("PaperDir = %q, want %q", got, want)
	}
}

func TestHasVersion(t *testing.T) {
	s := newTestSink(t)
	if s.HasVersion("2301.04567", 1) {
		t.Error("HasVersion true for missing dir")
	}
	vdir := s.VersionDir("2301.04567", 1)
	if err := os.MkdirAll(vdir, 0o755); err != nil {
		t.Fatal(err)
	}
	if s.HasVersion("2301.04567", 1) {
		t.Error("HasVersion true for empty dir")
	}
	if err := os.WriteFile(filepath.Join(vdir, "main.tex"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !s.HasVersion("2301.04567", 1) {
		t.Error("HasVersion false for populated dir")
	}
}
