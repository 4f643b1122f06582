// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// keepExtensions are the source file types retained after extraction.
var keepExtensions = map[string]bool{
	".tex": true,
	".bib": true,
}

// maxExtractedBytes bounds the total extracted size of one archive.
const maxExtractedBytes = 1 << 30

// extractTarGz unpacks a gzipped tar archive into destDir. Entries that
// would escape destDir are rejected. Only regular files and directories
// are materialized.
func extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	var total int64
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		target, err := secureJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			n, copyErr := io.Copy(out, io.LimitReader(tr, maxExtractedBytes-total))
			closeErr := out.Close()
			if copyErr != nil {
				return fmt.Errorf("extracting %s: %w", hdr.Name, copyErr)
			}
			if closeErr != nil {
				return closeErr
			}
			total += n
			if total >= maxExtractedBytes {
				return fmt.Errorf("archive exceeds %d byte extraction limit", int64(maxExtractedBytes))
			}
		default:
			// symlinks, devices, and the rest are skipped
		}
	}
}

// secureJoin joins name under dir and rejects traversal outside dir.
func secureJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	if target != dir && !strings.HasPrefix(target, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}

// pruneSources removes every file below dir whose extension is not in
// keepExtensions, then removes directories left empty. It returns the
// counts of kept and removed files.
func pruneSources(dir string) (kept, removed int, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if keepExtensions[strings.ToLower(filepath.Ext(path))] {
			kept++
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return kept, removed, err
	}
	return kept, removed, removeEmptyDirs(dir)
}

// removeEmptyDirs deletes empty directories below root, deepest first.
// root itself is kept even when empty.
func removeEmptyDirs(root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			if err := os.Remove(dirs[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// flattenSingleDir lifts the contents of dir's sole subdirectory into
// dir itself. Archives often wrap everything in one top-level folder.
func flattenSingleDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}
	sub := filepath.Join(dir, entries[0].Name())
	children, err := os.ReadDir(sub)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := os.Rename(filepath.Join(sub, child.Name()), filepath.Join(dir, child.Name())); err != nil {
			return err
		}
	}
	return os.Remove(sub)
}
