// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv talks to the arXiv repository: identifier handling,
// metadata lookup via the export Atom API, version existence probes, and
// e-print source bundle fetches.
package arxiv

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/arxiv-harvester/internal/httputil"
)

// idPattern matches a canonical modern arXiv identifier, optionally with
// a category prefix, e.g. "2504.13946" or "math.GT/2504.13946" style
// new-form IDs. Month must be 01-12.
var idPattern = regexp.MustCompile(`^(\w+\.)?\d{2}(0[1-9]|1[0-2])\.\d{4,5}$`)

// versionSuffix matches a trailing version marker like "v3".
var versionSuffix = regexp.MustCompile(`v\d+$`)

// Normalize strips an "arXiv:" prefix, surrounding whitespace, and any
// trailing version marker, returning the canonical base identifier.
func Normalize(id string) string {
	id = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(id), "arXiv:"))
	return versionSuffix.ReplaceAllString(id, "")
}

// Valid reports whether id (after normalization) is a well-formed
// identifier.
func Valid(id string) bool {
	return idPattern.MatchString(Normalize(id))
}

// DirID converts a canonical identifier to its on-disk directory form:
// "2504.13946" becomes "2504-13946". Identifiers without a dot pass
// through unchanged.
func DirID(id string) string {
	id = Normalize(id)
	if prefix, num, ok := strings.Cut(id, "."); ok {
		return prefix + "-" + num
	}
	return id
}

// VersionID returns the versioned identifier, e.g. "2504.13946v2".
func VersionID(id string, version int) string {
	return fmt.Sprintf("%sv%d", id, version)
}

// Range expands an inclusive identifier range sharing a YYMM prefix into
// the full list, e.g. ("2504.13946", "2504.13950") yields five IDs with
// zero-padded five-digit sequence numbers.
func Range(start, end string) ([]string, error) {
	start, end = Normalize(start), Normalize(end)
	sPrefix, sNum, ok := strings.Cut(start, ".")
	if !ok {
		return nil, fmt.Errorf("%w: %q", httputil.ErrInvalidID, start)
	}
	ePrefix, eNum, ok := strings.Cut(end, ".")
	if !ok {
		return nil, fmt.Errorf("%w: %q", httputil.ErrInvalidID, end)
	}
	if sPrefix != ePrefix {
		return nil, fmt.Errorf("%w: range endpoints %q and %q differ in YYMM prefix", httputil.ErrInvalidID, start, end)
	}

	s, err := strconv.Atoi(sNum)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", httputil.ErrInvalidID, start)
	}
	e, err := strconv.Atoi(eNum)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", httputil.ErrInvalidID, end)
	}
	if e < s {
		return nil, fmt.Errorf("%w: range end %q precedes start %q", httputil.ErrInvalidID, end, start)
	}

	ids := make([]string, 0, e-s+1)
	for n := s; n <= e; n++ {
		ids = append(ids, fmt.Sprintf("%s.%05d", sPrefix, n))
	}
	return ids, nil
}
