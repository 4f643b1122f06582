// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semscholar

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/arxiv-harvester/internal/arxiv"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// arxivURLPatterns extract an identifier from arxiv.org links when the
// externalIds field is missing or incomplete.
var arxivURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)arxiv\.org/abs/([\d.]+v?\d*)`),
	regexp.MustCompile(`(?i)arxiv\.org/pdf/([\d.]+v?\d*)`),
}

// extractArxivID pulls a best-effort arXiv identifier from a reference.
// Returns "" when none can be resolved; such references are still kept,
// just without the cross-link.
func extractArxivID(ref reference) string {
	for key, v := range ref.ExternalIDs {
		if !strings.EqualFold(key, "arxiv") {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if ref.URL != "" && strings.Contains(strings.ToLower(ref.URL), "arxiv.org") {
		for _, p := range arxivURLPatterns {
			if m := p.FindStringSubmatch(ref.URL); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

// buildEntry converts one API reference into a ReferenceEntry. A
// reference without a title carries no usable signal and is dropped.
func buildEntry(ref reference) *types.ReferenceEntry {
	title := strings.TrimSpace(ref.Title)
	if title == "" {
		return nil
	}

	entry := &types.ReferenceEntry{
		Title:             title,
		SemanticScholarID: ref.PaperID,
	}

	if id := extractArxivID(ref); id != "" && arxiv.Valid(id) {
		entry.ArxivID = arxiv.Normalize(id)
	}

	for _, a := range ref.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			entry.Authors = append(entry.Authors, name)
		}
	}

	if date := strings.TrimSpace(ref.PublicationDate); date != "" {
		entry.SubmissionDate = date
	} else if ref.Year >= 1990 && ref.Year <= 2030 {
		// Year-only references get January 1st as a stand-in.
		entry.SubmissionDate = fmt.Sprintf("%d-01-01", ref.Year)
	}

	return entry
}
