// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-harvester/internal/httputil"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// Base URLs for the arXiv endpoints. Declared as vars so tests can
// substitute httptest servers.
var (
	apiBase    = "https://export.arxiv.org/api/query"
	eprintBase = "https://arxiv.org/e-print/"
	absBase    = "https://arxiv.org/abs/"
)

// maxBundleBytes caps a single e-print download.
const maxBundleBytes = 512 << 20

// Client fetches paper metadata and source bundles from arXiv.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient wraps an HTTP client for arXiv access. The caller supplies
// the pooled client so the per-request timeout is configured once.
func NewClient(httpClient *http.Client, cfg types.HTTPConfig) *Client {
	return &Client{httpClient: httpClient, userAgent: cfg.UserAgent}
}

// arXiv Atom feed XML structures.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string       `xml:"id"`
	Title      string       `xml:"title"`
	Published  string       `xml:"published"`
	Authors    []atomAuthor `xml:"author"`
	JournalRef string       `xml:"journal_ref"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

// Lookup retrieves a paper's core metadata from the export API. A paper
// with no feed entry yields httputil.ErrNotFound; the harvest records
// such papers as failed rather than skipping them.
func (c *Client) Lookup(ctx context.Context, id string) (*types.PaperMetadata, error) {
	if !Valid(id) {
		return nil, fmt.Errorf("%w: %q", httputil.ErrInvalidID, id)
	}
	reqURL := fmt.Sprintf("%s?id_list=%s", apiBase, Normalize(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API: %w", &httputil.StatusError{Code: resp.StatusCode})
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	// The export API answers unknown IDs with an empty feed or an entry
	// whose id links to the api itself; treat both as not found.
	if len(feed.Entries) == 0 || feed.Entries[0].Title == "" {
		return nil, fmt.Errorf("no arXiv entry for %s: %w", id, httputil.ErrNotFound)
	}

	entry := feed.Entries[0]
	meta := &types.PaperMetadata{
		Title: strings.Join(strings.Fields(entry.Title), " "),
		Venue: strings.TrimSpace(entry.JournalRef),
	}
	for _, a := range entry.Authors {
		meta.Authors = append(meta.Authors, strings.TrimSpace(a.Name))
	}
	if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
		meta.SubmissionDate = t.Format("2006-01-02")
	}
	return meta, nil
}

// monthNumbers maps abbreviated month names on the abstract page.
var monthNumbers = map[string]string{
	"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04",
	"May": "05", "Jun": "06", "Jul": "07", "Aug": "08",
	"Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
}

// versionDatePattern matches the "[v2] Tue, 6 May 2025" announcement
// lines on the abstract page.
var versionDatePattern = regexp.MustCompile(`\[v(\d+)\][^\[]*?(\d{1,2})\s+([A-Za-z]{3})\s+(\d{4})`)

// VersionDates scrapes per-version announcement dates from the abstract
// page, returned sorted as YYYY-MM-DD strings. Best effort: any failure
// yields an empty slice and the error for the caller to log.
func (c *Client) VersionDates(ctx context.Context, id string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, absBase+Normalize(id), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("abstract page request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("abstract page: %w", &httputil.StatusError{Code: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("reading abstract page: %w", err)
	}

	var dates []string
	seen := make(map[string]bool)
	for _, m := range versionDatePattern.FindAllStringSubmatch(string(body), -1) {
		month, ok := monthNumbers[m[3]]
		if !ok {
			continue
		}
		day := m[2]
		if len(day) == 1 {
			day = "0" + day
		}
		date := fmt.Sprintf("%s-%s-%s", m[4], month, day)
		if !seen[date] {
			seen[date] = true
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// Exists probes whether a specific version's e-print is available. A 404
// is a definitive "no", not an error; other unexpected statuses surface
// as StatusError so the retry policy can classify them.
func (c *Client) Exists(ctx context.Context, id string, version int) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, eprintBase+VersionID(Normalize(id), version), nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("existence probe: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	default:
		return false, fmt.Errorf("existence probe: %w", &httputil.StatusError{Code: resp.StatusCode})
	}
}

// FetchBundle downloads one version's e-print source bundle.
func (c *Client) FetchBundle(ctx context.Context, id string, version int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, eprintBase+VersionID(Normalize(id), version), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("e-print request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("e-print %s: %w", VersionID(id, version), httputil.ErrNotFound)
	default:
		return nil, fmt.Errorf("e-print %s: %w", VersionID(id, version), &httputil.StatusError{Code: resp.StatusCode})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBundleBytes))
	if err != nil {
		return nil, fmt.Errorf("reading e-print body: %w", err)
	}
	return data, nil
}
