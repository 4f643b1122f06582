// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package semscholar queries the Semantic Scholar Graph API for a
// paper's reference list and venue in a single call.
package semscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/arxiv-harvester/internal/httputil"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// apiBase is the Graph API paper endpoint. Declared as a var so tests
// can substitute an httptest server.
var apiBase = "https://api.semanticscholar.org/graph/v1/paper/"

// lookupFields covers the paper's venue and everything needed to build
// reference entries in one request.
const lookupFields = "paperId,venue,publicationVenue," +
	"references,references.externalIds,references.title,references.authors," +
	"references.publicationDate,references.year,references.paperId,references.url"

// apiKeyHeader is the header name for the Semantic Scholar API key.
const apiKeyHeader = "x-api-key"

// Client performs citation-graph lookups. It carries no rate limiting
// itself; the harvest layer gates every call through the shared limiter.
type Client struct {
	httpClient *http.Client
	userAgent  string
	apiKey     string
}

// NewClient wraps an HTTP client for Graph API access.
func NewClient(httpClient *http.Client, cfg types.HTTPConfig, apiKey string) *Client {
	return &Client{httpClient: httpClient, userAgent: cfg.UserAgent, apiKey: apiKey}
}

// Lookup fetches the reference list and venue for one arXiv paper.
// Status mapping: 404 is ErrNotFound (permanent), 429 is ErrRateLimited
// (transient), other non-200s are StatusError.
func (c *Client) Lookup(ctx context.Context, id string) (*types.ReferencePayload, error) {
	reqURL := fmt.Sprintf("%sarXiv:%s?fields=%s", apiBase, id, lookupFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("citation graph request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("citation graph has no record of %s: %w", id, httputil.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("citation graph for %s: %w", id, httputil.ErrRateLimited)
	default:
		return nil, fmt.Errorf("citation graph for %s: %w", id, &httputil.StatusError{Code: resp.StatusCode})
	}

	var pr paperResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&pr); err != nil {
		return nil, fmt.Errorf("parsing citation graph response: %w", err)
	}

	payload := &types.ReferencePayload{Venue: resolveVenue(pr)}
	for _, ref := range pr.References {
		if entry := buildEntry(ref); entry != nil {
			payload.References = append(payload.References, *entry)
		}
	}
	return payload, nil
}

// resolveVenue prefers the structured publication venue name over the
// free-text venue string.
func resolveVenue(pr paperResponse) string {
	if pr.PublicationVenue != nil {
		if name := strings.TrimSpace(pr.PublicationVenue.Name); name != "" {
			return name
		}
	}
	return strings.TrimSpace(pr.Venue)
}

// Graph API JSON structures.
type paperResponse struct {
	PaperID          string            `json:"paperId"`
	Venue            string            `json:"venue"`
	PublicationVenue *publicationVenue `json:"publicationVenue"`
	References       []reference       `json:"references"`
}

type publicationVenue struct {
	Name string `json:"name"`
}

type reference struct {
	PaperID         string         `json:"paperId"`
	Title           string         `json:"title"`
	URL             string         `json:"url"`
	PublicationDate string         `json:"publicationDate"`
	Year            int            `json:"year"`
	Authors         []author       `json:"authors"`
	ExternalIDs     map[string]any `json:"externalIds"`
}

type author struct {
	Name string `json:"name"`
}
