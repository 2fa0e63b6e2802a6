// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package biorxiv queries the bioRxiv and medRxiv preprint API.
package biorxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// defaultBaseURL is the API root used when the config leaves it empty.
var defaultBaseURL = "https://api.biorxiv.org"

const (
	ServerBiorxiv = "biorxiv"
	ServerMedrxiv = "medrxiv"

	defaultRecentDays = 7

	// pageSize is the number of records the details endpoint returns per
	// cursor position.
	pageSize = 100
)

// Client is the preprint connector for one server.
type Client struct {
	get        *httputil.Getter
	baseURL    string
	server     string
	recentDays int
	now        func() time.Time
}

// New returns a Client for cfg. An unknown server falls back to bioRxiv.
func New(cfg types.BiorxivConfig, httpCfg types.HTTPConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	server := strings.ToLower(strings.TrimSpace(cfg.Server))
	if server != ServerMedrxiv {
		server = ServerBiorxiv
	}
	days := cfg.RecentDays
	if days <= 0 {
		days = defaultRecentDays
	}
	return &Client{
		get: &httputil.Getter{
			Client:    &http.Client{Timeout: httpCfg.Timeout},
			UserAgent: httpCfg.UserAgent,
		},
		baseURL:    base,
		server:     server,
		recentDays: days,
		now:        time.Now,
	}
}

// Server reports which preprint server the client queries.
func (c *Client) Server() string { return c.server }

// FetchByDOI returns the latest version of a preprint.
func (c *Client) FetchByDOI(ctx context.Context, doi string) (*types.Preprint, error) {
	doi, err := normalizeDOI(doi)
	if err != nil {
		return nil, err
	}

	var resp detailsResponse
	u := fmt.Sprintf("%s/details/%s/%s/na/json", c.baseURL, c.server, doi)
	if err := c.get.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("%s preprint %s: %w", c.server, doi, err)
	}
	if len(resp.Collection) == 0 {
		return nil, fmt.Errorf("%s preprint %s: %w", c.server, doi, httputil.ErrNotFound)
	}

	latest := resp.Collection[0]
	for _, r := range resp.Collection[1:] {
		if atoi(r.Version) >= atoi(latest.Version) {
			latest = r
		}
	}
	p := latest.toPreprint(c.server)
	return &p, nil
}

// FindPublishedVersion returns the journal publication of a preprint.
func (c *Client) FindPublishedVersion(ctx context.Context, doi string) (*types.Publication, error) {
	doi, err := normalizeDOI(doi)
	if err != nil {
		return nil, err
	}

	var resp pubsResponse
	u := fmt.Sprintf("%s/pubs/%s/%s/na/json", c.baseURL, c.server, doi)
	if err := c.get.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("%s published version of %s: %w", c.server, doi, err)
	}
	for _, r := range resp.Collection {
		if r.PublishedDOI == "" || r.PublishedDOI == "NA" {
			continue
		}
		pub := r.toPublication(c.server, doi)
		return &pub, nil
	}
	return nil, fmt.Errorf("%s published version of %s: %w", c.server, doi, httputil.ErrNotFound)
}

// ListRecent returns preprints posted in the last days days, newest first,
// truncated to limit. category filters by subject (e.g. "neuroscience").
func (c *Client) ListRecent(ctx context.Context, days, limit int, category string) ([]types.Preprint, error) {
	if days <= 0 {
		days = c.recentDays
	}
	if limit <= 0 {
		limit = 10
	}
	to := c.now().UTC()
	from := to.AddDate(0, 0, -days)

	first, err := c.interval(ctx, from, to, 0, category)
	if err != nil {
		return nil, err
	}
	records := first.Collection

	// The endpoint pages oldest first; when the window holds more than one
	// page, the newest records sit on the last one.
	if total := first.total(); total > len(records) {
		last, err := c.interval(ctx, from, to, total-pageSize, category)
		if err != nil {
			return nil, err
		}
		records = last.Collection
	}

	preprints := make([]types.Preprint, 0, len(records))
	for _, r := range records {
		preprints = append(preprints, r.toPreprint(c.server))
	}
	sort.SliceStable(preprints, func(i, j int) bool {
		return preprints[i].Date > preprints[j].Date
	})
	if len(preprints) > limit {
		preprints = preprints[:limit]
	}
	return preprints, nil
}

func (c *Client) interval(ctx context.Context, from, to time.Time, cursor int, category string) (*detailsResponse, error) {
	if cursor < 0 {
		cursor = 0
	}
	u := fmt.Sprintf("%s/details/%s/%s/%s/%d/json", c.baseURL, c.server,
		from.Format(time.DateOnly), to.Format(time.DateOnly), cursor)
	if category = strings.TrimSpace(category); category != "" {
		u += "?" + url.Values{"category": {strings.ReplaceAll(strings.ToLower(category), " ", "_")}}.Encode()
	}

	var resp detailsResponse
	if err := c.get.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("%s recent preprints: %w", c.server, err)
	}
	return &resp, nil
}

// normalizeDOI strips resolver and "doi:" prefixes.
func normalizeDOI(doi string) (string, error) {
	d := strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi.org/", "doi:"} {
		if len(d) >= len(prefix) && strings.EqualFold(d[:len(prefix)], prefix) {
			d = strings.TrimSpace(d[len(prefix):])
			break
		}
	}
	if !strings.HasPrefix(d, "10.") || !strings.Contains(d, "/") {
		return "", fmt.Errorf("invalid DOI %q", doi)
	}
	return d, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// PreprintURL returns the landing page for a preprint version.
func PreprintURL(server, doi, version string) string {
	u := "https://www." + server + ".org/content/" + doi
	if version != "" {
		u += "v" + version
	}
	return u
}
