// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trials queries the ClinicalTrials.gov v2 API.
package trials

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// defaultBaseURL is the v2 API root used when the config leaves it empty.
var defaultBaseURL = "https://clinicaltrials.gov/api/v2"

// maxPageSize is the largest page the API serves.
const maxPageSize = 1000

var nctPattern = regexp.MustCompile(`^NCT\d{8}$`)

// Client is the clinical-trial registry connector.
type Client struct {
	get     *httputil.Getter
	baseURL string
}

// New returns a Client for cfg.
func New(cfg types.TrialsConfig, httpCfg types.HTTPConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		get: &httputil.Getter{
			Client:    &http.Client{Timeout: httpCfg.Timeout},
			UserAgent: httpCfg.UserAgent,
		},
		baseURL: base,
	}
}

// Search returns studies matching free text.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]types.Trial, error) {
	return c.studies(ctx, "query.term", query, limit)
}

// SearchByCondition returns studies of a medical condition.
func (c *Client) SearchByCondition(ctx context.Context, condition string, limit int) ([]types.Trial, error) {
	return c.studies(ctx, "query.cond", condition, limit)
}

// SearchByLocation returns studies with a site matching location.
func (c *Client) SearchByLocation(ctx context.Context, location string, limit int) ([]types.Trial, error) {
	return c.studies(ctx, "query.locn", location, limit)
}

// FetchTrial returns one study by NCT ID.
func (c *Client) FetchTrial(ctx context.Context, nctID string) (*types.Trial, error) {
	id := strings.ToUpper(strings.TrimSpace(nctID))
	if !nctPattern.MatchString(id) {
		return nil, fmt.Errorf("invalid NCT ID %q", nctID)
	}

	var s study
	u := c.baseURL + "/studies/" + id + "?format=json"
	if err := c.get.GetJSON(ctx, u, &s); err != nil {
		return nil, fmt.Errorf("ClinicalTrials.gov trial %s: %w", id, err)
	}
	t := s.toTrial()
	if t.NCTID == "" {
		return nil, fmt.Errorf("ClinicalTrials.gov trial %s: %w", id, httputil.ErrNotFound)
	}
	return &t, nil
}

func (c *Client) studies(ctx context.Context, param, value string, limit int) ([]types.Trial, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty ClinicalTrials.gov %s", param)
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	q := url.Values{
		param:      {value},
		"pageSize": {strconv.Itoa(limit)},
		"format":   {"json"},
	}
	var resp studiesResponse
	if err := c.get.GetJSON(ctx, c.baseURL+"/studies?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("ClinicalTrials.gov search: %w", err)
	}

	trials := make([]types.Trial, 0, len(resp.Studies))
	for _, s := range resp.Studies {
		if t := s.toTrial(); t.NCTID != "" {
			trials = append(trials, t)
		}
	}
	return trials, nil
}

// StudyURL returns the registry page for an NCT ID.
func StudyURL(nctID string) string {
	return "https://clinicaltrials.gov/study/" + nctID
}
