// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries NCBI E-utilities for PubMed articles.
package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// defaultBaseURL is the E-utilities root used when the config leaves it
// empty.
var defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	toolName = "deep-research"

	// NCBI allows 3 requests per second without a key and 10 with one.
	anonymousRate = 3
	keyedRate     = 10
)

// Client is the PubMed connector.
type Client struct {
	get     *httputil.Getter
	baseURL string
	apiKey  string
	email   string
}

// New returns a Client for cfg. Requests are throttled to the NCBI limit
// unless cfg.RequestsPerSecond overrides it.
func New(cfg types.PubMedConfig, httpCfg types.HTTPConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = anonymousRate
		if cfg.APIKey != "" {
			rps = keyedRate
		}
	}
	return &Client{
		get: &httputil.Getter{
			Client:    &http.Client{Timeout: httpCfg.Timeout},
			UserAgent: httpCfg.UserAgent,
			Throttle:  httputil.NewThrottle(rps),
		},
		baseURL: base,
		apiKey:  cfg.APIKey,
		email:   cfg.Email,
	}
}

// Search returns articles matching a free-text query, most relevant first.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]types.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}
	ids, err := c.esearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, ids)
}

// SearchByAuthor returns articles listing author.
func (c *Client) SearchByAuthor(ctx context.Context, author string, limit int) ([]types.Article, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return nil, fmt.Errorf("empty author name")
	}
	ids, err := c.esearch(ctx, author+"[Author]", limit)
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, ids)
}

// FetchAbstract returns one article with its abstract.
func (c *Client) FetchAbstract(ctx context.Context, pmid string) (*types.Article, error) {
	pmid, err := normalizePMID(pmid)
	if err != nil {
		return nil, err
	}
	articles, err := c.fetch(ctx, []string{pmid})
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("PMID %s: %w", pmid, httputil.ErrNotFound)
	}
	return &articles[0], nil
}

// FetchRelated returns up to limit articles PubMed links to pmid as
// similar, excluding pmid itself.
func (c *Client) FetchRelated(ctx context.Context, pmid string, limit int) ([]types.Article, error) {
	pmid, err := normalizePMID(pmid)
	if err != nil {
		return nil, err
	}
	ids, err := c.elink(ctx, pmid)
	if err != nil {
		return nil, err
	}

	related := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == pmid {
			continue
		}
		related = append(related, id)
		if limit > 0 && len(related) == limit {
			break
		}
	}
	return c.fetch(ctx, related)
}

// endpoint builds an E-utilities URL with the shared identification
// parameters attached.
func (c *Client) endpoint(name string, params url.Values) string {
	params.Set("tool", toolName)
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	if c.email != "" {
		params.Set("email", c.email)
	}
	return c.baseURL + "/" + name + "?" + params.Encode()
}

type esearchResponse struct {
	Error  string `json:"error"`
	Result struct {
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR"`
	} `json:"esearchresult"`
}

func (c *Client) esearch(ctx context.Context, term string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	u := c.endpoint("esearch.fcgi", url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmax":  {strconv.Itoa(limit)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	})

	var resp esearchResponse
	if err := c.get.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("PubMed search: %w", err)
	}
	if msg := firstNonEmpty(resp.Error, resp.Result.Error); msg != "" {
		return nil, fmt.Errorf("PubMed search: %s", msg)
	}
	return resp.Result.IDList, nil
}

type elinkResponse struct {
	Error    string `json:"ERROR"`
	LinkSets []struct {
		LinkSetDBs []struct {
			LinkName string   `json:"linkname"`
			Links    []string `json:"links"`
		} `json:"linksetdbs"`
	} `json:"linksets"`
}

func (c *Client) elink(ctx context.Context, pmid string) ([]string, error) {
	u := c.endpoint("elink.fcgi", url.Values{
		"dbfrom":   {"pubmed"},
		"db":       {"pubmed"},
		"id":       {pmid},
		"cmd":      {"neighbor"},
		"linkname": {"pubmed_pubmed"},
		"retmode":  {"json"},
	})

	var resp elinkResponse
	if err := c.get.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("PubMed related articles: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("PubMed related articles: %s", resp.Error)
	}
	for _, ls := range resp.LinkSets {
		for _, db := range ls.LinkSetDBs {
			if db.LinkName == "pubmed_pubmed" {
				return db.Links, nil
			}
		}
	}
	return nil, nil
}

// fetch retrieves full records for ids, in the order given.
func (c *Client) fetch(ctx context.Context, ids []string) ([]types.Article, error) {
	if len(ids) == 0 {
		return []types.Article{}, nil
	}
	u := c.endpoint("efetch.fcgi", url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	})

	var set articleSet
	if err := c.get.GetXML(ctx, u, &set); err != nil {
		return nil, fmt.Errorf("PubMed fetch: %w", err)
	}

	byID := make(map[string]types.Article, len(set.Articles))
	for _, pa := range set.Articles {
		a := pa.toArticle()
		if a.PMID != "" {
			byID[a.PMID] = a
		}
	}
	articles := make([]types.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			articles = append(articles, a)
		}
	}
	return articles, nil
}

// normalizePMID accepts "12345678" or "PMID: 12345678".
func normalizePMID(pmid string) (string, error) {
	p := strings.TrimSpace(pmid)
	if len(p) >= 4 && strings.EqualFold(p[:4], "pmid") {
		p = strings.TrimSpace(strings.TrimLeft(p[4:], ": "))
	}
	if p == "" {
		return "", fmt.Errorf("empty PMID")
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid PMID %q", pmid)
		}
	}
	return p, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ArticleURL returns the PubMed page for pmid.
func ArticleURL(pmid string) string {
	return "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
}
