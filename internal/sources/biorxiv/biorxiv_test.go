// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biorxiv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

func newTestClient(t *testing.T, server string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(types.BiorxivConfig{BaseURL: srv.URL, Server: server}, types.HTTPConfig{Timeout: 5 * time.Second})
	c.now = func() time.Time { return time.Date(2026, 3, 8, 15, 0, 0, 0, time.UTC) }
	return c
}

func TestFetchByDOI(t *testing.T) {
	var path string
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, `{"messages":[{"status":"ok"}],"collection":[
			{"doi":"10.1101/2020.03.01.123456","title":"First draft","authors":"Doe, J.; Roe, R.","date":"2020-03-01","version":"1","category":"genomics","abstract":"v1","published":"NA","server":"bioRxiv"},
			{"doi":"10.1101/2020.03.01.123456","title":"Revised","authors":"Doe, J.; Roe, R.","date":"2020-04-01","version":"2","category":"genomics","abstract":" v2 ","published":"10.1038/s41586-020-0000-0","server":"bioRxiv"}]}`)
	})

	got, err := c.FetchByDOI(context.Background(), "https://doi.org/10.1101/2020.03.01.123456")
	require.NoError(t, err)
	assert.Equal(t, "/details/biorxiv/10.1101/2020.03.01.123456/na/json", path)
	assert.Equal(t, "Revised", got.Title)
	assert.Equal(t, "2", got.Version)
	assert.Equal(t, "v2", got.Abstract)
	assert.Equal(t, "biorxiv", got.Server)
	assert.Equal(t, "10.1038/s41586-020-0000-0", got.Published)
	assert.Equal(t, "https://www.biorxiv.org/content/10.1101/2020.03.01.123456v2", got.URL)
}

func TestFetchByDOI_NotFound(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"messages":[{"status":"no posts found"}],"collection":[]}`)
	})
	_, err := c.FetchByDOI(context.Background(), "10.1101/missing")
	assert.ErrorIs(t, err, httputil.ErrNotFound)
}

func TestFetchByDOI_InvalidDOI(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.FetchByDOI(context.Background(), "not-a-doi")
	assert.Error(t, err)
}

func TestFindPublishedVersion(t *testing.T) {
	var path string
	c := newTestClient(t, "medrxiv", func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, `{"messages":[{"status":"ok"}],"collection":[{"medrxiv_doi":"10.1101/2021.01.01.21249999",
			"published_doi":"10.1056/NEJMoa2100000","published_journal":"NEJM","preprint_platform":"medRxiv",
			"preprint_title":"A trial","published_date":"2021-06-01"}]}`)
	})

	got, err := c.FindPublishedVersion(context.Background(), "doi:10.1101/2021.01.01.21249999")
	require.NoError(t, err)
	assert.Equal(t, "/pubs/medrxiv/10.1101/2021.01.01.21249999/na/json", path)
	assert.Equal(t, types.Publication{
		PreprintDOI:   "10.1101/2021.01.01.21249999",
		PublishedDOI:  "10.1056/NEJMoa2100000",
		Journal:       "NEJM",
		PublishedDate: "2021-06-01",
		PreprintTitle: "A trial",
		Server:        "medrxiv",
	}, *got)
}

func TestFindPublishedVersion_Unpublished(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"messages":[{"status":"no posts found"}],"collection":[]}`)
	})
	_, err := c.FindPublishedVersion(context.Background(), "10.1101/x")
	assert.ErrorIs(t, err, httputil.ErrNotFound)
}

func details(n int, startDay int) string {
	var recs []map[string]string
	for i := range n {
		recs = append(recs, map[string]string{
			"doi":     fmt.Sprintf("10.1101/%04d", startDay*1000+i),
			"title":   fmt.Sprintf("Preprint %d", i),
			"date":    fmt.Sprintf("2026-03-%02d", startDay+i%3),
			"version": "1",
		})
	}
	b, _ := json.Marshal(map[string]any{
		"messages":   []map[string]any{{"status": "ok", "count": n, "total": fmt.Sprint(n)}},
		"collection": recs,
	})
	return string(b)
}

func TestListRecent(t *testing.T) {
	var path, category string
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		path, category = r.URL.Path, r.URL.Query().Get("category")
		fmt.Fprint(w, details(5, 1))
	})

	got, err := c.ListRecent(context.Background(), 7, 3, "Cell Biology")
	require.NoError(t, err)
	assert.Equal(t, "/details/biorxiv/2026-03-01/2026-03-08/0/json", path)
	assert.Equal(t, "cell_biology", category)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Date, got[i].Date, "newest first")
	}
	assert.Equal(t, "2026-03-03", got[0].Date)
}

func TestListRecent_LastPage(t *testing.T) {
	var cursors []string
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		cursor := parts[len(parts)-2]
		cursors = append(cursors, cursor)
		if cursor == "0" {
			fmt.Fprint(w, `{"messages":[{"status":"ok","count":100,"total":"250"}],"collection":[{"doi":"10.1101/old","date":"2026-03-01","version":"1"}]}`)
			return
		}
		fmt.Fprint(w, `{"messages":[{"status":"ok","count":100,"total":"250"}],"collection":[{"doi":"10.1101/new","date":"2026-03-08","version":"1"}]}`)
	})

	got, err := c.ListRecent(context.Background(), 0, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "150"}, cursors)
	require.Len(t, got, 1)
	assert.Equal(t, "10.1101/new", got[0].DOI)
}

func TestListRecent_Empty(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"messages":[{"status":"no posts found","total":0}],"collection":[]}`)
	})
	got, err := c.ListRecent(context.Background(), 7, 10, "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListRecent_HTTPError(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.ListRecent(context.Background(), 7, 10, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestNew_Defaults(t *testing.T) {
	c := New(types.BiorxivConfig{Server: "arxiv"}, types.HTTPConfig{})
	assert.Equal(t, ServerBiorxiv, c.Server())
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, defaultRecentDays, c.recentDays)
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"10.1101/x", "10.1101/x"},
		{" https://doi.org/10.1101/x ", "10.1101/x"},
		{"DOI:10.1101/x", "10.1101/x"},
		{"doi.org/10.1101/x", "10.1101/x"},
	}
	for _, tt := range tests {
		got, err := normalizeDOI(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	_, err := normalizeDOI("")
	assert.Error(t, err)
}
