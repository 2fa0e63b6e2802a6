// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

const efetchXML = `<?xml version="1.0" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2024//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_240101.dtd">
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation Status="MEDLINE" Owner="NLM">
      <PMID Version="1">222</PMID>
      <Article PubModel="Print">
        <Journal>
          <Title>Nature genetics</Title>
          <JournalIssue CitedMedium="Internet">
            <PubDate><MedlineDate>2019 Nov-Dec</MedlineDate></PubDate>
          </JournalIssue>
        </Journal>
        <ArticleTitle>Second article</ArticleTitle>
        <AuthorList>
          <Author><CollectiveName>BRCA Consortium</CollectiveName></Author>
        </AuthorList>
        <ELocationID EIdType="doi" ValidYN="Y">10.1000/second</ELocationID>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation Status="MEDLINE" Owner="NLM">
      <PMID Version="1">111</PMID>
      <Article PubModel="Print">
        <Journal>
          <Title>The New England journal of medicine</Title>
          <JournalIssue CitedMedium="Internet">
            <PubDate><Year>2021</Year><Month>Jan</Month></PubDate>
          </JournalIssue>
        </Journal>
        <ArticleTitle>Role of <i>BRCA1</i> in DNA repair</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">BRCA1 is a tumour suppressor.</AbstractText>
          <AbstractText Label="RESULTS">Loss of <i>BRCA1</i>
            impairs repair.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Smith</LastName><Initials>JA</Initials></Author>
          <Author><LastName>Doe</LastName><Initials>R</Initials></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">111</ArticleId>
        <ArticleId IdType="doi">10.1056/first</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

// fakeEutils serves esearch, elink, and efetch and records the queries.
type fakeEutils struct {
	mu       sync.Mutex
	requests []*http.Request
	esearch  string
	elink    string
	efetch   string
	status   int
}

func (f *fakeEutils) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		fmt.Fprint(w, "upstream unavailable")
		return
	}
	switch {
	case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
		fmt.Fprint(w, f.esearch)
	case strings.HasSuffix(r.URL.Path, "/elink.fcgi"):
		fmt.Fprint(w, f.elink)
	case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, f.efetch)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeEutils) find(suffix string) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if strings.HasSuffix(r.URL.Path, suffix) {
			return r
		}
	}
	return nil
}

func newTestClient(t *testing.T, f *fakeEutils, cfg types.PubMedConfig) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL + "/eutils"
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = -1
	}
	return New(cfg, types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"})
}

func TestSearch(t *testing.T) {
	f := &fakeEutils{
		esearch: `{"header":{"type":"esearch"},"esearchresult":{"count":"2","retmax":"2","idlist":["111","222"]}}`,
		efetch:  efetchXML,
	}
	c := newTestClient(t, f, types.PubMedConfig{})

	got, err := c.Search(context.Background(), "BRCA1 repair", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "111", first.PMID)
	assert.Equal(t, "Role of BRCA1 in DNA repair", first.Title)
	assert.Equal(t, "BACKGROUND: BRCA1 is a tumour suppressor.\nRESULTS: Loss of BRCA1 impairs repair.", first.Abstract)
	assert.Equal(t, []string{"Smith JA", "Doe R"}, first.Authors)
	assert.Equal(t, "The New England journal of medicine", first.Journal)
	assert.Equal(t, "2021", first.Year)
	assert.Equal(t, "10.1056/first", first.DOI)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/111/", first.URL)

	second := got[1]
	assert.Equal(t, "222", second.PMID)
	assert.Equal(t, "2019", second.Year)
	assert.Equal(t, []string{"BRCA Consortium"}, second.Authors)
	assert.Equal(t, "10.1000/second", second.DOI)

	es := f.find("/esearch.fcgi")
	require.NotNil(t, es)
	q := es.URL.Query()
	assert.Equal(t, "pubmed", q.Get("db"))
	assert.Equal(t, "BRCA1 repair", q.Get("term"))
	assert.Equal(t, "5", q.Get("retmax"))
	assert.Equal(t, "json", q.Get("retmode"))
	assert.Equal(t, "deep-research", q.Get("tool"))
	assert.Empty(t, q.Get("api_key"))
	assert.Equal(t, "test/0.1", es.Header.Get("User-Agent"))

	ef := f.find("/efetch.fcgi")
	require.NotNil(t, ef)
	assert.Equal(t, "111,222", ef.URL.Query().Get("id"))
}

func TestSearch_NoHits(t *testing.T) {
	f := &fakeEutils{esearch: `{"esearchresult":{"count":"0","idlist":[]}}`}
	c := newTestClient(t, f, types.PubMedConfig{})

	got, err := c.Search(context.Background(), "nothing matches this", 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Nil(t, f.find("/efetch.fcgi"), "efetch should not be called without ids")
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := newTestClient(t, &fakeEutils{}, types.PubMedConfig{})
	_, err := c.Search(context.Background(), "  ", 10)
	assert.Error(t, err)
}

func TestSearch_ServiceError(t *testing.T) {
	f := &fakeEutils{esearch: `{"esearchresult":{"ERROR":"Invalid query syntax"}}`}
	c := newTestClient(t, f, types.PubMedConfig{})

	_, err := c.Search(context.Background(), "x", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid query syntax")
}

func TestSearch_HTTPError(t *testing.T) {
	f := &fakeEutils{status: http.StatusServiceUnavailable}
	c := newTestClient(t, f, types.PubMedConfig{})

	_, err := c.Search(context.Background(), "x", 10)
	require.Error(t, err)
	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
}

func TestSearchByAuthor(t *testing.T) {
	f := &fakeEutils{
		esearch: `{"esearchresult":{"idlist":["111"]}}`,
		efetch:  efetchXML,
	}
	c := newTestClient(t, f, types.PubMedConfig{APIKey: "k", Email: "a@b.org"})

	got, err := c.SearchByAuthor(context.Background(), "Smith JA", 3)
	require.NoError(t, err)
	require.Len(t, got, 1)

	q := f.find("/esearch.fcgi").URL.Query()
	assert.Equal(t, "Smith JA[Author]", q.Get("term"))
	assert.Equal(t, "k", q.Get("api_key"))
	assert.Equal(t, "a@b.org", q.Get("email"))
}

func TestFetchAbstract(t *testing.T) {
	f := &fakeEutils{efetch: efetchXML}
	c := newTestClient(t, f, types.PubMedConfig{})

	got, err := c.FetchAbstract(context.Background(), "PMID: 111")
	require.NoError(t, err)
	assert.Equal(t, "111", got.PMID)
	assert.Contains(t, got.Abstract, "tumour suppressor")
	assert.Equal(t, "111", f.find("/efetch.fcgi").URL.Query().Get("id"))
}

func TestFetchAbstract_NotFound(t *testing.T) {
	f := &fakeEutils{efetch: `<?xml version="1.0" ?><PubmedArticleSet></PubmedArticleSet>`}
	c := newTestClient(t, f, types.PubMedConfig{})

	_, err := c.FetchAbstract(context.Background(), "999")
	assert.ErrorIs(t, err, httputil.ErrNotFound)
}

func TestFetchAbstract_InvalidPMID(t *testing.T) {
	c := newTestClient(t, &fakeEutils{}, types.PubMedConfig{})
	_, err := c.FetchAbstract(context.Background(), "abc")
	assert.Error(t, err)
}

func TestFetchRelated(t *testing.T) {
	f := &fakeEutils{
		elink: `{"header":{"type":"elink"},"linksets":[{"dbfrom":"pubmed","ids":["333"],
			"linksetdbs":[{"dbto":"pubmed","linkname":"pubmed_pubmed","links":["333","222","111","444"]}]}]}`,
		efetch: efetchXML,
	}
	c := newTestClient(t, f, types.PubMedConfig{})

	got, err := c.FetchRelated(context.Background(), "333", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "222", got[0].PMID)
	assert.Equal(t, "111", got[1].PMID)

	el := f.find("/elink.fcgi").URL.Query()
	assert.Equal(t, "neighbor", el.Get("cmd"))
	assert.Equal(t, "pubmed_pubmed", el.Get("linkname"))
	assert.Equal(t, "222,111", f.find("/efetch.fcgi").URL.Query().Get("id"))
}

func TestFetchRelated_NoLinks(t *testing.T) {
	f := &fakeEutils{elink: `{"linksets":[{"dbfrom":"pubmed","ids":["333"]}]}`}
	c := newTestClient(t, f, types.PubMedConfig{})

	got, err := c.FetchRelated(context.Background(), "333", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNormalizePMID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"12345678", "12345678", false},
		{" PMID:12345678 ", "12345678", false},
		{"pmid 42", "42", false},
		{"", "", true},
		{"12a", "", true},
	}
	for _, tt := range tests {
		got, err := normalizePMID(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNew_DefaultRate(t *testing.T) {
	assert.NotNil(t, New(types.PubMedConfig{}, types.HTTPConfig{}).get.Throttle)
	assert.Equal(t, defaultBaseURL, New(types.PubMedConfig{}, types.HTTPConfig{}).baseURL)
}
