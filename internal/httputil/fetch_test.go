// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_DecodesBodyAndSendsUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"name":"trial"}`))
	}))
	defer ts.Close()

	g := &Getter{Client: ts.Client(), UserAgent: "test/0.1"}
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, g.GetJSON(context.Background(), ts.URL, &out))
	assert.Equal(t, "trial", out.Name)
	assert.Equal(t, "test/0.1", gotUA)
}

func TestGetJSON_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer ts.Close()

	g := &Getter{Client: ts.Client()}
	var out map[string]any
	err := g.GetJSON(context.Background(), ts.URL, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding JSON response")
}

func TestGetXML_DecodesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<root><item>a</item><item>b</item></root>`))
	}))
	defer ts.Close()

	g := &Getter{Client: ts.Client()}
	var out struct {
		Items []string `xml:"item"`
	}
	require.NoError(t, g.GetXML(context.Background(), ts.URL, &out))
	assert.Equal(t, []string{"a", "b"}, out.Items)
}

func TestGet_NotFoundMatchesSentinel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such study", http.StatusNotFound)
	}))
	defer ts.Close()

	g := &Getter{Client: ts.Client()}
	_, err := g.Get(context.Background(), ts.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "no such study", se.Body)
}

func TestGet_ServerErrorIsNotNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	g := &Getter{Client: ts.Client()}
	_, err := g.Get(context.Background(), ts.URL)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "HTTP 502", err.Error())
}

func TestCheckStatus_TruncatesBody(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusInternalServerError,
		Body:       http.NoBody,
	}
	assert.EqualError(t, CheckStatus(resp), "HTTP 500")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer ts.Close()

	r, err := ts.Client().Get(ts.URL)
	require.NoError(t, err)
	defer r.Body.Close()

	var se *StatusError
	require.True(t, errors.As(CheckStatus(r), &se))
	assert.Len(t, se.Body, maxErrorBody)
}

func TestThrottle_NilNeverWaits(t *testing.T) {
	var th *Throttle
	assert.NoError(t, th.Wait(context.Background()))
	assert.Nil(t, NewThrottle(0))
}

func TestThrottle_RespectsContext(t *testing.T) {
	th := NewThrottle(0.001)
	require.NoError(t, th.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, th.Wait(ctx))
}
