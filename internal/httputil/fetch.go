// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNotFound reports that the upstream has no record for the requested
// identifier.
var ErrNotFound = errors.New("not found")

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 2048

// StatusError is returned when an upstream answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match a 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// CheckStatus converts a non-2xx response into a *StatusError, reading at
// most 2 KiB of the body. The caller still owns closing resp.Body.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// Getter issues throttled GET requests with a fixed User-Agent.
type Getter struct {
	Client    *http.Client
	UserAgent string
	Throttle  *Throttle
}

// Get performs a GET and returns the response once its status is 2xx.
func (g *Getter) Get(ctx context.Context, url string) (*http.Response, error) {
	if err := g.Throttle.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := CheckStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// GetJSON fetches url and decodes the JSON body into v.
func (g *Getter) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := g.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding JSON response: %w", err)
	}
	return nil
}

// GetXML fetches url and decodes the XML body into v.
func (g *Getter) GetXML(ctx context.Context, url string, v any) error {
	resp, err := g.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := xml.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding XML response: %w", err)
	}
	return nil
}
