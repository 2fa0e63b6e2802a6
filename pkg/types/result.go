// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceResult is the outcome of querying one source. Exactly one of Data
// and Error is set.
type SourceResult struct {
	// Source identifies which connector produced this entry.
	Source Source `json:"source" yaml:"source"`

	// Data is the connector payload on success.
	Data any `json:"data,omitempty" yaml:"data,omitempty"`

	// Error records the failure message when the call failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded builds a successful SourceResult.
func Succeeded(source Source, data any) SourceResult {
	return SourceResult{Source: source, Data: data}
}

// Failed builds a failed SourceResult carrying err's message.
func Failed(source Source, err error) SourceResult {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return SourceResult{Source: source, Error: msg}
}

// OK reports whether the result carries data.
func (r SourceResult) OK() bool {
	return r.Error == ""
}

// ResearchAnswer is the response to one research question.
type ResearchAnswer struct {
	// ID uniquely identifies the request.
	ID string `json:"id" yaml:"id"`

	// Query is the original question.
	Query string `json:"query" yaml:"query"`

	// Synthesis is the prose answer, or a degraded-mode notice.
	Synthesis string `json:"synthesis" yaml:"synthesis"`

	// RawResults holds one entry per consulted source, in intent order.
	RawResults []SourceResult `json:"raw_results" yaml:"raw_results"`

	// Intent is the classification the results were produced from.
	Intent *Intent `json:"intent,omitempty" yaml:"intent,omitempty"`

	// CreatedAt is when the answer was assembled.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
