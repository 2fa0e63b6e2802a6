// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research pipeline:
// the classified Intent, per-source results, the final ResearchAnswer, the
// records returned by each source connector, and configuration.
package types

import "strings"

// Source identifies one biomedical data provider.
type Source string

const (
	SourceLiterature Source = "literature"
	SourceTrials     Source = "trials"
	SourcePreprints  Source = "preprints"
)

// DefaultSource is consulted when classification fails.
const DefaultSource = SourceLiterature

// Sources lists every known source in canonical order.
var Sources = []Source{SourceLiterature, SourceTrials, SourcePreprints}

// sourceAliases maps names a model is likely to produce onto canonical sources.
var sourceAliases = map[string]Source{
	"literature":         SourceLiterature,
	"pubmed":             SourceLiterature,
	"trials":             SourceTrials,
	"clinicaltrials":     SourceTrials,
	"clinicaltrials.gov": SourceTrials,
	"clinical_trials":    SourceTrials,
	"preprints":          SourcePreprints,
	"biorxiv":            SourcePreprints,
	"medrxiv":            SourcePreprints,
}

// ParseSource resolves a source name or one of its aliases
// (e.g. "pubmed", "clinicaltrials", "biorxiv"). Matching is case-insensitive.
func ParseSource(name string) (Source, bool) {
	s, ok := sourceAliases[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// IdentifierKind names a kind of extracted identifier.
type IdentifierKind string

const (
	IdentifierPMID  IdentifierKind = "pmid"
	IdentifierDOI   IdentifierKind = "doi"
	IdentifierNCTID IdentifierKind = "nct_id"
)

// QueryType tags the kind of request. Its meaning depends on the source.
type QueryType string

const (
	QuerySearch    QueryType = "search"
	QueryAbstract  QueryType = "abstract"
	QueryRelated   QueryType = "related"
	QueryAuthor    QueryType = "author"
	QueryPreprint  QueryType = "preprint"
	QueryPublished QueryType = "published"
	QueryTrial     QueryType = "trial"
	QueryCondition QueryType = "condition"
	QueryLocation  QueryType = "location"
)

var validQueryTypes = map[QueryType]bool{
	QuerySearch:    true,
	QueryAbstract:  true,
	QueryRelated:   true,
	QueryAuthor:    true,
	QueryPreprint:  true,
	QueryPublished: true,
	QueryTrial:     true,
	QueryCondition: true,
	QueryLocation:  true,
}

// Valid reports whether q is one of the known query types.
func (q QueryType) Valid() bool {
	return validQueryTypes[q]
}

// Intent is the classifier's structured reading of a question.
type Intent struct {
	// Databases lists the sources to consult, in the order produced.
	// Never empty once classification completes.
	Databases []Source `json:"databases" yaml:"databases"`

	// Identifiers maps an identifier kind to its extracted value.
	// Absent kinds mean nothing was extracted.
	Identifiers map[IdentifierKind]string `json:"identifiers" yaml:"identifiers"`

	// QueryType selects the operation within each source.
	QueryType QueryType `json:"query_type" yaml:"query_type"`

	// OriginalQuery is the verbatim question, attached after classification.
	OriginalQuery string `json:"original_query,omitempty" yaml:"original_query,omitempty"`
}

// FallbackIntent returns the intent used whenever classification cannot
// produce a usable result.
func FallbackIntent() Intent {
	return Intent{
		Databases:   []Source{DefaultSource},
		Identifiers: map[IdentifierKind]string{},
		QueryType:   QuerySearch,
	}
}

// Identifier returns the value for kind and whether it is present.
func (in Intent) Identifier(kind IdentifierKind) (string, bool) {
	v, ok := in.Identifiers[kind]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
