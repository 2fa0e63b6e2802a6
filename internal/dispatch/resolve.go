// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch decides which connector operation answers an Intent for
// each source, and runs those operations concurrently with per-source
// failure isolation.
package dispatch

import (
	"github.com/pdiddy/deep-research/pkg/types"
)

// RecentWindowDays is the look-back window for recent preprints.
const RecentWindowDays = 7

// Operation names a connector capability.
type Operation string

const (
	OpSearch               Operation = "search"
	OpSearchByAuthor       Operation = "search_by_author"
	OpFetchAbstract        Operation = "fetch_abstract"
	OpFetchRelated         Operation = "fetch_related"
	OpFetchTrial           Operation = "fetch_trial"
	OpSearchByCondition    Operation = "search_by_condition"
	OpSearchByLocation     Operation = "search_by_location"
	OpFetchByDOI           Operation = "fetch_by_doi"
	OpFindPublishedVersion Operation = "find_published_version"
	OpListRecent           Operation = "list_recent"
)

// Call is one concrete connector invocation. Only the fields the operation
// uses are set, so two Calls for the same work compare equal.
type Call struct {
	Source    types.Source `json:"source"`
	Operation Operation    `json:"operation"`

	// ID is the identifier argument (PMID, NCT ID, or DOI).
	ID string `json:"id,omitempty"`

	// Query is the free-text argument.
	Query string `json:"query,omitempty"`

	Limit    int    `json:"limit,omitempty"`
	Days     int    `json:"days,omitempty"`
	Category string `json:"category,omitempty"`

	// Server names a preprint server; empty uses the default connector.
	Server string `json:"server,omitempty"`
}

// rule is one row of a source's priority table. Rules are tried in order
// and the first match builds the call.
type rule struct {
	name  string
	match func(in types.Intent) bool
	build func(source types.Source, in types.Intent, limit int) Call
}

func always(types.Intent) bool { return true }

func hasID(kind types.IdentifierKind) func(types.Intent) bool {
	return func(in types.Intent) bool {
		_, ok := in.Identifier(kind)
		return ok
	}
}

func hasIDAndType(kind types.IdentifierKind, qt types.QueryType) func(types.Intent) bool {
	return func(in types.Intent) bool {
		_, ok := in.Identifier(kind)
		return ok && in.QueryType == qt
	}
}

func isType(qt types.QueryType) func(types.Intent) bool {
	return func(in types.Intent) bool { return in.QueryType == qt }
}

func byID(op Operation, kind types.IdentifierKind) func(types.Source, types.Intent, int) Call {
	return func(s types.Source, in types.Intent, _ int) Call {
		id, _ := in.Identifier(kind)
		return Call{Source: s, Operation: op, ID: id}
	}
}

func byIDWithLimit(op Operation, kind types.IdentifierKind) func(types.Source, types.Intent, int) Call {
	return func(s types.Source, in types.Intent, limit int) Call {
		id, _ := in.Identifier(kind)
		return Call{Source: s, Operation: op, ID: id, Limit: limit}
	}
}

func byQuery(op Operation) func(types.Source, types.Intent, int) Call {
	return func(s types.Source, in types.Intent, limit int) Call {
		return Call{Source: s, Operation: op, Query: in.OriginalQuery, Limit: limit}
	}
}

func recent(s types.Source, _ types.Intent, limit int) Call {
	return Call{Source: s, Operation: OpListRecent, Days: RecentWindowDays, Limit: limit}
}

// rules holds each source's priority table: identifier rules first, then
// query_type rules, then the default. The last rule of every table matches
// unconditionally.
var rules = map[types.Source][]rule{
	types.SourceLiterature: {
		{"pmid+related", hasIDAndType(types.IdentifierPMID, types.QueryRelated), byIDWithLimit(OpFetchRelated, types.IdentifierPMID)},
		{"pmid", hasID(types.IdentifierPMID), byID(OpFetchAbstract, types.IdentifierPMID)},
		{"author", isType(types.QueryAuthor), byQuery(OpSearchByAuthor)},
		{"default", always, byQuery(OpSearch)},
	},
	types.SourceTrials: {
		{"nct_id", hasID(types.IdentifierNCTID), byID(OpFetchTrial, types.IdentifierNCTID)},
		{"condition", isType(types.QueryCondition), byQuery(OpSearchByCondition)},
		{"location", isType(types.QueryLocation), byQuery(OpSearchByLocation)},
		{"default", always, byQuery(OpSearch)},
	},
	types.SourcePreprints: {
		{"doi+published", hasIDAndType(types.IdentifierDOI, types.QueryPublished), byID(OpFindPublishedVersion, types.IdentifierDOI)},
		{"doi", hasID(types.IdentifierDOI), byID(OpFetchByDOI, types.IdentifierDOI)},
		{"default", always, recent},
	},
}

// Resolve picks the connector call for source under intent. limit is the
// caller's max-results bound. It reports false for sources with no rule
// table. Resolve has no side effects.
func Resolve(source types.Source, intent types.Intent, limit int) (Call, bool) {
	table, ok := rules[source]
	if !ok {
		return Call{}, false
	}
	for _, r := range table {
		if r.match(intent) {
			return r.build(source, intent, limit), true
		}
	}
	return Call{}, false
}

// matchedRule names the rule Resolve would use. Tests use it to check that
// every row of every table is reachable.
func matchedRule(source types.Source, intent types.Intent) string {
	for _, r := range rules[source] {
		if r.match(intent) {
			return r.name
		}
	}
	return ""
}
