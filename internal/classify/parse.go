// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

var (
	errNoDatabases   = errors.New("response has no databases")
	errNoKnownSource = errors.New("response names no known database")
	errNoQueryType   = errors.New("response has no query_type")
)

// rawIntent mirrors the JSON the model is asked to produce. Pointers and
// json.RawMessage distinguish absent fields from empty ones.
type rawIntent struct {
	Databases   []string        `json:"databases"`
	Identifiers json.RawMessage `json:"identifiers"`
	QueryType   *string         `json:"query_type"`
}

// StripFence removes a leading "```json" or "```" and a trailing "```"
// from a model response.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "```json"):
		text = text[len("```json"):]
	case strings.HasPrefix(text, "```"):
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ParseIntent parses a model response into an Intent. It returns an error
// when the text is not a JSON object, when databases or query_type are
// missing, or when no listed database is known. Unknown database names are
// dropped and duplicates removed, keeping first occurrence. A query_type
// that is present but blank or unrecognised becomes search.
func ParseIntent(text string) (types.Intent, error) {
	var raw rawIntent
	if err := json.Unmarshal([]byte(StripFence(text)), &raw); err != nil {
		return types.Intent{}, fmt.Errorf("parsing classifier response: %w", err)
	}

	if len(raw.Databases) == 0 {
		return types.Intent{}, errNoDatabases
	}
	databases := normalizeDatabases(raw.Databases)
	if len(databases) == 0 {
		return types.Intent{}, fmt.Errorf("%w: %v", errNoKnownSource, raw.Databases)
	}

	if raw.QueryType == nil {
		return types.Intent{}, errNoQueryType
	}
	qt := types.QueryType(strings.ToLower(strings.TrimSpace(*raw.QueryType)))
	if !qt.Valid() {
		qt = types.QuerySearch
	}

	ids, err := parseIdentifiers(raw.Identifiers)
	if err != nil {
		return types.Intent{}, err
	}

	return types.Intent{
		Databases:   databases,
		Identifiers: ids,
		QueryType:   qt,
	}, nil
}

func normalizeDatabases(names []string) []types.Source {
	seen := make(map[types.Source]bool, len(names))
	var out []types.Source
	for _, name := range names {
		s, ok := types.ParseSource(name)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// parseIdentifiers accepts string or numeric values (models sometimes emit
// a PMID as a number). Unknown kinds, blank values and non-scalar values
// are dropped.
func parseIdentifiers(data json.RawMessage) (map[types.IdentifierKind]string, error) {
	ids := map[types.IdentifierKind]string{}
	if len(data) == 0 || string(data) == "null" {
		return ids, nil
	}

	var values map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("parsing identifiers: %w", err)
	}

	for key, v := range values {
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case json.Number:
			s = val.String()
		default:
			continue
		}
		kind := types.IdentifierKind(strings.ToLower(strings.TrimSpace(key)))
		if value := normalizeIdentifier(kind, s); value != "" {
			ids[kind] = value
		}
	}
	return ids, nil
}

// normalizeIdentifier trims common prefixes so connectors receive bare IDs.
// It returns "" for unknown kinds.
func normalizeIdentifier(kind types.IdentifierKind, value string) string {
	value = strings.TrimSpace(value)
	switch kind {
	case types.IdentifierPMID:
		value = trimPrefixFold(value, "pmid:")
		return strings.TrimSpace(value)
	case types.IdentifierDOI:
		for _, p := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi.org/", "doi:"} {
			value = trimPrefixFold(value, p)
		}
		return strings.TrimSpace(value)
	case types.IdentifierNCTID:
		return strings.ToUpper(value)
	default:
		return ""
	}
}

func trimPrefixFold(s, prefix string) string {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):]
	}
	return s
}
