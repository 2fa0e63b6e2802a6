// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Literature is the PubMed-style connector.
type Literature interface {
	Search(ctx context.Context, query string, limit int) ([]types.Article, error)
	SearchByAuthor(ctx context.Context, author string, limit int) ([]types.Article, error)
	FetchAbstract(ctx context.Context, pmid string) (*types.Article, error)
	FetchRelated(ctx context.Context, pmid string, limit int) ([]types.Article, error)
}

// Trials is the clinical-trial registry connector.
type Trials interface {
	Search(ctx context.Context, query string, limit int) ([]types.Trial, error)
	SearchByCondition(ctx context.Context, condition string, limit int) ([]types.Trial, error)
	SearchByLocation(ctx context.Context, location string, limit int) ([]types.Trial, error)
	FetchTrial(ctx context.Context, nctID string) (*types.Trial, error)
}

// Preprints is the preprint-server connector.
type Preprints interface {
	FetchByDOI(ctx context.Context, doi string) (*types.Preprint, error)
	FindPublishedVersion(ctx context.Context, doi string) (*types.Publication, error)
	ListRecent(ctx context.Context, days, limit int, category string) ([]types.Preprint, error)
}

// ErrUnknownServer is returned when a call names a preprint server with no
// configured connector.
var ErrUnknownServer = errors.New("unknown preprint server")

// Connectors bundles one connector per source. A nil connector makes every
// call to its source fail with an error entry.
type Connectors struct {
	Literature Literature
	Trials     Trials
	Preprints  Preprints

	// PreprintServers holds per-server preprint connectors keyed by server
	// name ("biorxiv", "medrxiv"). A Call with Server set is routed here;
	// otherwise Preprints serves it.
	PreprintServers map[string]Preprints
}

// Invoke runs call against the matching connector and returns its payload.
func (c Connectors) Invoke(ctx context.Context, call Call) (any, error) {
	switch call.Source {
	case types.SourceLiterature:
		if c.Literature == nil {
			return nil, errNoConnector(call.Source)
		}
		return invokeLiterature(ctx, c.Literature, call)
	case types.SourceTrials:
		if c.Trials == nil {
			return nil, errNoConnector(call.Source)
		}
		return invokeTrials(ctx, c.Trials, call)
	case types.SourcePreprints:
		p, err := c.preprints(call.Server)
		if err != nil {
			return nil, err
		}
		return invokePreprints(ctx, p, call)
	default:
		return nil, fmt.Errorf("unknown source %q", call.Source)
	}
}

func (c Connectors) preprints(server string) (Preprints, error) {
	server = strings.ToLower(strings.TrimSpace(server))
	if server == "" {
		if c.Preprints == nil {
			return nil, errNoConnector(types.SourcePreprints)
		}
		return c.Preprints, nil
	}
	p, ok := c.PreprintServers[server]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownServer, server)
	}
	return p, nil
}

func errNoConnector(s types.Source) error {
	return fmt.Errorf("no connector configured for %s", s)
}

func errUnsupported(call Call) error {
	return fmt.Errorf("%s does not support %s", call.Source, call.Operation)
}

func invokeLiterature(ctx context.Context, l Literature, call Call) (any, error) {
	switch call.Operation {
	case OpSearch:
		return l.Search(ctx, call.Query, call.Limit)
	case OpSearchByAuthor:
		return l.SearchByAuthor(ctx, call.Query, call.Limit)
	case OpFetchAbstract:
		return l.FetchAbstract(ctx, call.ID)
	case OpFetchRelated:
		return l.FetchRelated(ctx, call.ID, call.Limit)
	default:
		return nil, errUnsupported(call)
	}
}

func invokeTrials(ctx context.Context, t Trials, call Call) (any, error) {
	switch call.Operation {
	case OpSearch:
		return t.Search(ctx, call.Query, call.Limit)
	case OpSearchByCondition:
		return t.SearchByCondition(ctx, call.Query, call.Limit)
	case OpSearchByLocation:
		return t.SearchByLocation(ctx, call.Query, call.Limit)
	case OpFetchTrial:
		return t.FetchTrial(ctx, call.ID)
	default:
		return nil, errUnsupported(call)
	}
}

func invokePreprints(ctx context.Context, p Preprints, call Call) (any, error) {
	switch call.Operation {
	case OpFetchByDOI:
		return p.FetchByDOI(ctx, call.ID)
	case OpFindPublishedVersion:
		return p.FindPublishedVersion(ctx, call.ID)
	case OpListRecent:
		return p.ListRecent(ctx, call.Days, call.Limit, call.Category)
	default:
		return nil, errUnsupported(call)
	}
}
