// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/pkg/logger"
	"github.com/pdiddy/deep-research/pkg/types"
)

// --- fake connectors ---

type fakeLiterature struct {
	articles []types.Article
	err      error
	delay    time.Duration
	panicVal any
	calls    atomic.Int32
	lastOp   atomic.Value
}

func (f *fakeLiterature) do(ctx context.Context, op Operation) ([]types.Article, error) {
	f.calls.Add(1)
	f.lastOp.Store(op)
	if f.panicVal != nil {
		panic(f.panicVal)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.articles, f.err
}

func (f *fakeLiterature) Search(ctx context.Context, _ string, _ int) ([]types.Article, error) {
	return f.do(ctx, OpSearch)
}

func (f *fakeLiterature) SearchByAuthor(ctx context.Context, _ string, _ int) ([]types.Article, error) {
	return f.do(ctx, OpSearchByAuthor)
}

func (f *fakeLiterature) FetchAbstract(ctx context.Context, pmid string) (*types.Article, error) {
	if _, err := f.do(ctx, OpFetchAbstract); err != nil {
		return nil, err
	}
	return &types.Article{PMID: pmid, Title: "abstract"}, nil
}

func (f *fakeLiterature) FetchRelated(ctx context.Context, _ string, _ int) ([]types.Article, error) {
	return f.do(ctx, OpFetchRelated)
}

type fakeTrials struct {
	trials []types.Trial
	err    error
	delay  time.Duration
}

func (f *fakeTrials) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeTrials) Search(ctx context.Context, _ string, _ int) ([]types.Trial, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.trials, f.err
}

func (f *fakeTrials) SearchByCondition(ctx context.Context, q string, n int) ([]types.Trial, error) {
	return f.Search(ctx, q, n)
}

func (f *fakeTrials) SearchByLocation(ctx context.Context, q string, n int) ([]types.Trial, error) {
	return f.Search(ctx, q, n)
}

func (f *fakeTrials) FetchTrial(ctx context.Context, nctID string) (*types.Trial, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &types.Trial{NCTID: nctID}, nil
}

type fakePreprints struct {
	server    string
	published *types.Publication
	err       error
}

func (f *fakePreprints) FetchByDOI(_ context.Context, doi string) (*types.Preprint, error) {
	if f.err != nil {
		return nil, f.err
	}
	server := f.server
	if server == "" {
		server = "biorxiv"
	}
	return &types.Preprint{DOI: doi, Server: server}, nil
}

func (f *fakePreprints) FindPublishedVersion(_ context.Context, _ string) (*types.Publication, error) {
	return f.published, f.err
}

func (f *fakePreprints) ListRecent(_ context.Context, _, _ int, _ string) ([]types.Preprint, error) {
	return nil, f.err
}

func newDispatcher(c Connectors, timeout time.Duration) *Dispatcher {
	d := NewDispatcher(c, timeout)
	d.Logger = logger.Discard()
	return d
}

// --- Dispatch ---

func TestDispatch_OrderAndLength(t *testing.T) {
	c := Connectors{
		Literature: &fakeLiterature{articles: []types.Article{{PMID: "1"}}},
		Trials:     &fakeTrials{trials: []types.Trial{{NCTID: "NCT00000001"}}, delay: 20 * time.Millisecond},
		Preprints:  &fakePreprints{},
	}
	in := intent(types.QuerySearch, nil, types.SourcePreprints, types.SourceTrials, types.SourceLiterature)

	got := newDispatcher(c, time.Second).Dispatch(context.Background(), in, 10)

	require.Len(t, got, 3)
	assert.Equal(t, types.SourcePreprints, got[0].Source)
	assert.Equal(t, types.SourceTrials, got[1].Source)
	assert.Equal(t, types.SourceLiterature, got[2].Source)
	for _, r := range got {
		assert.True(t, r.OK(), "source %s failed: %s", r.Source, r.Error)
		assert.NotNil(t, r.Data)
	}
}

func TestDispatch_FailureIsolation(t *testing.T) {
	c := Connectors{
		Literature: &fakeLiterature{err: errors.New("esearch: HTTP 500")},
		Trials:     &fakeTrials{trials: []types.Trial{{NCTID: "NCT00000001"}}},
	}
	in := intent(types.QuerySearch, nil, types.SourceLiterature, types.SourceTrials)

	got := newDispatcher(c, time.Second).Dispatch(context.Background(), in, 10)

	require.Len(t, got, 2)
	assert.False(t, got[0].OK())
	assert.Contains(t, got[0].Error, "HTTP 500")
	assert.Nil(t, got[0].Data)
	assert.True(t, got[1].OK())
	assert.Equal(t, []types.Trial{{NCTID: "NCT00000001"}}, got[1].Data)
}

func TestDispatch_PanicIsolation(t *testing.T) {
	c := Connectors{
		Literature: &fakeLiterature{panicVal: "boom"},
		Trials:     &fakeTrials{trials: []types.Trial{}},
	}
	in := intent(types.QuerySearch, nil, types.SourceLiterature, types.SourceTrials)

	got := newDispatcher(c, time.Second).Dispatch(context.Background(), in, 10)

	require.Len(t, got, 2)
	assert.Contains(t, got[0].Error, "boom")
	assert.True(t, got[1].OK())
}

func TestDispatch_SlowSourceNotCancelledBySibling(t *testing.T) {
	c := Connectors{
		Literature: &fakeLiterature{err: errors.New("fail fast")},
		Trials:     &fakeTrials{trials: []types.Trial{{NCTID: "NCT1"}}, delay: 50 * time.Millisecond},
	}
	in := intent(types.QuerySearch, nil, types.SourceLiterature, types.SourceTrials)

	got := newDispatcher(c, time.Second).Dispatch(context.Background(), in, 10)

	require.Len(t, got, 2)
	assert.False(t, got[0].OK())
	assert.True(t, got[1].OK(), "slow trials call should complete: %s", got[1].Error)
}

func TestDispatch_RunsConcurrently(t *testing.T) {
	c := Connectors{
		Literature: &fakeLiterature{articles: []types.Article{}, delay: 100 * time.Millisecond},
		Trials:     &fakeTrials{trials: []types.Trial{}, delay: 100 * time.Millisecond},
	}
	in := intent(types.QuerySearch, nil, types.SourceLiterature, types.SourceTrials)

	start := time.Now()
	newDispatcher(c, time.Second).Dispatch(context.Background(), in, 10)
	assert.Less(t, time.Since(start), 190*time.Millisecond)
}

func TestDispatch_Timeout(t *testing.T) {
	c := Connectors{
		Trials: &fakeTrials{trials: []types.Trial{}, delay: time.Second},
	}
	in := intent(types.QuerySearch, nil, types.SourceTrials)

	got := newDispatcher(c, 20*time.Millisecond).Dispatch(context.Background(), in, 10)

	require.Len(t, got, 1)
	assert.False(t, got[0].OK())
	assert.Contains(t, got[0].Error, "deadline exceeded")
}

func TestDispatch_LiteratureTimesOutTrialsSucceeds(t *testing.T) {
	c := Connectors{
		Literature: &fakeLiterature{articles: []types.Article{{PMID: "1"}}, delay: time.Second},
		Trials:     &fakeTrials{trials: []types.Trial{{NCTID: "NCT04368728"}}},
	}
	in := intent(types.QuerySearch, nil, types.SourceLiterature, types.SourceTrials)

	got := newDispatcher(c, 50*time.Millisecond).Dispatch(context.Background(), in, 10)

	require.Len(t, got, 2)
	assert.Equal(t, types.SourceLiterature, got[0].Source)
	assert.False(t, got[0].OK())
	assert.Contains(t, got[0].Error, "deadline exceeded")
	assert.Nil(t, got[0].Data)

	assert.Equal(t, types.SourceTrials, got[1].Source)
	require.True(t, got[1].OK())
	assert.Equal(t, []types.Trial{{NCTID: "NCT04368728"}}, got[1].Data)
}

func TestDispatch_MissingConnector(t *testing.T) {
	in := intent(types.QuerySearch, nil, types.SourcePreprints)
	got := newDispatcher(Connectors{}, time.Second).Dispatch(context.Background(), in, 10)

	require.Len(t, got, 1)
	assert.Equal(t, "no connector configured for preprints", got[0].Error)
}

func TestDispatch_NilPayloadIsError(t *testing.T) {
	c := Connectors{Preprints: &fakePreprints{}}
	doi := map[types.IdentifierKind]string{types.IdentifierDOI: "10.1101/x"}
	in := intent(types.QueryPublished, doi, types.SourcePreprints)

	got := newDispatcher(c, time.Second).Dispatch(context.Background(), in, 10)

	require.Len(t, got, 1)
	assert.Equal(t, errEmptyPayload.Error(), got[0].Error)
}

func TestDispatch_NilSliceBecomesEmpty(t *testing.T) {
	c := Connectors{Preprints: &fakePreprints{}}
	in := intent(types.QuerySearch, nil, types.SourcePreprints)

	got := newDispatcher(c, time.Second).Dispatch(context.Background(), in, 10)

	require.Len(t, got, 1)
	require.True(t, got[0].OK())
	assert.Equal(t, []types.Preprint{}, got[0].Data)
}

func TestDispatch_TrialsAndPreprintsWithDOI(t *testing.T) {
	lit := &fakeLiterature{}
	c := Connectors{
		Literature: lit,
		Trials:     &fakeTrials{trials: []types.Trial{}},
		Preprints: &fakePreprints{published: &types.Publication{
			PreprintDOI: "10.1101/x", PublishedDOI: "10.1038/y", Server: "biorxiv",
		}},
	}
	doi := map[types.IdentifierKind]string{types.IdentifierDOI: "10.1101/x"}
	in := intent(types.QueryPublished, doi, types.SourceTrials, types.SourcePreprints)

	got := newDispatcher(c, time.Second).Dispatch(context.Background(), in, 10)

	require.Len(t, got, 2)
	assert.Equal(t, types.SourceTrials, got[0].Source)
	pub, ok := got[1].Data.(*types.Publication)
	require.True(t, ok)
	assert.Equal(t, "10.1038/y", pub.PublishedDOI)
	assert.Zero(t, lit.calls.Load())
}

func TestDispatch_PMIDSelectsOperation(t *testing.T) {
	pmid := map[types.IdentifierKind]string{types.IdentifierPMID: "12345678"}
	tests := []struct {
		qt   types.QueryType
		want Operation
	}{
		{types.QueryRelated, OpFetchRelated},
		{types.QueryAbstract, OpFetchAbstract},
		{types.QuerySearch, OpFetchAbstract},
	}
	for _, tt := range tests {
		t.Run(string(tt.qt), func(t *testing.T) {
			lit := &fakeLiterature{articles: []types.Article{}}
			in := intent(tt.qt, pmid, types.SourceLiterature)
			got := newDispatcher(Connectors{Literature: lit}, time.Second).Dispatch(context.Background(), in, 10)
			require.Len(t, got, 1)
			assert.True(t, got[0].OK())
			assert.Equal(t, tt.want, lit.lastOp.Load())
		})
	}
}

func TestDispatch_SkipsUnknownSource(t *testing.T) {
	c := Connectors{Literature: &fakeLiterature{articles: []types.Article{}}}
	in := intent(types.QuerySearch, nil, types.Source("embase"), types.SourceLiterature)

	got := newDispatcher(c, time.Second).Dispatch(context.Background(), in, 10)

	require.Len(t, got, 1)
	assert.Equal(t, types.SourceLiterature, got[0].Source)
}

// --- Invoke ---

func TestInvoke_Unsupported(t *testing.T) {
	c := Connectors{Preprints: &fakePreprints{}}
	_, err := c.Invoke(context.Background(), Call{Source: types.SourcePreprints, Operation: OpSearch})
	require.Error(t, err)
	assert.Equal(t, "preprints does not support search", err.Error())
}

func TestInvoke_UnknownSource(t *testing.T) {
	_, err := Connectors{}.Invoke(context.Background(), Call{Source: "embase", Operation: OpSearch})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source "embase"`)
}

func TestInvoke_PreprintServer(t *testing.T) {
	c := Connectors{
		Preprints: &fakePreprints{server: "biorxiv"},
		PreprintServers: map[string]Preprints{
			"biorxiv": &fakePreprints{server: "biorxiv"},
			"medrxiv": &fakePreprints{server: "medrxiv"},
		},
	}
	ctx := context.Background()

	data, err := c.Invoke(ctx, Call{Source: types.SourcePreprints, Operation: OpFetchByDOI, ID: "10.1101/x", Server: "MedRxiv"})
	require.NoError(t, err)
	assert.Equal(t, "medrxiv", data.(*types.Preprint).Server)

	data, err = c.Invoke(ctx, Call{Source: types.SourcePreprints, Operation: OpFetchByDOI, ID: "10.1101/x"})
	require.NoError(t, err)
	assert.Equal(t, "biorxiv", data.(*types.Preprint).Server)

	_, err = c.Invoke(ctx, Call{Source: types.SourcePreprints, Operation: OpFetchByDOI, ID: "10.1101/x", Server: "arxiv"})
	assert.ErrorIs(t, err, ErrUnknownServer)
	assert.Contains(t, err.Error(), `"arxiv"`)

	_, err = Connectors{Preprints: &fakePreprints{}}.Invoke(ctx, Call{Source: types.SourcePreprints, Operation: OpFetchByDOI, ID: "x", Server: "medrxiv"})
	assert.ErrorIs(t, err, ErrUnknownServer)
}
