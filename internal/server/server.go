// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research pipeline and the individual source
// connectors over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pdiddy/deep-research/internal/dispatch"
	"github.com/pdiddy/deep-research/internal/metrics"
	"github.com/pdiddy/deep-research/pkg/logger"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Researcher runs the pipeline. research.Service implements it.
type Researcher interface {
	Answer(ctx context.Context, question string, maxResults int) (*types.ResearchAnswer, error)
	Research(ctx context.Context, question string, maxResults int) ([]types.SourceResult, types.Intent, error)
}

// HistoryReader lists stored answers. history.Store implements it.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]types.ResearchAnswer, error)
	Search(ctx context.Context, text string, limit int) ([]types.ResearchAnswer, error)
	Get(ctx context.Context, id string) (*types.ResearchAnswer, error)
}

// Options wires the server's collaborators. History may be nil.
type Options struct {
	Research Researcher
	Invoker  dispatch.Invoker
	History  HistoryReader
	Limits   types.SourcesConfig

	// RecentDays is the default look-back for /biorxiv/search/recent.
	RecentDays int

	Logger *slog.Logger
}

// Server serves the HTTP API.
type Server struct {
	cfg  types.ServerConfig
	opts Options
	log  *slog.Logger
}

// New returns a Server for cfg.
func New(cfg types.ServerConfig, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.Named("server")
	}
	if opts.RecentDays <= 0 {
		opts.RecentDays = dispatch.RecentWindowDays
	}
	return &Server{cfg: cfg, opts: opts, log: log}
}

// Handler returns the API routes wrapped in recovery, logging, and CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /deepresearch", s.handleDeepResearch)

	mux.HandleFunc("GET /pubmed/search", s.handlePubMedSearch)
	mux.HandleFunc("GET /pubmed/author", s.handlePubMedAuthor)
	mux.HandleFunc("GET /pubmed/abstract/{pmid}", s.handlePubMedAbstract)
	mux.HandleFunc("GET /pubmed/related/{pmid}", s.handlePubMedRelated)

	mux.HandleFunc("GET /clinicaltrials/search", s.handleTrialsSearch(dispatch.OpSearch))
	mux.HandleFunc("GET /clinicaltrials/condition", s.handleTrialsSearch(dispatch.OpSearchByCondition))
	mux.HandleFunc("GET /clinicaltrials/location", s.handleTrialsSearch(dispatch.OpSearchByLocation))
	mux.HandleFunc("GET /clinicaltrials/trial/{nct_id}", s.handleTrial)

	mux.HandleFunc("GET /biorxiv/preprint/{doi...}", s.handlePreprint(dispatch.OpFetchByDOI))
	mux.HandleFunc("GET /biorxiv/published/{doi...}", s.handlePreprint(dispatch.OpFindPublishedVersion))
	mux.HandleFunc("GET /biorxiv/search/recent", s.handleRecentPreprints)

	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /history/{id}", s.handleHistoryEntry)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return s.recoverPanics(s.logRequests(cors(s.cfg.AllowOrigins, mux)))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	readHeader := s.cfg.ReadHeaderTimeout
	if readHeader <= 0 {
		readHeader = 5 * time.Second
	}
	srv := &http.Server{
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: readHeader,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("http server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		s.log.Info("http server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

// withContext rejects new requests once the root context is cancelled.
func withContext(ctx context.Context, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			writeError(w, http.StatusServiceUnavailable, "server is shutting down")
			return
		default:
		}
		next.ServeHTTP(w, r)
	})
}
