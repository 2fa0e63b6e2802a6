// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdiddy/deep-research/internal/dispatch"
	"github.com/pdiddy/deep-research/internal/history"
	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/pkg/types"
)

const maxBodyBytes = 1 << 20

// researchRequest is the POST /deepresearch body. max_results may also be
// given as a query parameter.
type researchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// sourceResponse wraps a direct connector result.
type sourceResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func (s *Server) handleDeepResearch(w http.ResponseWriter, r *http.Request) {
	if s.opts.Research == nil {
		writeError(w, http.StatusServiceUnavailable, "research pipeline is not configured")
		return
	}

	var req researchRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body: "+err.Error())
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "max_results must be an integer")
			return
		}
		req.MaxResults = n
	}
	req.MaxResults = s.opts.Limits.ClampResults(req.MaxResults)

	if synth := r.URL.Query().Get("synthesize"); synth != "" {
		on, err := strconv.ParseBool(synth)
		if err != nil {
			writeError(w, http.StatusBadRequest, "synthesize must be a boolean")
			return
		}
		if !on {
			results, _, err := s.opts.Research.Research(r.Context(), req.Query, req.MaxResults)
			if err != nil {
				s.writeResearchError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, results)
			return
		}
	}

	answer, err := s.opts.Research.Answer(r.Context(), req.Query, req.MaxResults)
	if err != nil {
		s.writeResearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) writeResearchError(w http.ResponseWriter, err error) {
	if errors.Is(err, research.ErrEmptyQuestion) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Error("research request failed", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

// invoke runs one connector call and writes the {"status","data"} envelope.
func (s *Server) invoke(w http.ResponseWriter, r *http.Request, call dispatch.Call) {
	if s.opts.Invoker == nil {
		writeError(w, http.StatusServiceUnavailable, "source connectors are not configured")
		return
	}
	data, err := s.opts.Invoker.Invoke(r.Context(), call)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, httputil.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, dispatch.ErrUnknownServer):
			status = http.StatusBadRequest
		}
		s.log.Warn("source request failed", "source", call.Source, "operation", call.Operation, "error", err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sourceResponse{Status: "success", Data: data})
}

// limit reads max_results, clamped like pipeline requests.
func (s *Server) limit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("max_results")
	if raw == "" {
		return s.opts.Limits.ClampResults(0), true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return s.opts.Limits.ClampResults(n), true
}

// textQuery reads a required free-text parameter and the result limit.
func (s *Server) textQuery(w http.ResponseWriter, r *http.Request, param string) (string, int, bool) {
	q := strings.TrimSpace(r.URL.Query().Get(param))
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: "+param)
		return "", 0, false
	}
	n, ok := s.limit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "max_results must be an integer")
		return "", 0, false
	}
	return q, n, true
}

func (s *Server) handlePubMedSearch(w http.ResponseWriter, r *http.Request) {
	q, n, ok := s.textQuery(w, r, "query")
	if !ok {
		return
	}
	s.invoke(w, r, dispatch.Call{Source: types.SourceLiterature, Operation: dispatch.OpSearch, Query: q, Limit: n})
}

func (s *Server) handlePubMedAuthor(w http.ResponseWriter, r *http.Request) {
	q, n, ok := s.textQuery(w, r, "name")
	if !ok {
		return
	}
	s.invoke(w, r, dispatch.Call{Source: types.SourceLiterature, Operation: dispatch.OpSearchByAuthor, Query: q, Limit: n})
}

func (s *Server) handlePubMedAbstract(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r, dispatch.Call{Source: types.SourceLiterature, Operation: dispatch.OpFetchAbstract, ID: r.PathValue("pmid")})
}

func (s *Server) handlePubMedRelated(w http.ResponseWriter, r *http.Request) {
	n, ok := s.limit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "max_results must be an integer")
		return
	}
	s.invoke(w, r, dispatch.Call{Source: types.SourceLiterature, Operation: dispatch.OpFetchRelated, ID: r.PathValue("pmid"), Limit: n})
}

func (s *Server) handleTrialsSearch(op dispatch.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, n, ok := s.textQuery(w, r, "query")
		if !ok {
			return
		}
		s.invoke(w, r, dispatch.Call{Source: types.SourceTrials, Operation: op, Query: q, Limit: n})
	}
}

func (s *Server) handleTrial(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r, dispatch.Call{Source: types.SourceTrials, Operation: dispatch.OpFetchTrial, ID: r.PathValue("nct_id")})
}

func (s *Server) handlePreprint(op dispatch.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.invoke(w, r, dispatch.Call{
			Source:    types.SourcePreprints,
			Operation: op,
			ID:        r.PathValue("doi"),
			Server:    r.URL.Query().Get("server"),
		})
	}
}

func (s *Server) handleRecentPreprints(w http.ResponseWriter, r *http.Request) {
	n, ok := s.limit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "max_results must be an integer")
		return
	}
	days := s.opts.RecentDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = d
	}
	s.invoke(w, r, dispatch.Call{
		Source:    types.SourcePreprints,
		Operation: dispatch.OpListRecent,
		Days:      days,
		Limit:     n,
		Category:  r.URL.Query().Get("category"),
		Server:    r.URL.Query().Get("server"),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var (
		answers []types.ResearchAnswer
		err     error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		answers, err = s.opts.History.Search(r.Context(), q, limit)
	} else {
		answers, err = s.opts.History.Recent(r.Context(), limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	answer, err := s.opts.History.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, history.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, answer)
}
