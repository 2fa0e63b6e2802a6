// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research runs the full pipeline for one question: classify,
// fan out to the selected sources, and synthesize an answer.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/deep-research/internal/classify"
	"github.com/pdiddy/deep-research/internal/metrics"
	"github.com/pdiddy/deep-research/internal/synthesize"
	"github.com/pdiddy/deep-research/pkg/logger"
	"github.com/pdiddy/deep-research/pkg/types"
)

var (
	// ErrEmptyQuestion is returned for a blank question.
	ErrEmptyQuestion = errors.New("question must not be empty")

	// ErrOrchestration marks a fault in the pipeline itself, as opposed to
	// a source or model failure, which are reported as data.
	ErrOrchestration = errors.New("orchestration fault")
)

// Fanout runs one connector call per intent source.
type Fanout interface {
	Dispatch(ctx context.Context, intent types.Intent, limit int) []types.SourceResult
}

// Recorder persists finished answers.
type Recorder interface {
	Record(ctx context.Context, answer *types.ResearchAnswer) error
}

// Service wires the pipeline stages together.
type Service struct {
	Classifier  classify.Classifier
	Fanout      Fanout
	Synthesizer synthesize.Synthesizer

	// Recorder is optional. Recording failures are logged only.
	Recorder Recorder

	Limits types.SourcesConfig
	Logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService returns a Service with the default clock and ID source.
func NewService(c classify.Classifier, f Fanout, s synthesize.Synthesizer, limits types.SourcesConfig) *Service {
	return &Service{
		Classifier:  c,
		Fanout:      f,
		Synthesizer: s,
		Limits:      limits,
		Logger:      logger.Named("research"),
	}
}

func (s *Service) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logger.Named("research")
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func (s *Service) id() string {
	if s.newID != nil {
		return s.newID()
	}
	return uuid.NewString()
}

// Answer classifies question, queries its sources, and synthesizes prose.
// Source and model failures never produce an error here; only a blank
// question or an orchestration fault does.
func (s *Service) Answer(ctx context.Context, question string, maxResults int) (answer *types.ResearchAnswer, err error) {
	start := time.Now()
	defer metrics.ObserveRequest(start)
	defer func() {
		if err != nil {
			answer = nil
		}
	}()
	defer s.recoverFault(&err)

	results, intent, err := s.research(ctx, question, maxResults)
	if err != nil {
		return nil, err
	}

	answer = &types.ResearchAnswer{
		ID:         s.id(),
		Query:      question,
		RawResults: results,
		Intent:     &intent,
		CreatedAt:  s.clock(),
	}
	if s.Synthesizer == nil {
		answer.Synthesis = synthesize.Degraded(errors.New("no synthesizer configured"))
	} else {
		answer.Synthesis = s.Synthesizer.Synthesize(ctx, question, results)
	}

	s.record(ctx, answer)
	s.log().Info("research answered", "id", answer.ID, "sources", len(results),
		"failed", countFailed(results), "degraded", synthesize.IsDegraded(answer.Synthesis),
		"elapsed", time.Since(start))
	return answer, nil
}

// Research classifies and dispatches without synthesis.
func (s *Service) Research(ctx context.Context, question string, maxResults int) (results []types.SourceResult, intent types.Intent, err error) {
	defer func() {
		if err != nil {
			results = nil
		}
	}()
	defer s.recoverFault(&err)
	return s.research(ctx, question, maxResults)
}

func (s *Service) research(ctx context.Context, question string, maxResults int) ([]types.SourceResult, types.Intent, error) {
	if strings.TrimSpace(question) == "" {
		return nil, types.Intent{}, ErrEmptyQuestion
	}
	if s.Classifier == nil || s.Fanout == nil {
		return nil, types.Intent{}, fmt.Errorf("%w: pipeline is not fully configured", ErrOrchestration)
	}

	intent := s.Classifier.Classify(ctx, question)
	if len(intent.Databases) == 0 {
		s.log().Warn("classifier returned no databases, using fallback")
		intent = types.FallbackIntent()
	}
	if intent.Identifiers == nil {
		intent.Identifiers = map[types.IdentifierKind]string{}
	}
	intent.OriginalQuery = question

	limit := s.Limits.DefaultResults(maxResults)
	results := s.Fanout.Dispatch(ctx, intent, limit)
	if results == nil {
		results = []types.SourceResult{}
	}
	return results, intent, nil
}

func (s *Service) recoverFault(err *error) {
	if r := recover(); r != nil {
		s.log().Error("research pipeline panicked", "panic", r)
		*err = fmt.Errorf("%w: %v", ErrOrchestration, r)
	}
}

func (s *Service) record(ctx context.Context, answer *types.ResearchAnswer) {
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.Record(ctx, answer); err != nil {
		s.log().Warn("recording answer in history failed", "id", answer.ID, "error", err)
	}
}

func countFailed(results []types.SourceResult) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
