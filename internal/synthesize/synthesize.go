// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize turns a question and its per-source results into a
// prose answer with one completion call. When that call fails the answer
// is a visible "Error formatting response: ..." notice; the raw results
// are never lost.
package synthesize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/metrics"
	"github.com/pdiddy/deep-research/pkg/logger"
	"github.com/pdiddy/deep-research/pkg/types"
)

// DegradedPrefix starts every synthesis that could not be produced.
const DegradedPrefix = "Error formatting response: "

// Synthesizer produces prose from results. It never fails outward.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, results []types.SourceResult) string
}

// Func adapts a function to the Synthesizer interface.
type Func func(ctx context.Context, question string, results []types.SourceResult) string

// Synthesize calls f.
func (f Func) Synthesize(ctx context.Context, question string, results []types.SourceResult) string {
	return f(ctx, question, results)
}

// Degraded formats the notice returned when synthesis fails.
func Degraded(err error) string {
	reason := "unknown error"
	if err != nil && err.Error() != "" {
		reason = err.Error()
	}
	return DegradedPrefix + reason
}

// IsDegraded reports whether text is a degraded-mode notice.
func IsDegraded(text string) bool {
	return strings.HasPrefix(text, DegradedPrefix)
}

var errEmptyAnswer = errors.New("model returned an empty answer")

// LLMSynthesizer writes answers with a completion call.
type LLMSynthesizer struct {
	Completer llm.Completer
	Params    llm.Params
	Logger    *slog.Logger
}

// NewLLMSynthesizer returns a synthesizer backed by c.
func NewLLMSynthesizer(c llm.Completer, params llm.Params) *LLMSynthesizer {
	return &LLMSynthesizer{Completer: c, Params: params, Logger: logger.Named("synthesize")}
}

// Synthesize returns the model's answer, or Degraded(reason) on failure.
func (s *LLMSynthesizer) Synthesize(ctx context.Context, question string, results []types.SourceResult) (answer string) {
	log := s.Logger
	if log == nil {
		log = logger.Named("synthesize")
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("synthesis panicked", "panic", r)
			metrics.IncSynthesis(metrics.OutcomeDegraded)
			answer = Degraded(fmt.Errorf("panic: %v", r))
		}
	}()

	text, err := s.synthesize(ctx, question, results)
	if err != nil {
		log.Error("synthesis failed, returning raw results only", "error", err, "sources", len(results))
		metrics.IncSynthesis(metrics.OutcomeDegraded)
		return Degraded(err)
	}
	metrics.IncSynthesis(metrics.OutcomeOK)
	return text
}

func (s *LLMSynthesizer) synthesize(ctx context.Context, question string, results []types.SourceResult) (string, error) {
	if s.Completer == nil {
		return "", errors.New("no completer configured")
	}

	user, err := userPrompt(question, results)
	if err != nil {
		return "", fmt.Errorf("serializing results: %w", err)
	}

	text, err := s.Completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: user},
	}, s.Params)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptyAnswer
	}
	return text, nil
}
