// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify turns a free-text research question into a structured
// Intent: which sources to consult, which identifiers were mentioned, and
// what kind of query it is.
//
// Classification never fails outward. Any completion error, unparsable
// output, or missing required field yields types.FallbackIntent().
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/metrics"
	"github.com/pdiddy/deep-research/pkg/logger"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Classifier maps a question to an Intent. Implementations must always
// return an Intent with at least one database.
type Classifier interface {
	Classify(ctx context.Context, question string) types.Intent
}

// Func adapts a function to the Classifier interface.
type Func func(ctx context.Context, question string) types.Intent

// Classify calls f.
func (f Func) Classify(ctx context.Context, question string) types.Intent {
	return f(ctx, question)
}

// Static always returns the same intent. Useful in tests and for pinning
// a source set from the command line.
type Static types.Intent

// Classify returns a copy of the pinned intent.
func (s Static) Classify(_ context.Context, _ string) types.Intent {
	in := types.Intent(s)
	in.Databases = append([]types.Source(nil), in.Databases...)
	ids := make(map[types.IdentifierKind]string, len(in.Identifiers))
	for k, v := range in.Identifiers {
		ids[k] = v
	}
	in.Identifiers = ids
	return in
}

// LLMClassifier classifies questions with a completion call.
type LLMClassifier struct {
	Completer llm.Completer
	Params    llm.Params
	Logger    *slog.Logger
}

// NewLLMClassifier returns a classifier backed by c.
func NewLLMClassifier(c llm.Completer, params llm.Params) *LLMClassifier {
	return &LLMClassifier{Completer: c, Params: params, Logger: logger.Named("classify")}
}

// Classify asks the model for an Intent and falls back to a literature
// search on any failure.
func (c *LLMClassifier) Classify(ctx context.Context, question string) (intent types.Intent) {
	log := c.Logger
	if log == nil {
		log = logger.Named("classify")
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("classifier panicked, using fallback", "panic", r)
			metrics.IncClassification(metrics.OutcomeFallback)
			intent = types.FallbackIntent()
		}
	}()

	in, err := c.classify(ctx, question)
	if err != nil {
		log.Warn("query classification failed, using fallback", "error", err)
		metrics.IncClassification(metrics.OutcomeFallback)
		return types.FallbackIntent()
	}

	log.Debug("query classified", "databases", in.Databases, "query_type", in.QueryType, "identifiers", in.Identifiers)
	metrics.IncClassification(metrics.OutcomeModel)
	return in
}

func (c *LLMClassifier) classify(ctx context.Context, question string) (types.Intent, error) {
	if c.Completer == nil {
		return types.Intent{}, errors.New("no completer configured")
	}

	sys, err := systemPrompt()
	if err != nil {
		return types.Intent{}, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := c.Completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: sys},
		{Role: llm.RoleUser, Content: question},
	}, c.Params)
	if err != nil {
		return types.Intent{}, fmt.Errorf("completion: %w", err)
	}

	return ParseIntent(text)
}
