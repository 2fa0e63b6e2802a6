// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/pdiddy/deep-research/internal/classify"
	"github.com/pdiddy/deep-research/internal/dispatch"
	"github.com/pdiddy/deep-research/internal/history"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/internal/sources/biorxiv"
	"github.com/pdiddy/deep-research/internal/sources/pubmed"
	"github.com/pdiddy/deep-research/internal/sources/trials"
	"github.com/pdiddy/deep-research/internal/synthesize"
	"github.com/pdiddy/deep-research/pkg/types"
)

// newConnectors builds one live connector per source. Preprints default to
// the configured server; both servers stay reachable by name.
func newConnectors(cfg types.SourcesConfig) dispatch.Connectors {
	preprints := biorxiv.New(cfg.Biorxiv, cfg.HTTPConfig)
	servers := map[string]dispatch.Preprints{preprints.Server(): preprints}
	for _, name := range []string{biorxiv.ServerBiorxiv, biorxiv.ServerMedrxiv} {
		if _, ok := servers[name]; ok {
			continue
		}
		other := cfg.Biorxiv
		other.Server = name
		servers[name] = biorxiv.New(other, cfg.HTTPConfig)
	}

	return dispatch.Connectors{
		Literature:      pubmed.New(cfg.PubMed, cfg.HTTPConfig),
		Trials:          trials.New(cfg.Trials, cfg.HTTPConfig),
		Preprints:       preprints,
		PreprintServers: servers,
	}
}

// newService wires classifier, dispatcher, and synthesizer over conns. A
// non-nil pinned intent replaces model classification.
func newService(cfg types.Config, conns dispatch.Connectors, pinned *types.Intent, rec research.Recorder) *research.Service {
	client := llm.NewClient(cfg.LLM)

	var classifier classify.Classifier
	if pinned != nil {
		classifier = classify.Static(*pinned)
	} else {
		classifier = classify.NewLLMClassifier(client, llm.Params{
			Temperature: llm.Temperature(cfg.LLM.ClassifyTemperature),
		})
	}

	synth := synthesize.NewLLMSynthesizer(client, llm.Params{
		MaxTokens:   cfg.LLM.SynthesisMaxTokens,
		Temperature: llm.Temperature(cfg.LLM.SynthesisTemperature),
	})

	dispatcher := dispatch.NewDispatcher(conns, cfg.Sources.Timeout)

	svc := research.NewService(classifier, dispatcher, synth, cfg.Sources)
	if rec != nil {
		svc.Recorder = rec
	}
	return svc
}

// openHistory opens the history store when enabled. It returns nil, nil
// when history is disabled.
func openHistory(cfg types.HistoryConfig) (*history.Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return history.Open(cfg.Path)
}
