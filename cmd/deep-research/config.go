// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/pkg/types"
)

// setDefaults registers every configuration key so that environment
// variables (DEEP_RESEARCH_LLM_MODEL, ...) are seen by Unmarshal.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)
	v.SetDefault("llm.classify_temperature", d.LLM.ClassifyTemperature)
	v.SetDefault("llm.synthesis_max_tokens", d.LLM.SynthesisMaxTokens)
	v.SetDefault("llm.synthesis_temperature", d.LLM.SynthesisTemperature)

	v.SetDefault("sources.timeout", d.Sources.Timeout)
	v.SetDefault("sources.user_agent", d.Sources.UserAgent)
	v.SetDefault("sources.max_results", d.Sources.MaxResults)
	v.SetDefault("sources.min_results", d.Sources.MinResults)
	v.SetDefault("sources.max_results_limit", d.Sources.MaxResultsLimit)
	v.SetDefault("sources.pubmed.base_url", d.Sources.PubMed.BaseURL)
	v.SetDefault("sources.pubmed.api_key", d.Sources.PubMed.APIKey)
	v.SetDefault("sources.pubmed.email", d.Sources.PubMed.Email)
	v.SetDefault("sources.pubmed.requests_per_second", d.Sources.PubMed.RequestsPerSecond)
	v.SetDefault("sources.trials.base_url", d.Sources.Trials.BaseURL)
	v.SetDefault("sources.biorxiv.base_url", d.Sources.Biorxiv.BaseURL)
	v.SetDefault("sources.biorxiv.server", d.Sources.Biorxiv.Server)
	v.SetDefault("sources.biorxiv.recent_days", d.Sources.Biorxiv.RecentDays)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.allow_origins", d.Server.AllowOrigins)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.outputs", d.Log.Outputs)
}

// loadConfig decodes the merged viper state into a Config.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}
