// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds one request, including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// LLMConfig holds settings for the language-model completion service.
type LLMConfig struct {
	// BaseURL is the OpenAI-compatible API root (e.g. "https://api.predictionguard.com").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Model is the model identifier (e.g. "Hermes-3-Llama-3.1-70B").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the completion service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout bounds one completion call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// ClassifyTemperature is the sampling temperature for classification.
	ClassifyTemperature float64 `json:"classify_temperature" yaml:"classify_temperature" mapstructure:"classify_temperature"`

	// SynthesisMaxTokens caps the synthesized answer (default 2000).
	SynthesisMaxTokens int `json:"synthesis_max_tokens" yaml:"synthesis_max_tokens" mapstructure:"synthesis_max_tokens"`

	// SynthesisTemperature is the sampling temperature for synthesis (default 0.1).
	SynthesisTemperature float64 `json:"synthesis_temperature" yaml:"synthesis_temperature" mapstructure:"synthesis_temperature"`
}

// PubMedConfig holds NCBI E-utilities settings.
type PubMedConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Email identifies the caller to NCBI, as its usage policy asks.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// RequestsPerSecond overrides the NCBI-derived rate (0 = derive).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// TrialsConfig holds ClinicalTrials.gov settings.
type TrialsConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
}

// BiorxivConfig holds bioRxiv/medRxiv API settings.
type BiorxivConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Server selects "biorxiv" or "medrxiv".
	Server string `json:"server" yaml:"server" mapstructure:"server"`

	// RecentDays is the look-back window for recent preprints (default 7).
	RecentDays int `json:"recent_days" yaml:"recent_days" mapstructure:"recent_days"`
}

// SourcesConfig holds settings shared by all source connectors.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the per-source bound used when a request gives none (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// MinResults and MaxResultsLimit clamp caller-supplied bounds.
	MinResults      int `json:"min_results" yaml:"min_results" mapstructure:"min_results"`
	MaxResultsLimit int `json:"max_results_limit" yaml:"max_results_limit" mapstructure:"max_results_limit"`

	PubMed  PubMedConfig  `json:"pubmed" yaml:"pubmed" mapstructure:"pubmed"`
	Trials  TrialsConfig  `json:"trials" yaml:"trials" mapstructure:"trials"`
	Biorxiv BiorxivConfig `json:"biorxiv" yaml:"biorxiv" mapstructure:"biorxiv"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr              string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout" mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// AllowOrigins lists CORS origins; "*" allows any.
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins" mapstructure:"allow_origins"`
}

// HistoryConfig holds settings for the answer history store.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig mirrors logger.Config for file-based configuration.
type LogConfig struct {
	Level   string   `json:"level" yaml:"level" mapstructure:"level"`
	Format  string   `json:"format" yaml:"format" mapstructure:"format"`
	Outputs []string `json:"outputs" yaml:"outputs" mapstructure:"outputs"`
}

// Config groups every section of deep-research.yaml.
type Config struct {
	LLM     LLMConfig     `json:"llm" yaml:"llm" mapstructure:"llm"`
	Sources SourcesConfig `json:"sources" yaml:"sources" mapstructure:"sources"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			BaseURL:              "https://api.predictionguard.com",
			Model:                "Hermes-3-Llama-3.1-70B",
			Timeout:              60 * time.Second,
			MaxRetries:           3,
			SynthesisMaxTokens:   2000,
			SynthesisTemperature: 0.1,
		},
		Sources: SourcesConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "deep-research/0.1",
			},
			MaxResults:      10,
			MinResults:      1,
			MaxResultsLimit: 50,
			PubMed:          PubMedConfig{BaseURL: "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"},
			Trials:          TrialsConfig{BaseURL: "https://clinicaltrials.gov/api/v2"},
			Biorxiv: BiorxivConfig{
				BaseURL:    "https://api.biorxiv.org",
				Server:     "biorxiv",
				RecentDays: 7,
			},
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			AllowOrigins:      []string{"*"},
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "deep-research.db",
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "json",
			Outputs: []string{"stderr"},
		},
	}
}

// DefaultMaxResults is used when neither the caller nor the configuration
// gives a per-source bound.
const DefaultMaxResults = 10

// DefaultResults substitutes the configured default for a zero or negative
// max-results value. It imposes no upper bound.
func (c SourcesConfig) DefaultResults(n int) int {
	if n > 0 {
		return n
	}
	if c.MaxResults > 0 {
		return c.MaxResults
	}
	return DefaultMaxResults
}

// ClampResults bounds a caller-supplied max-results value for the HTTP and
// CLI surfaces. Zero or negative values select the configured default.
func (c SourcesConfig) ClampResults(n int) int {
	n = c.DefaultResults(n)
	if c.MinResults > 0 && n < c.MinResults {
		n = c.MinResults
	}
	if c.MaxResultsLimit > 0 && n > c.MaxResultsLimit {
		n = c.MaxResultsLimit
	}
	return n
}
