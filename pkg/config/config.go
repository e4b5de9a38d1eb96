// Package config defines the configuration for the trading agents library
// and its YAML loading with environment overrides.
package config

import "github.com/bensonmaxai/TradingAgents/pkg/log"

// Config represents the top-level configuration for the trading agents.
type Config struct {
	// Memory configures the per-role situation memories
	Memory MemoryConfig `yaml:"memory"`

	// Embedding configures the embedding backend used for hybrid retrieval
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Reasoning configures the reasoning engine (LLM)
	Reasoning ReasoningConfig `yaml:"reasoning"`

	// Dataflows configures the external market data providers
	Dataflows DataflowsConfig `yaml:"dataflows"`

	// Storage configures lesson journaling and the decision log
	Storage StorageConfig `yaml:"storage"`

	// Debate configures the debate loop lengths
	Debate DebateConfig `yaml:"debate"`

	// Logging configures the logging behavior
	Logging log.Config `yaml:"logging"`
}

// MemoryConfig configures the situation memory stores.
type MemoryConfig struct {
	// MaxDocuments caps each store's regular tier (0 = unbounded)
	MaxDocuments int `yaml:"max_documents"`

	// HybridSearch enables embedding fusion on retrieval
	HybridSearch bool `yaml:"hybrid_search"`

	// HybridAlpha is the lexical weight in hybrid fusion (0 = default)
	HybridAlpha float64 `yaml:"hybrid_alpha"`

	// MatchesPerQuery is how many past lessons each agent recalls
	MatchesPerQuery int `yaml:"matches_per_query"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	// Provider is the embedding backend ("ollama", "openai", "mock")
	Provider string `yaml:"provider"`

	// Ollama configures the local Ollama backend
	Ollama OllamaConfig `yaml:"ollama"`

	// OpenAI configures the OpenAI embeddings backend
	OpenAI OpenAIEmbeddingConfig `yaml:"openai"`
}

// OllamaConfig configures the Ollama embedding backend.
type OllamaConfig struct {
	// BaseURL is the Ollama server address
	BaseURL string `yaml:"base_url"`

	// Model is the embedding model to pull vectors from
	Model string `yaml:"model"`

	// KeepAlive controls how long the model stays loaded between calls
	KeepAlive string `yaml:"keep_alive"`
}

// OpenAIEmbeddingConfig configures OpenAI embeddings.
type OpenAIEmbeddingConfig struct {
	// APIKey is the OpenAI API key
	APIKey string `yaml:"api_key"`

	// Model is the embedding model
	Model string `yaml:"model"`
}

// ReasoningConfig configures the reasoning engine (LLM).
type ReasoningConfig struct {
	// Provider is the LLM provider ("openai", "mock")
	Provider string `yaml:"provider"`

	// OpenAI configures OpenAI integration
	OpenAI OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig configures OpenAI chat integration.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the API endpoint (OpenAI-compatible servers)
	BaseURL string `yaml:"base_url"`

	// QuickModel handles the high-volume debate turns
	QuickModel string `yaml:"quick_model"`

	// DeepModel handles the manager verdicts
	DeepModel string `yaml:"deep_model"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `yaml:"max_tokens"`

	// Temperature controls randomness in generation (0.0-1.0)
	Temperature float64 `yaml:"temperature"`
}

// DataflowsConfig configures external market data providers.
type DataflowsConfig struct {
	// FMPAPIKey authenticates against Financial Modeling Prep
	FMPAPIKey string `yaml:"fmp_api_key"`

	// FREDAPIKey authenticates against the FRED macro series API
	FREDAPIKey string `yaml:"fred_api_key"`

	// XAIAPIKey authenticates against the x.ai live-search API
	XAIAPIKey string `yaml:"xai_api_key"`

	// TimeoutSeconds bounds each provider HTTP call
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
	// JournalPath is the bbolt file holding per-role lesson journals.
	// Empty disables journaling.
	JournalPath string `yaml:"journal_path"`

	// Decisions configures the SQL decision log
	Decisions DecisionsConfig `yaml:"decisions"`
}

// DecisionsConfig configures the SQL decision log.
type DecisionsConfig struct {
	// Driver is the SQL driver ("sqlite3", "postgres"); empty disables
	// the decision log
	Driver string `yaml:"driver"`

	// DSN is the data source name (connection string)
	DSN string `yaml:"dsn"`
}

// DebateConfig configures the debate loop lengths.
type DebateConfig struct {
	// InvestRounds is how many bull/bear exchanges run before the
	// research manager rules
	InvestRounds int `yaml:"invest_rounds"`

	// RiskRounds is how many three-way risk exchanges run before the
	// risk manager rules
	RiskRounds int `yaml:"risk_rounds"`
}
