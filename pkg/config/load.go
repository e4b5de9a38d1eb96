package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from a byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvironmentOverrides(&config)

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file is given: mock
// providers, lexical-only memory, no persistence.
func Default() *Config {
	config := &Config{}
	config.Embedding.Provider = "mock"
	config.Reasoning.Provider = "mock"
	applyEnvironmentOverrides(config)
	if err := validateConfig(config); err != nil {
		// Defaults always validate; reaching here is a programming error.
		panic(err)
	}
	return config
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func applyEnvironmentOverrides(config *Config) {
	// OpenAI API key override (shared by reasoning and embeddings)
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Reasoning.OpenAI.APIKey = apiKey
		config.Embedding.OpenAI.APIKey = apiKey
	}

	// Market data provider key overrides
	if apiKey := os.Getenv("FMP_API_KEY"); apiKey != "" {
		config.Dataflows.FMPAPIKey = apiKey
	}
	if apiKey := os.Getenv("FRED_API_KEY"); apiKey != "" {
		config.Dataflows.FREDAPIKey = apiKey
	}
	if apiKey := os.Getenv("XAI_API_KEY"); apiKey != "" {
		config.Dataflows.XAIAPIKey = apiKey
	}

	// Ollama server override
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.Embedding.Ollama.BaseURL = baseURL
	}

	// Journal path override
	if path := os.Getenv("TRADINGAGENTS_JOURNAL_PATH"); path != "" {
		config.Storage.JournalPath = path
	}
}

// validateConfig validates the configuration and applies defaults.
func validateConfig(config *Config) error {
	// Validate memory configuration
	if config.Memory.MaxDocuments < 0 {
		return fmt.Errorf("memory max_documents must be non-negative")
	}
	if config.Memory.HybridAlpha != 0 &&
		(config.Memory.HybridAlpha <= 0 || config.Memory.HybridAlpha >= 1) {
		return fmt.Errorf("memory hybrid_alpha must be in (0, 1)")
	}
	if config.Memory.MatchesPerQuery <= 0 {
		config.Memory.MatchesPerQuery = 2 // Default recall depth
	}

	// Validate embedding configuration
	switch strings.ToLower(config.Embedding.Provider) {
	case "", "ollama":
		config.Embedding.Provider = "ollama"
		// Base URL and model defaults are applied by the adapter
	case "openai":
		// API key can come from the environment, checked at build time
		if config.Embedding.OpenAI.Model == "" {
			config.Embedding.OpenAI.Model = "text-embedding-3-small"
		}
	case "mock":
		// Mock embedder doesn't require additional validation
	default:
		return fmt.Errorf("unsupported embedding provider: %s", config.Embedding.Provider)
	}

	// Validate reasoning configuration
	switch strings.ToLower(config.Reasoning.Provider) {
	case "", "openai":
		config.Reasoning.Provider = "openai"
		if config.Reasoning.OpenAI.QuickModel == "" {
			config.Reasoning.OpenAI.QuickModel = "gpt-4o-mini"
		}
		if config.Reasoning.OpenAI.DeepModel == "" {
			config.Reasoning.OpenAI.DeepModel = "o4-mini"
		}
	case "mock":
		// Mock engine doesn't require additional validation
	default:
		return fmt.Errorf("unsupported reasoning provider: %s", config.Reasoning.Provider)
	}

	// Validate dataflows configuration
	if config.Dataflows.TimeoutSeconds < 0 {
		return fmt.Errorf("dataflows timeout_seconds must be non-negative")
	}
	if config.Dataflows.TimeoutSeconds == 0 {
		config.Dataflows.TimeoutSeconds = 30 // Default HTTP timeout
	}

	// Validate storage configuration
	if config.Storage.Decisions.Driver != "" {
		switch strings.ToLower(config.Storage.Decisions.Driver) {
		case "sqlite3", "postgres":
			if config.Storage.Decisions.DSN == "" {
				return fmt.Errorf("decisions DSN is required when a driver is set")
			}
		default:
			return fmt.Errorf("unsupported decisions driver: %s", config.Storage.Decisions.Driver)
		}
	}

	// Validate debate configuration (apply defaults if needed)
	if config.Debate.InvestRounds <= 0 {
		config.Debate.InvestRounds = 1 // Default debate length
	}
	if config.Debate.RiskRounds <= 0 {
		config.Debate.RiskRounds = 1
	}

	return nil
}
