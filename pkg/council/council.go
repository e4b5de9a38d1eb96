// Package council is the facade tying the library together: it builds the
// embedding backend, the reasoning engines, one situation memory per debate
// role, the lesson journal, and the decision log, and runs the full decision
// cycle over them.
package council

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bensonmaxai/TradingAgents/pkg/config"
	"github.com/bensonmaxai/TradingAgents/pkg/dataflows"
	"github.com/bensonmaxai/TradingAgents/pkg/decisions"
	"github.com/bensonmaxai/TradingAgents/pkg/embedding"
	embeddingMock "github.com/bensonmaxai/TradingAgents/pkg/embedding/adapters/mock"
	embeddingOllama "github.com/bensonmaxai/TradingAgents/pkg/embedding/adapters/ollama"
	embeddingOpenAI "github.com/bensonmaxai/TradingAgents/pkg/embedding/adapters/openai"
	"github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/journal"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
	"github.com/bensonmaxai/TradingAgents/pkg/mem/situation"
	"github.com/bensonmaxai/TradingAgents/pkg/reasoning"
	reasoningMock "github.com/bensonmaxai/TradingAgents/pkg/reasoning/adapters/mock"
	reasoningOpenAI "github.com/bensonmaxai/TradingAgents/pkg/reasoning/adapters/openai"
	"github.com/bensonmaxai/TradingAgents/pkg/reflection"
)

// Council owns the shared components of the trading pipeline. One Council
// serves many decision cycles; per-trade state lives in agents.State.
type Council struct {
	cfg *config.Config

	// quick handles the high-volume debate turns, deep the manager
	// verdicts. They may be the same engine.
	quick reasoning.Engine
	deep  reasoning.Engine

	memories  map[string]*situation.Store
	journal   *journal.Journal
	decisions *decisions.Store
	reflector *reflection.Reflector

	fmp  *dataflows.FMPClient
	fred *dataflows.FREDClient
	grok *dataflows.GrokClient
}

// New assembles a council from already-constructed engines and embedder.
// The embedder may be nil when hybrid search is disabled.
func New(cfg *config.Config, quick, deep reasoning.Engine, embedder embedding.Embedder) (*Council, error) {
	if cfg == nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "council requires a configuration")
	}
	if quick == nil || deep == nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "council requires reasoning engines")
	}

	c := &Council{
		cfg:      cfg,
		quick:    quick,
		deep:     deep,
		memories: make(map[string]*situation.Store, len(reflection.Roles())),
	}

	for _, role := range reflection.Roles() {
		store, err := situation.NewStore(situation.Config{
			Name:         role,
			MaxDocuments: cfg.Memory.MaxDocuments,
			HybridSearch: cfg.Memory.HybridSearch,
			HybridAlpha:  cfg.Memory.HybridAlpha,
		}, embedder)
		if err != nil {
			return nil, fmt.Errorf("memory %s: %w", role, err)
		}
		c.memories[role] = store
	}

	reflector, err := reflection.NewReflector(deep, reflection.DefaultConfig())
	if err != nil {
		return nil, err
	}
	c.reflector = reflector

	if cfg.Storage.JournalPath != "" {
		j, err := journal.Open(cfg.Storage.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("lesson journal: %w", err)
		}
		c.journal = j
		for role, store := range c.memories {
			if err := j.Replay(context.Background(), role, store); err != nil {
				j.Close()
				return nil, fmt.Errorf("replaying %s: %w", role, err)
			}
		}
	}

	if cfg.Storage.Decisions.Driver != "" {
		d, err := decisions.Open(cfg.Storage.Decisions.Driver, cfg.Storage.Decisions.DSN)
		if err != nil {
			if c.journal != nil {
				c.journal.Close()
			}
			return nil, fmt.Errorf("decision log: %w", err)
		}
		c.decisions = d
	}

	timeout := time.Duration(cfg.Dataflows.TimeoutSeconds) * time.Second
	if cfg.Dataflows.FMPAPIKey != "" {
		c.fmp = dataflows.NewFMPClient(dataflows.FMPConfig{APIKey: cfg.Dataflows.FMPAPIKey, Timeout: timeout})
	}
	if cfg.Dataflows.FREDAPIKey != "" {
		c.fred = dataflows.NewFREDClient(dataflows.FREDConfig{APIKey: cfg.Dataflows.FREDAPIKey, Timeout: timeout})
	}
	if cfg.Dataflows.XAIAPIKey != "" {
		c.grok = dataflows.NewGrokClient(dataflows.GrokConfig{APIKey: cfg.Dataflows.XAIAPIKey})
	}

	log.Debug("Council assembled",
		"memories", len(c.memories),
		"journal", c.journal != nil,
		"decision_log", c.decisions != nil,
		"hybrid", cfg.Memory.HybridSearch)

	return c, nil
}

// NewFromConfig builds the embedder and reasoning engines described by the
// configuration and assembles a council around them.
func NewFromConfig(cfg *config.Config) (*Council, error) {
	if cfg == nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "council requires a configuration")
	}

	embedder, err := initEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding backend: %w", err)
	}

	quick, deep, err := initEngines(cfg)
	if err != nil {
		return nil, fmt.Errorf("reasoning engine: %w", err)
	}

	return New(cfg, quick, deep, embedder)
}

// initEmbedder builds the embedding backend named by the configuration.
// A nil embedder is valid when hybrid search is off.
func initEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch strings.ToLower(cfg.Embedding.Provider) {
	case "ollama":
		return embeddingOllama.NewClient(embeddingOllama.Config{
			BaseURL:   cfg.Embedding.Ollama.BaseURL,
			Model:     cfg.Embedding.Ollama.Model,
			KeepAlive: cfg.Embedding.Ollama.KeepAlive,
		}), nil
	case "openai":
		return embeddingOpenAI.NewAdapter(embeddingOpenAI.Config{
			APIKey: cfg.Embedding.OpenAI.APIKey,
			Model:  cfg.Embedding.OpenAI.Model,
		})
	case "mock":
		return embeddingMock.NewEmbedder(), nil
	case "":
		return nil, nil
	default:
		return nil, errors.Wrap(errors.ErrInvalidConfig,
			"unsupported embedding provider %q", cfg.Embedding.Provider)
	}
}

// initEngines builds the quick and deep reasoning engines. With the mock
// provider both are the same instance.
func initEngines(cfg *config.Config) (quick, deep reasoning.Engine, err error) {
	switch strings.ToLower(cfg.Reasoning.Provider) {
	case "openai":
		quick, err = reasoningOpenAI.NewAdapter(reasoningOpenAI.Config{
			APIKey:    cfg.Reasoning.OpenAI.APIKey,
			ChatModel: cfg.Reasoning.OpenAI.QuickModel,
			BaseURL:   cfg.Reasoning.OpenAI.BaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		deep, err = reasoningOpenAI.NewAdapter(reasoningOpenAI.Config{
			APIKey:    cfg.Reasoning.OpenAI.APIKey,
			ChatModel: cfg.Reasoning.OpenAI.DeepModel,
			BaseURL:   cfg.Reasoning.OpenAI.BaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		return quick, deep, nil
	case "mock", "":
		engine := reasoningMock.NewEngine()
		return engine, engine, nil
	default:
		return nil, nil, errors.Wrap(errors.ErrInvalidConfig,
			"unsupported reasoning provider %q", cfg.Reasoning.Provider)
	}
}

// Memory returns the situation store for a debate role.
func (c *Council) Memory(role string) (*situation.Store, error) {
	store, ok := c.memories[role]
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "unknown memory role %q", role)
	}
	return store, nil
}

// Decisions returns the decision log, or nil when none is configured.
func (c *Council) Decisions() *decisions.Store {
	return c.decisions
}

// Close releases the journal and decision log.
func (c *Council) Close() error {
	var first error
	if c.journal != nil {
		if err := c.journal.Close(); err != nil {
			first = err
		}
	}
	if c.decisions != nil {
		if err := c.decisions.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
