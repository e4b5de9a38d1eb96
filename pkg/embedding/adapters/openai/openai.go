// Package openai implements the embedding.Embedder interface using the
// OpenAI embeddings API.
package openai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/bensonmaxai/TradingAgents/pkg/embedding"
	appErrors "github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
)

// ErrEmptyAPIKey is returned when the API key is missing.
var ErrEmptyAPIKey = errors.New("API key cannot be empty")

// Config holds the configuration for the OpenAI embedding adapter.
type Config struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the embedding model, e.g., "text-embedding-3-small".
	Model string
	// BaseURL is the base URL for the OpenAI API (for testing).
	BaseURL string
}

// Adapter implements embedding.Embedder using the OpenAI API.
type Adapter struct {
	client *openai.Client
	model  string
}

// NewAdapter creates a new OpenAI embedding adapter.
func NewAdapter(cfg Config) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Adapter{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}, nil
}

// Embed generates embeddings for the given texts in a single batch call.
func (a *Adapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	log.Debug("Generating embeddings", "count", len(texts), "model", a.model)

	request := openai.EmbeddingRequest{
		Input: embedding.TruncateAll(texts),
		Model: openai.EmbeddingModel(a.model),
	}

	response, err := a.client.CreateEmbeddings(ctx, request)
	if err != nil {
		log.Debug("Failed to generate embeddings", "model", a.model, "error", err)
		return nil, appErrors.Wrap(appErrors.ErrEmbeddingUnavailable, "openai embeddings")
	}

	if len(response.Data) != len(texts) {
		return nil, appErrors.Wrap(appErrors.ErrEmbeddingUnavailable,
			"got %d embeddings for %d texts", len(response.Data), len(texts))
	}

	embeddings := make([][]float32, len(response.Data))
	for i, data := range response.Data {
		embeddings[i] = data.Embedding
	}

	return embeddings, nil
}
