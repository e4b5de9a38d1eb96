// Package ollama implements the embedding.Embedder interface against an
// Ollama-compatible HTTP embedding service.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bensonmaxai/TradingAgents/pkg/embedding"
	"github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
)

// Defaults used when the corresponding Config fields are empty.
const (
	DefaultBaseURL   = "http://localhost:11434"
	DefaultModel     = "nomic-embed-text"
	DefaultTimeout   = 10 * time.Second
	DefaultKeepAlive = "5m"
)

// Config holds the configuration for the Ollama adapter.
type Config struct {
	// BaseURL is the address of the Ollama server.
	BaseURL string
	// Model is the embedding model to pull vectors from.
	Model string
	// Timeout bounds the single HTTP call made per batch.
	Timeout time.Duration
	// KeepAlive asks the server to keep the model loaded between calls.
	KeepAlive string
}

// Client implements embedding.Embedder using the Ollama /api/embed endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	keepAlive  string
}

// NewClient creates a new Ollama embedding client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.KeepAlive == "" {
		cfg.KeepAlive = DefaultKeepAlive
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		keepAlive:  cfg.KeepAlive,
	}
}

// embedRequest is the wire format of the /api/embed request.
type embedRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	KeepAlive string   `json:"keep_alive,omitempty"`
}

// embedResponse is the wire format of the /api/embed response.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed sends the batch in a single HTTP call and returns the vectors
// positionally aligned with the input. Every failure mode wraps
// errors.ErrEmbeddingUnavailable so callers can treat it as a soft outage.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(embedRequest{
		Model:     c.model,
		Input:     embedding.TruncateAll(texts),
		KeepAlive: c.keepAlive,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrEmbeddingUnavailable, "marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.ErrEmbeddingUnavailable, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("Embedding request failed", "model", c.model, "error", err)
		return nil, errors.Wrap(errors.ErrEmbeddingUnavailable, "post %s", c.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug("Embedding request rejected", "model", c.model, "status", resp.StatusCode)
		return nil, errors.Wrap(errors.ErrEmbeddingUnavailable, "unexpected status %d", resp.StatusCode)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(errors.ErrEmbeddingUnavailable, "decode response: %v", err)
	}

	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			errors.ErrEmbeddingUnavailable, len(parsed.Embeddings), len(texts))
	}

	return parsed.Embeddings, nil
}
