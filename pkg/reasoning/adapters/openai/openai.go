// Package openai implements the reasoning.Engine interface using the
// OpenAI chat completions API.
package openai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/bensonmaxai/TradingAgents/pkg/log"
	"github.com/bensonmaxai/TradingAgents/pkg/reasoning"
)

// ErrEmptyAPIKey is returned when the API key is missing.
var ErrEmptyAPIKey = errors.New("API key cannot be empty")

// Config holds the configuration for the OpenAI adapter.
type Config struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// ChatModel is the default model for chat completions, e.g., "gpt-4o-mini".
	ChatModel string
	// BaseURL is the base URL for the OpenAI API (for testing or
	// OpenAI-compatible servers).
	BaseURL string
}

// Adapter implements the reasoning.Engine interface using the OpenAI API.
type Adapter struct {
	client    *openai.Client
	chatModel string
}

// NewAdapter creates a new OpenAI reasoning adapter.
func NewAdapter(cfg Config) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Adapter{
		client:    openai.NewClientWithConfig(clientConfig),
		chatModel: cfg.ChatModel,
	}, nil
}

// Process sends a single user prompt and returns the response text.
func (a *Adapter) Process(ctx context.Context, prompt string, opts ...reasoning.Option) (string, error) {
	return a.ProcessMessages(ctx, []reasoning.Message{
		{Role: reasoning.RoleUser, Content: prompt},
	}, opts...)
}

// ProcessMessages sends a full chat exchange and returns the response.
func (a *Adapter) ProcessMessages(ctx context.Context, messages []reasoning.Message, opts ...reasoning.Option) (string, error) {
	options := reasoning.DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	model := a.chatModel
	if options.Model != "" {
		model = options.Model
	}

	log.DebugContext(ctx, "Processing chat request", "model", model, "messages", len(messages))

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	request := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
	}

	response, err := a.client.CreateChatCompletion(ctx, request)
	if err != nil {
		log.ErrorContext(ctx, "Chat completion failed", "model", model, "error", err)
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return response.Choices[0].Message.Content, nil
}
