package dataflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Grok live-search defaults.
const (
	DefaultGrokBaseURL = "https://api.x.ai/v1"
	DefaultGrokModel   = "grok-4-1-fast"
)

const newsSystemPrompt = "You are a financial news researcher. " +
	"Return factual, concise news summaries. " +
	"Focus on market-moving events, earnings, analyst upgrades/downgrades, " +
	"insider trading, and sentiment shifts. " +
	"Format each item as: ### Title (source: Publisher)\nSummary\n"

// GrokConfig holds the configuration for the Grok news client.
type GrokConfig struct {
	// APIKey authenticates against the x.ai API.
	APIKey string
	// BaseURL overrides the API root (for testing).
	BaseURL string
	// Model selects the search model.
	Model string
	// Timeout bounds each HTTP call; searches are slow (default 60s).
	Timeout time.Duration
}

// GrokClient fetches ticker and global news via the x.ai Responses API
// with web search and X search tools.
type GrokClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGrokClient creates a Grok news client.
func NewGrokClient(cfg GrokConfig) *GrokClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGrokBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGrokModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &GrokClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type grokTool struct {
	Type     string `json:"type"`
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
}

type grokMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type grokRequest struct {
	Model           string        `json:"model"`
	Input           []grokMessage `json:"input"`
	Tools           []grokTool    `json:"tools"`
	MaxOutputTokens int           `json:"max_output_tokens"`
}

type grokResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// search runs one Responses API call and extracts the message text.
func (c *GrokClient) search(ctx context.Context, query string, tools []grokTool, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("grok: API key not configured")
	}

	payload := grokRequest{
		Model: c.model,
		Input: []grokMessage{
			{Role: "system", Content: newsSystemPrompt},
			{Role: "user", Content: query},
		},
		Tools:           tools,
		MaxOutputTokens: maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("grok: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("grok: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("grok: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("grok: responses returned %d: %s", resp.StatusCode, msg)
	}

	var parsed grokResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("grok: decode response: %w", err)
	}

	for _, item := range parsed.Output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if content.Type == "output_text" {
				return content.Text, nil
			}
		}
	}
	return "", fmt.Errorf("grok: no output text in response")
}

// TickerNews returns news and sentiment for one ticker between two dates
// (YYYY-MM-DD), combining web search with X search.
func (c *GrokClient) TickerNews(ctx context.Context, ticker, startDate, endDate string) (string, error) {
	tools := []grokTool{
		{Type: "web_search"},
		{Type: "x_search", FromDate: startDate, ToDate: endDate},
	}

	query := fmt.Sprintf(
		"Latest news and analysis for $%s stock from %s to %s. "+
			"Include: earnings reports, analyst upgrades/downgrades, insider activity, "+
			"regulatory news, product announcements, and X/Twitter sentiment.",
		ticker, startDate, endDate)

	result, err := c.search(ctx, query, tools, 2000)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(result)) < 20 {
		return fmt.Sprintf("No news found for %s between %s and %s", ticker, startDate, endDate), nil
	}

	return fmt.Sprintf("## %s News (Grok Web+X Search), from %s to %s:\n\n%s",
		ticker, startDate, endDate, result), nil
}

// GlobalNews returns macro and market-wide news for the lookback window
// ending at currDate (YYYY-MM-DD).
func (c *GrokClient) GlobalNews(ctx context.Context, currDate string, lookBackDays, limit int) (string, error) {
	if lookBackDays <= 0 {
		lookBackDays = 7
	}
	if limit <= 0 {
		limit = 10
	}

	day, err := time.Parse("2006-01-02", currDate)
	if err != nil {
		return "", fmt.Errorf("grok: invalid date %q: %w", currDate, err)
	}
	startDate := day.AddDate(0, 0, -lookBackDays).Format("2006-01-02")

	tools := []grokTool{
		{Type: "web_search"},
		{Type: "x_search", FromDate: startDate, ToDate: currDate},
	}

	query := fmt.Sprintf(
		"Top %d market-moving financial news from %s to %s. "+
			"Cover: Fed/central bank decisions, inflation data, GDP reports, "+
			"major earnings surprises, geopolitical events affecting markets, "+
			"and notable financial sentiment trends on X/Twitter.",
		limit, startDate, currDate)

	result, err := c.search(ctx, query, tools, 3000)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(result)) < 20 {
		return fmt.Sprintf("No global news found for %s", currDate), nil
	}

	return fmt.Sprintf("## Global Market News (Grok Web+X Search), from %s to %s:\n\n%s",
		startDate, currDate, result), nil
}
