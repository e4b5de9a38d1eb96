// Package mock provides a scripted reasoning engine for tests.
package mock

import (
	"context"
	"sync"

	"github.com/bensonmaxai/TradingAgents/pkg/reasoning"
)

// Engine implements reasoning.Engine with canned responses. Responses are
// consumed in order; once exhausted, Fallback is returned. A non-nil Err
// makes every call fail.
type Engine struct {
	// Fallback is returned when the scripted responses run out.
	Fallback string

	// Err, when set, is returned by every call.
	Err error

	mu        sync.Mutex
	responses []string
	prompts   []string
}

// NewEngine creates a mock engine with the given scripted responses.
func NewEngine(responses ...string) *Engine {
	return &Engine{
		Fallback:  "HOLD",
		responses: responses,
	}
}

// Enqueue appends scripted responses.
func (e *Engine) Enqueue(responses ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses = append(e.responses, responses...)
}

// Prompts returns the user-visible content of every request seen so far.
func (e *Engine) Prompts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.prompts))
	copy(out, e.prompts)
	return out
}

// Process sends a single user prompt and returns the next scripted response.
func (e *Engine) Process(ctx context.Context, prompt string, opts ...reasoning.Option) (string, error) {
	return e.ProcessMessages(ctx, []reasoning.Message{
		{Role: reasoning.RoleUser, Content: prompt},
	}, opts...)
}

// ProcessMessages records the exchange and returns the next scripted response.
func (e *Engine) ProcessMessages(ctx context.Context, messages []reasoning.Message, opts ...reasoning.Option) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(messages) > 0 {
		e.prompts = append(e.prompts, messages[len(messages)-1].Content)
	}

	if e.Err != nil {
		return "", e.Err
	}

	if len(e.responses) == 0 {
		return e.Fallback, nil
	}
	next := e.responses[0]
	e.responses = e.responses[1:]
	return next, nil
}
