package agents

import (
	"context"
	"fmt"

	"github.com/bensonmaxai/TradingAgents/pkg/log"
	"github.com/bensonmaxai/TradingAgents/pkg/reasoning"
)

// BullResearcher argues the case for the trade.
type BullResearcher struct {
	engine  reasoning.Engine
	memory  Memory
	matches int
}

// NewBullResearcher creates the bull side of the investment debate.
func NewBullResearcher(engine reasoning.Engine, memory Memory, matches int) *BullResearcher {
	if matches <= 0 {
		matches = 2
	}
	return &BullResearcher{engine: engine, memory: memory, matches: matches}
}

// Debate adds one bull argument to the investment debate.
func (r *BullResearcher) Debate(ctx context.Context, state *State) error {
	lessons := recallLessons(ctx, r.memory, state.Situation(), r.matches, state.ReferenceDate())

	memoryBlock := ""
	if lessons != "" {
		memoryBlock = fmt.Sprintf(`
CRITICAL - Past Trading Lessons (from actual P&L outcomes):
%s
You MUST factor these lessons into your bull case. If a past lesson contradicts your current argument, explicitly address why this time is different. Do NOT repeat mistakes identified above.
---
`, lessons)
	}

	prompt := fmt.Sprintf(`You are the Bull Analyst. Make the strongest case FOR investing, using specific data from the reports below. Counter the bear's key arguments directly.
%s
Structure your response:
1. **Strongest bull case** (2-3 points with specific numbers from reports)
2. **Bear rebuttal** (address bear's weakest argument with data)
3. **Catalyst** (what will drive the stock higher, with timeline)
%s
Market data: %s
Sentiment: %s
News: %s
Fundamentals: %s
Debate so far: %s
Last bear argument: %s

Be direct and data-driven. No repetition of what the bear said. No filler.`,
		MarketContext(state.MarketType),
		memoryBlock,
		state.MarketReport,
		state.SentimentReport,
		state.NewsReport,
		state.FundamentalsReport,
		state.InvestDebate.History,
		state.InvestDebate.CurrentResponse,
	)

	response, err := r.engine.Process(ctx, prompt)
	if err != nil {
		return fmt.Errorf("bull researcher: %w", err)
	}

	argument := "Bull Analyst: " + response
	state.InvestDebate.History += "\n" + argument
	state.InvestDebate.BullHistory += "\n" + argument
	state.InvestDebate.CurrentResponse = argument
	state.InvestDebate.Count++

	log.DebugContext(ctx, "Bull argument recorded",
		"company", state.Company, "round", state.InvestDebate.Count)

	return nil
}

// BearResearcher argues the case against the trade.
type BearResearcher struct {
	engine  reasoning.Engine
	memory  Memory
	matches int
}

// NewBearResearcher creates the bear side of the investment debate.
func NewBearResearcher(engine reasoning.Engine, memory Memory, matches int) *BearResearcher {
	if matches <= 0 {
		matches = 2
	}
	return &BearResearcher{engine: engine, memory: memory, matches: matches}
}

// Debate adds one bear argument to the investment debate.
func (r *BearResearcher) Debate(ctx context.Context, state *State) error {
	lessons := recallLessons(ctx, r.memory, state.Situation(), r.matches, state.ReferenceDate())

	memoryBlock := ""
	if lessons != "" {
		memoryBlock = fmt.Sprintf(`
CRITICAL - Past Trading Lessons (from actual P&L outcomes):
%s
You MUST factor these lessons into your bear case. If a past lesson contradicts your current argument, explicitly address why this time is different. Do NOT repeat mistakes identified above.
---
`, lessons)
	}

	prompt := fmt.Sprintf(`You are the Bear Analyst. Make the strongest case AGAINST investing, using specific data from the reports below. Counter the bull's key arguments directly.
%s
Structure your response:
1. **Strongest bear case** (2-3 points with specific numbers from reports)
2. **Bull rebuttal** (address bull's weakest argument with data)
3. **Downside trigger** (what will push the stock lower, with timeline)
%s
Market data: %s
Sentiment: %s
News: %s
Fundamentals: %s
Debate so far: %s
Last bull argument: %s

Be direct and data-driven. No repetition of what the bull said. No filler.`,
		MarketContext(state.MarketType),
		memoryBlock,
		state.MarketReport,
		state.SentimentReport,
		state.NewsReport,
		state.FundamentalsReport,
		state.InvestDebate.History,
		state.InvestDebate.CurrentResponse,
	)

	response, err := r.engine.Process(ctx, prompt)
	if err != nil {
		return fmt.Errorf("bear researcher: %w", err)
	}

	argument := "Bear Analyst: " + response
	state.InvestDebate.History += "\n" + argument
	state.InvestDebate.BearHistory += "\n" + argument
	state.InvestDebate.CurrentResponse = argument
	state.InvestDebate.Count++

	log.DebugContext(ctx, "Bear argument recorded",
		"company", state.Company, "round", state.InvestDebate.Count)

	return nil
}
