package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/bensonmaxai/TradingAgents/pkg/log"
	"github.com/bensonmaxai/TradingAgents/pkg/reasoning"
)

// Trader turns the research manager's verdict into a concrete plan with
// entry, stop, target, and size.
type Trader struct {
	engine  reasoning.Engine
	memory  Memory
	matches int
}

// NewTrader creates the trader stage.
func NewTrader(engine reasoning.Engine, memory Memory, matches int) *Trader {
	if matches <= 0 {
		matches = 2
	}
	return &Trader{engine: engine, memory: memory, matches: matches}
}

// Plan writes the trader's plan into the state.
func (t *Trader) Plan(ctx context.Context, state *State) error {
	lessons := recallLessons(ctx, t.memory, state.Situation(), t.matches, time.Time{})

	memoryInstruction := ""
	if lessons != "" {
		memoryInstruction = fmt.Sprintf(`

CRITICAL - Past Trading Lessons (from actual P&L outcomes):
%s
You MUST adjust your entry/stop-loss/target based on these lessons. If a past lesson suggests tighter stops or different position sizing for similar setups, APPLY it. State which lesson influenced your plan.`, lessons)
	}

	system := fmt.Sprintf(`You are a trader. Based on the investment plan, output a concrete trading plan:

**Action**: BUY / SELL / HOLD
**Entry price**: [specific price or range]
**Stop-loss**: [specific price]
**Target**: [specific price, 1-3 month horizon]
**Position size**: [%% of portfolio]
**Confidence**: [High/Medium/Low with one-line reason]

Then conclude with: FINAL TRANSACTION PROPOSAL: **BUY/HOLD/SELL**
%s`, memoryInstruction)

	user := fmt.Sprintf(
		"Based on a comprehensive analysis by a team of analysts, here is an investment plan tailored for %s. "+
			"This plan incorporates insights from current technical market trends, macroeconomic indicators, and social media sentiment. "+
			"Use this plan as a foundation for evaluating your next trading decision.\n\n"+
			"Proposed Investment Plan: %s\n\n"+
			"Leverage these insights to make an informed and strategic decision.",
		state.Company, state.InvestmentPlan)

	response, err := t.engine.ProcessMessages(ctx, []reasoning.Message{
		{Role: reasoning.RoleSystem, Content: system},
		{Role: reasoning.RoleUser, Content: user},
	})
	if err != nil {
		return fmt.Errorf("trader: %w", err)
	}

	state.TraderPlan = response

	log.DebugContext(ctx, "Trader plan recorded", "company", state.Company)

	return nil
}
