package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bensonmaxai/TradingAgents/pkg/log"
	"github.com/bensonmaxai/TradingAgents/pkg/reasoning"
)

// ResearchManager judges the bull/bear debate and issues the investment
// plan the trader works from.
type ResearchManager struct {
	engine  reasoning.Engine
	memory  Memory
	matches int
}

// NewResearchManager creates the investment debate judge.
func NewResearchManager(engine reasoning.Engine, memory Memory, matches int) *ResearchManager {
	if matches <= 0 {
		matches = 2
	}
	return &ResearchManager{engine: engine, memory: memory, matches: matches}
}

// Decide rules on the debate and writes the investment plan.
func (m *ResearchManager) Decide(ctx context.Context, state *State) error {
	lessons := recallLessons(ctx, m.memory, state.Situation(), m.matches, time.Time{})

	memoryInstruction := ""
	if lessons != "" {
		memoryInstruction = fmt.Sprintf(`
CRITICAL - Past mistakes to avoid (from actual P&L outcomes):
%s
Before deciding, CHECK if your current call repeats any mistake above. If so, explicitly state how you are adjusting to avoid repeating it.
`, lessons)
	}

	prompt := fmt.Sprintf(`You are the Research Manager. Evaluate the bull/bear debate and make a DECISIVE call.

%s

Output in this exact structure:
**Decision**: [your decision]
**Winner**: Bull or Bear (who had the stronger data-backed argument)
**Key reason**: The single most important factor driving your decision
**Risk**: The biggest risk to your call
**Action plan**: 2-3 concrete steps for the trader (specific entry price, stop-loss price, target price)
**Lessons applied**: Which past lesson(s) influenced this decision, if any

Do NOT default to HOLD as a compromise. Pick a side based on evidence strength.
%s
Debate:
%s`,
		SignalConstraints(state.MarketType, state.SuggestedDirection),
		memoryInstruction,
		state.InvestDebate.History)

	response, err := m.engine.Process(ctx, prompt)
	if err != nil {
		return fmt.Errorf("research manager: %w", err)
	}

	state.InvestDebate.JudgeDecision = response
	state.InvestDebate.CurrentResponse = response
	state.InvestmentPlan = response

	log.DebugContext(ctx, "Research manager ruled", "company", state.Company)

	return nil
}

// RiskManager makes the final call after the risk debate, then validates
// its own structured output and refines it once when inconsistent.
type RiskManager struct {
	engine  reasoning.Engine
	memory  Memory
	matches int
}

// NewRiskManager creates the final judge.
func NewRiskManager(engine reasoning.Engine, memory Memory, matches int) *RiskManager {
	if matches <= 0 {
		matches = 2
	}
	return &RiskManager{engine: engine, memory: memory, matches: matches}
}

// Decide writes the final trade decision into the state.
func (m *RiskManager) Decide(ctx context.Context, state *State) error {
	lessons := recallLessons(ctx, m.memory, state.Situation(), m.matches, time.Time{})

	memoryInstruction := ""
	if lessons != "" {
		memoryInstruction = fmt.Sprintf(`
CRITICAL - Past mistakes to avoid (from actual P&L outcomes):
%s
You MUST check if the current trade setup resembles any past mistake above. If it does, either REJECT the trade or explicitly adjust position size/stop-loss/target to compensate. State which lesson you applied.
`, lessons)
	}

	slMax := fmt.Sprintf("%.0f%%", MaxStopLossPct(state.MarketType))

	prompt := fmt.Sprintf(`You are the Risk Management Judge. Make the FINAL trading decision.

%s
%s
CONSTRAINTS:
- Entry/Stop-loss/Targets must be specific prices, not ranges wider than 2%%.

Output in this exact structure (every field mandatory):
**DECISION**: [your decision]
**Confidence**: [0-100 integer]
  Scoring guide: 80-100=strong multi-signal alignment, 60-79=moderate, 40-59=mixed/uncertain, 20-39=weak, 0-19=no case
**Entry**: [specific price]
**Stop-loss**: [Price] (mandatory, max %s from entry)
**Target 1**: [Price] (partial take-profit ~50%%)
**Target 2**: [Price] (full exit)
**Key risk**: [Single biggest threat to this trade]
**Data quality note**: [which data sources were missing or weak, and how it affected your analysis]
**Lessons applied**: Which past lesson(s) influenced this decision
**Risk-adjusted rationale**: [3-4 sentences - which analyst was most right and why, adjusted from trader's plan: %s]
%s%s
Risk debate:
%s

Be decisive. Do NOT default to HOLD as compromise. Every field must have a specific value.`,
		SignalConstraints(state.MarketType, state.SuggestedDirection),
		MarketContext(state.MarketType),
		slMax,
		state.TraderPlan,
		memoryInstruction,
		devilsAdvocate(&state.RiskDebate),
		state.RiskDebate.History)

	response, err := m.engine.Process(ctx, prompt)
	if err != nil {
		return fmt.Errorf("risk manager: %w", err)
	}

	refined, err := m.selfRefine(ctx, response, state, lessons != "", slMax)
	if err != nil {
		return err
	}

	state.RiskDebate.JudgeDecision = refined
	state.RiskDebate.LatestSpeaker = "Judge"
	state.FinalDecision = refined

	log.DebugContext(ctx, "Risk manager ruled", "company", state.Company)

	return nil
}

// selfRefine validates the verdict and asks the engine to correct it once
// when issues are found. A clean verdict passes through untouched.
func (m *RiskManager) selfRefine(ctx context.Context, verdict string, state *State, hasMemory bool, slMax string) (string, error) {
	fields := ParseDecisionFields(verdict)
	issues := ValidateDecision(fields, state.MarketType, state.SuggestedDirection, hasMemory)
	if len(issues) == 0 {
		return verdict, nil
	}

	log.WarnContext(ctx, "Refining risk verdict",
		"company", state.Company, "issues", len(issues))

	var list strings.Builder
	for _, issue := range issues {
		list.WriteString("- " + issue + "\n")
	}

	prompt := fmt.Sprintf(`You are the Risk Management Judge. Review your previous decision and fix the issues below.

YOUR PREVIOUS DECISION:
%s

ISSUES FOUND:
%s
RULES:
- Stop-loss must be within %s of entry price.
- If direction is locked, do not contradict it.
- Reference past lessons if they were provided.
- Entry/SL/Target must be logically consistent with the decision direction.

Output your CORRECTED decision in the same exact format. Every field must have a specific value.`,
		verdict, list.String(), slMax)

	refined, err := m.engine.Process(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("risk manager refinement: %w", err)
	}
	return refined, nil
}

// devilsAdvocate injects a counter-consensus challenge when all three risk
// analysts lean the same way.
func devilsAdvocate(rd *RiskDebateState) string {
	all := strings.ToLower(rd.CurrentAggressive + " " + rd.CurrentConservative + " " + rd.CurrentNeutral)
	buys := strings.Count(all, "buy") + strings.Count(all, "long") + strings.Count(all, "upside")
	sells := strings.Count(all, "sell") + strings.Count(all, "short") + strings.Count(all, "downside")

	switch {
	case buys > sells*2:
		return "\nDEVIL'S ADVOCATE: All analysts lean bullish. Before deciding BUY, seriously consider: " +
			"What if this is a bull trap? What data would DISPROVE the bull case? " +
			"If you still choose BUY, your confidence should be Medium at most unless you can refute this concern with specific data.\n"
	case sells > buys*2:
		return "\nDEVIL'S ADVOCATE: All analysts lean bearish. Before deciding SELL, seriously consider: " +
			"What if this is a capitulation bottom? What data would DISPROVE the bear case? " +
			"If you still choose SELL, your confidence should be Medium at most unless you can refute this concern with specific data.\n"
	default:
		return ""
	}
}
