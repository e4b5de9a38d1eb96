package agents

import (
	"context"
	"fmt"

	"github.com/bensonmaxai/TradingAgents/pkg/log"
	"github.com/bensonmaxai/TradingAgents/pkg/reasoning"
)

// Risk analyst stances. Each argues the trader's plan from a different
// appetite and they respond to each other in rounds.
const (
	speakerAggressive   = "Aggressive"
	speakerConservative = "Conservative"
	speakerNeutral      = "Neutral"
)

// truncate bounds a report excerpt for the risk prompts, which quote all
// three analysts and would otherwise balloon.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// RiskDebator is one stance in the risk debate.
type RiskDebator struct {
	engine reasoning.Engine
	stance string
}

// NewAggressiveDebator argues for maximizing the opportunity.
func NewAggressiveDebator(engine reasoning.Engine) *RiskDebator {
	return &RiskDebator{engine: engine, stance: speakerAggressive}
}

// NewConservativeDebator argues for protecting capital.
func NewConservativeDebator(engine reasoning.Engine) *RiskDebator {
	return &RiskDebator{engine: engine, stance: speakerConservative}
}

// NewNeutralDebator weighs both sides and pushes for balance.
func NewNeutralDebator(engine reasoning.Engine) *RiskDebator {
	return &RiskDebator{engine: engine, stance: speakerNeutral}
}

// Respond adds this stance's next argument to the risk debate.
func (d *RiskDebator) Respond(ctx context.Context, state *State) error {
	rd := &state.RiskDebate

	var prompt string
	switch d.stance {
	case speakerAggressive:
		prompt = fmt.Sprintf(`Aggressive Risk Analyst: Argue for MAXIMIZING the opportunity in the trader's plan.

Trader's plan: %s

Structure:
1. **Upside case**: The biggest gain the conservative analyst ignores (cite specific data)
2. **Counter to conservative**: Their most overcautious assumption (one specific rebuttal)
3. **Recommended adjustment**: Where to add size, widen targets, or press the edge

Data: Market=%s | Fundamentals=%s
History: %s
Conservative said: %s
Neutral said: %s

Be direct. If no prior responses exist, just present your case. No filler.`,
			state.TraderPlan,
			truncate(state.MarketReport, 500), truncate(state.FundamentalsReport, 500),
			rd.History,
			truncate(rd.CurrentConservative, 300), truncate(rd.CurrentNeutral, 300))

	case speakerConservative:
		prompt = fmt.Sprintf(`Conservative Risk Analyst: Argue for CAPITAL PROTECTION from the trader's plan.

Trader's plan: %s

Structure:
1. **Downside risk**: The biggest threat the aggressive analyst ignores (cite specific data)
2. **Counter to aggressive**: Their most reckless assumption (one specific rebuttal)
3. **Recommended adjustment**: How to reduce exposure, add hedges, or tighten stops

Data: Market=%s | Fundamentals=%s
History: %s
Aggressive said: %s
Neutral said: %s

Be direct. If no prior responses exist, just present your case. No filler.`,
			state.TraderPlan,
			truncate(state.MarketReport, 500), truncate(state.FundamentalsReport, 500),
			rd.History,
			truncate(rd.CurrentAggressive, 300), truncate(rd.CurrentNeutral, 300))

	default:
		prompt = fmt.Sprintf(`Neutral Risk Analyst: Weigh both sides of the trader's plan and argue for the BALANCED adjustment.

Trader's plan: %s

Structure:
1. **What both sides miss**: The scenario neither aggressive nor conservative priced in
2. **Fair assessment**: Which of their arguments holds up, which does not (cite data)
3. **Recommended adjustment**: The middle path on size, stops, and targets

Data: Market=%s | Fundamentals=%s
History: %s
Aggressive said: %s
Conservative said: %s

Be direct. If no prior responses exist, just present your case. No filler.`,
			state.TraderPlan,
			truncate(state.MarketReport, 500), truncate(state.FundamentalsReport, 500),
			rd.History,
			truncate(rd.CurrentAggressive, 300), truncate(rd.CurrentConservative, 300))
	}

	response, err := d.engine.Process(ctx, prompt)
	if err != nil {
		return fmt.Errorf("%s risk analyst: %w", d.stance, err)
	}

	argument := d.stance + " Analyst: " + response
	rd.History += "\n" + argument
	rd.LatestSpeaker = d.stance
	rd.Count++

	switch d.stance {
	case speakerAggressive:
		rd.AggressiveHistory += "\n" + argument
		rd.CurrentAggressive = argument
	case speakerConservative:
		rd.ConservativeHistory += "\n" + argument
		rd.CurrentConservative = argument
	default:
		rd.NeutralHistory += "\n" + argument
		rd.CurrentNeutral = argument
	}

	log.DebugContext(ctx, "Risk argument recorded",
		"company", state.Company, "speaker", d.stance, "round", rd.Count)

	return nil
}
