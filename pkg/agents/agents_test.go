package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bensonmaxai/TradingAgents/pkg/mem/situation"
	"github.com/bensonmaxai/TradingAgents/pkg/reasoning/adapters/mock"
)

func newTestState() *State {
	state := NewState("BTC", "2026-08-24", MarketCrypto)
	state.MarketReport = "bitcoin holding above the 50-day average on rising volume"
	state.SentimentReport = "funding rates neutral, social chatter picking up"
	state.NewsReport = "ETF inflows resumed this week"
	state.FundamentalsReport = "network activity near all-time highs"
	return state
}

func newTestMemory(t *testing.T) *situation.Store {
	t.Helper()
	store, err := situation.NewStore(situation.Config{Name: "test_memory"}, nil)
	require.NoError(t, err)
	store.AddSituations([]situation.Pair{
		{
			Situation:      "bitcoin rising volume above moving average",
			Recommendation: "Lesson: do not chase extended moves without a pullback entry",
		},
	})
	return store
}

func TestInvestDebateFlow(t *testing.T) {
	engine := mock.NewEngine("the upside case", "the downside case")
	memory := newTestMemory(t)
	state := newTestState()
	ctx := context.Background()

	bull := NewBullResearcher(engine, memory, 2)
	bear := NewBearResearcher(engine, memory, 2)

	require.NoError(t, bull.Debate(ctx, state))
	require.NoError(t, bear.Debate(ctx, state))

	assert.Equal(t, 2, state.InvestDebate.Count)
	assert.Contains(t, state.InvestDebate.History, "Bull Analyst: the upside case")
	assert.Contains(t, state.InvestDebate.History, "Bear Analyst: the downside case")
	assert.Contains(t, state.InvestDebate.BullHistory, "upside")
	assert.Contains(t, state.InvestDebate.BearHistory, "downside")
	assert.Equal(t, "Bear Analyst: the downside case", state.InvestDebate.CurrentResponse)

	// Recalled lessons made it into both prompts.
	prompts := engine.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "Past Trading Lessons")
	assert.Contains(t, prompts[0], "do not chase extended moves")

	// The bear saw the bull's argument.
	assert.Contains(t, prompts[1], "Bull Analyst: the upside case")
}

func TestDebateWithoutMemory(t *testing.T) {
	engine := mock.NewEngine("case made")
	state := newTestState()

	bull := NewBullResearcher(engine, nil, 2)
	require.NoError(t, bull.Debate(context.Background(), state))

	prompts := engine.Prompts()
	require.Len(t, prompts, 1)
	assert.NotContains(t, prompts[0], "Past Trading Lessons")
}

func TestResearchManagerDecide(t *testing.T) {
	engine := mock.NewEngine("**Decision**: BUY\n**Winner**: Bull")
	state := newTestState()
	state.InvestDebate.History = "\nBull Analyst: up\nBear Analyst: down"

	manager := NewResearchManager(engine, newTestMemory(t), 2)
	require.NoError(t, manager.Decide(context.Background(), state))

	assert.Contains(t, state.InvestmentPlan, "**Winner**: Bull")
	assert.Equal(t, state.InvestmentPlan, state.InvestDebate.JudgeDecision)

	prompts := engine.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Bull Analyst: up")
	assert.Contains(t, prompts[0], "Do NOT default to HOLD")
}

func TestTraderPlan(t *testing.T) {
	engine := mock.NewEngine("**Action**: BUY\nFINAL TRANSACTION PROPOSAL: **BUY**")
	state := newTestState()
	state.InvestmentPlan = "**Decision**: BUY"

	trader := NewTrader(engine, newTestMemory(t), 2)
	require.NoError(t, trader.Plan(context.Background(), state))

	assert.Contains(t, state.TraderPlan, "FINAL TRANSACTION PROPOSAL")

	prompts := engine.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "tailored for BTC")
	assert.Contains(t, prompts[0], "Proposed Investment Plan: **Decision**: BUY")
}

func TestRiskDebateRotation(t *testing.T) {
	engine := mock.NewEngine("press the edge", "protect capital", "split the difference")
	state := newTestState()
	state.TraderPlan = "**Action**: BUY"
	ctx := context.Background()

	require.NoError(t, NewAggressiveDebator(engine).Respond(ctx, state))
	require.NoError(t, NewConservativeDebator(engine).Respond(ctx, state))
	require.NoError(t, NewNeutralDebator(engine).Respond(ctx, state))

	rd := state.RiskDebate
	assert.Equal(t, 3, rd.Count)
	assert.Equal(t, speakerNeutral, rd.LatestSpeaker)
	assert.Contains(t, rd.History, "Aggressive Analyst: press the edge")
	assert.Contains(t, rd.History, "Conservative Analyst: protect capital")
	assert.Contains(t, rd.History, "Neutral Analyst: split the difference")
	assert.Equal(t, "Aggressive Analyst: press the edge", rd.CurrentAggressive)

	// Later speakers see the earlier responses.
	prompts := engine.Prompts()
	require.Len(t, prompts, 3)
	assert.Contains(t, prompts[1], "Aggressive said: Aggressive Analyst: press the edge")
	assert.Contains(t, prompts[2], "Conservative said: Conservative Analyst: protect capital")
}

func TestRiskManagerAcceptsCleanVerdict(t *testing.T) {
	verdict := "**DECISION**: BUY\n**Confidence**: 80\n**Entry**: 100\n**Stop-loss**: 95\n" +
		"**Target 1**: 110\n**Target 2**: 120\n**Lessons applied**: applied the squeeze lesson"
	engine := mock.NewEngine(verdict)
	state := newTestState()
	state.TraderPlan = "**Action**: BUY"
	state.RiskDebate.History = "\nAggressive Analyst: go"

	manager := NewRiskManager(engine, nil, 2)
	require.NoError(t, manager.Decide(context.Background(), state))

	assert.Equal(t, verdict, state.FinalDecision)
	assert.Equal(t, "Judge", state.RiskDebate.LatestSpeaker)
	assert.Len(t, engine.Prompts(), 1)
}

func TestRiskManagerRefinesInvalidVerdict(t *testing.T) {
	bad := "**DECISION**: BUY\n**Confidence**: 80\n**Entry**: 100\n**Stop-loss**: 110\n" +
		"**Target 1**: 120\n**Target 2**: 130\n**Lessons applied**: none needed"
	good := "**DECISION**: BUY\n**Confidence**: 70\n**Entry**: 100\n**Stop-loss**: 95\n" +
		"**Target 1**: 120\n**Target 2**: 130\n**Lessons applied**: none needed"
	engine := mock.NewEngine(bad, good)
	state := newTestState()
	state.TraderPlan = "**Action**: BUY"

	manager := NewRiskManager(engine, nil, 2)
	require.NoError(t, manager.Decide(context.Background(), state))

	assert.Equal(t, good, state.FinalDecision)

	prompts := engine.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "ISSUES FOUND")
	assert.Contains(t, prompts[1], "should be below Entry")
}

func TestDevilsAdvocate(t *testing.T) {
	rd := &RiskDebateState{
		CurrentAggressive:   "buy the dip, upside is huge, go long",
		CurrentConservative: "still buy but smaller",
		CurrentNeutral:      "lean long on balance",
	}
	assert.Contains(t, devilsAdvocate(rd), "bull trap")

	rd = &RiskDebateState{
		CurrentAggressive:   "short it, downside ahead",
		CurrentConservative: "sell everything, more downside",
		CurrentNeutral:      "sell into strength",
	}
	assert.Contains(t, devilsAdvocate(rd), "capitulation bottom")

	assert.Empty(t, devilsAdvocate(&RiskDebateState{
		CurrentAggressive:   "buy upside",
		CurrentConservative: "sell downside",
	}))
}
