package council

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bensonmaxai/TradingAgents/pkg/agents"
	"github.com/bensonmaxai/TradingAgents/pkg/config"
	"github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/mem/situation"
	"github.com/bensonmaxai/TradingAgents/pkg/reasoning/adapters/mock"
	"github.com/bensonmaxai/TradingAgents/pkg/reflection"
)

const cleanVerdict = "**DECISION**: BUY\n**Confidence**: 80\n**Entry**: 100\n**Stop-loss**: 95\n" +
	"**Target 1**: 110\n**Target 2**: 120\n**Lessons applied**: none"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.JournalPath = filepath.Join(t.TempDir(), "lessons.db")
	cfg.Storage.Decisions.Driver = "sqlite3"
	cfg.Storage.Decisions.DSN = filepath.Join(t.TempDir(), "decisions.db")
	return cfg
}

func cycleState() *agents.State {
	state := agents.NewState("BTC", "2026-08-24", agents.MarketCrypto)
	state.MarketReport = "price reclaimed the range midpoint"
	state.SentimentReport = "funding neutral"
	state.NewsReport = "ETF inflows steady"
	state.FundamentalsReport = "reserves falling"
	return state
}

func TestNewFromConfigDefaults(t *testing.T) {
	c, err := NewFromConfig(config.Default())
	require.NoError(t, err)
	defer c.Close()

	for _, role := range reflection.Roles() {
		store, err := c.Memory(role)
		require.NoError(t, err)
		assert.Equal(t, role, store.Name())
	}

	_, err = c.Memory("unknown_memory")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	assert.Nil(t, c.Decisions())
}

func TestNewRejectsMissingPieces(t *testing.T) {
	_, err := NewFromConfig(nil)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	_, err = New(config.Default(), nil, nil, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	cfg := config.Default()
	cfg.Reasoning.Provider = "anthropic"
	_, err = NewFromConfig(cfg)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestRunDecisionCycle(t *testing.T) {
	quick := mock.NewEngine(
		"bull argues up", "bear argues down",
		"FINAL TRANSACTION PROPOSAL: **BUY**",
		"press the edge", "protect capital", "stay balanced",
		"BUY")
	deep := mock.NewEngine("**Decision**: BUY, bull wins", cleanVerdict)

	c, err := New(testConfig(t), quick, deep, nil)
	require.NoError(t, err)
	defer c.Close()

	state := cycleState()
	require.NoError(t, c.RunDecisionCycle(context.Background(), state))

	assert.Equal(t, 2, state.InvestDebate.Count)
	assert.Equal(t, 3, state.RiskDebate.Count)
	assert.Contains(t, state.InvestmentPlan, "bull wins")
	assert.Contains(t, state.TraderPlan, "FINAL TRANSACTION PROPOSAL")
	assert.Equal(t, cleanVerdict, state.FinalDecision)
	assert.Equal(t, "BUY", state.Signal)

	// The managers ran on the deep engine, everything else on the quick one.
	assert.Len(t, deep.Prompts(), 2)
	assert.Len(t, quick.Prompts(), 7)

	recorded, err := c.Decisions().Recent(context.Background(), "BTC", 5)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "BUY", recorded[0].Action)
	assert.Equal(t, cleanVerdict, recorded[0].Rationale)
}

func TestRunDecisionCycleValidatesState(t *testing.T) {
	c, err := NewFromConfig(config.Default())
	require.NoError(t, err)
	defer c.Close()

	err = c.RunDecisionCycle(context.Background(), agents.NewState("", "", agents.MarketCrypto))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestRecordOutcomeSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	deep := mock.NewEngine(
		"Lesson: bull", "Lesson: bear", "Lesson: trader",
		"Lesson: judge", "Lesson: risk")
	c, err := New(cfg, mock.NewEngine(), deep, nil)
	require.NoError(t, err)

	state := cycleState()
	state.InvestDebate.BullHistory = "Bull Analyst: up"
	state.InvestDebate.BearHistory = "Bear Analyst: down"
	state.InvestDebate.JudgeDecision = "**Decision**: BUY"
	state.TraderPlan = "FINAL TRANSACTION PROPOSAL: **BUY**"
	state.RiskDebate.JudgeDecision = cleanVerdict
	state.FinalDecision = cleanVerdict

	require.NoError(t, c.RecordOutcome(ctx, state, reflection.Outcome{ReturnPct: -2.5}))

	store, err := c.Memory(reflection.RoleBull)
	require.NoError(t, err)
	_, regular := store.Len()
	assert.Equal(t, 1, regular)

	require.NoError(t, c.Close())

	// A fresh council over the same journal replays the lessons.
	reopened, err := New(cfg, mock.NewEngine(), mock.NewEngine(), nil)
	require.NoError(t, err)
	defer reopened.Close()

	for _, role := range reflection.Roles() {
		store, err := reopened.Memory(role)
		require.NoError(t, err)
		_, regular := store.Len()
		assert.Equal(t, 1, regular, role)
	}

	matches, err := mustMemory(t, reopened, reflection.RoleBull).
		Retrieve(ctx, "range midpoint reclaim", 1, situation.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Lesson: bull", matches[0].Recommendation)
}

func TestSetPlaybookPinsAndReplays(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	c, err := New(cfg, mock.NewEngine(), mock.NewEngine(), nil)
	require.NoError(t, err)

	pairs := []situation.Pair{{
		Situation:      "volatility spike with thin liquidity",
		Recommendation: "halve position size before adding risk",
	}}
	require.NoError(t, c.SetPlaybook(ctx, reflection.RoleRiskJudge, pairs))

	err = c.SetPlaybook(ctx, "unknown_memory", pairs)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, c.Close())

	reopened, err := New(cfg, mock.NewEngine(), mock.NewEngine(), nil)
	require.NoError(t, err)
	defer reopened.Close()

	pinned, regular := mustMemory(t, reopened, reflection.RoleRiskJudge).Len()
	assert.Equal(t, 1, pinned)
	assert.Equal(t, 0, regular)
}

func TestPrepareReportsKeepsSuppliedText(t *testing.T) {
	// No provider credentials are configured, so nothing is fetched and the
	// caller-supplied reports stay untouched.
	c, err := NewFromConfig(config.Default())
	require.NoError(t, err)
	defer c.Close()

	state := cycleState()
	c.PrepareReports(context.Background(), state)
	assert.Equal(t, "ETF inflows steady", state.NewsReport)

	empty := agents.NewState("BTC", "2026-08-24", agents.MarketCrypto)
	c.PrepareReports(context.Background(), empty)
	assert.Empty(t, empty.NewsReport)
}

func TestNewsWindowStart(t *testing.T) {
	assert.Equal(t, "2026-08-17", newsWindowStart("2026-08-24"))
	assert.Equal(t, "not-a-date", newsWindowStart("not-a-date"))
}

func mustMemory(t *testing.T, c *Council, role string) *situation.Store {
	t.Helper()
	store, err := c.Memory(role)
	require.NoError(t, err)
	return store
}
