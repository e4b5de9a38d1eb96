package reflection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bensonmaxai/TradingAgents/pkg/agents"
	pkgerrors "github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/reasoning/adapters/mock"
)

func completedState() *agents.State {
	state := agents.NewState("BTC", "2026-08-24", agents.MarketCrypto)
	state.MarketReport = "bitcoin rejected at range high on declining volume"
	state.FundamentalsReport = "exchange reserves rising"
	state.InvestDebate.BullHistory = "Bull Analyst: breakout imminent"
	state.InvestDebate.BearHistory = "Bear Analyst: distribution pattern"
	state.InvestDebate.JudgeDecision = "**Decision**: BUY"
	state.TraderPlan = "FINAL TRANSACTION PROPOSAL: **BUY**"
	state.RiskDebate.JudgeDecision = "**DECISION**: BUY"
	state.FinalDecision = "**DECISION**: BUY"
	return state
}

func TestNewReflectorValidation(t *testing.T) {
	_, err := NewReflector(nil, Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidConfig)

	r, err := NewReflector(mock.NewEngine(), Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), r.config)
}

func TestLessonsPerRole(t *testing.T) {
	engine := mock.NewEngine(
		"Lesson: bull one", "Lesson: bear one", "Lesson: trader one",
		"Lesson: judge one", "Lesson: risk one")
	r, err := NewReflector(engine, DefaultConfig())
	require.NoError(t, err)

	lessons, err := r.Lessons(context.Background(), completedState(), Outcome{
		ReturnPct: -4.2,
		Summary:   "Stopped out two days later.",
	})
	require.NoError(t, err)
	require.Len(t, lessons, 5)

	roles := make([]string, 0, len(lessons))
	for _, lesson := range lessons {
		roles = append(roles, lesson.Role)
		// The trade date tag drives recency weighting on later retrievals.
		assert.Contains(t, lesson.Pair.Situation, "(2026-08-24)")
		assert.Contains(t, lesson.Pair.Situation, "rejected at range high")
	}
	assert.Equal(t, Roles(), roles)
	assert.Equal(t, "Lesson: trader one", lessons[2].Pair.Recommendation)

	// Each prompt carries the outcome and the role's own transcript.
	prompts := engine.Prompts()
	require.Len(t, prompts, 5)
	assert.Contains(t, prompts[0], "LOSS (-4.20% return)")
	assert.Contains(t, prompts[0], "Stopped out two days later.")
	assert.Contains(t, prompts[0], "breakout imminent")
	assert.Contains(t, prompts[1], "distribution pattern")
	assert.NotContains(t, prompts[1], "breakout imminent")
}

func TestLessonsSkipSilentRoles(t *testing.T) {
	engine := mock.NewEngine("Lesson: bull only")
	r, err := NewReflector(engine, DefaultConfig())
	require.NoError(t, err)

	state := completedState()
	state.InvestDebate.BearHistory = ""
	state.InvestDebate.JudgeDecision = ""
	state.TraderPlan = ""
	state.RiskDebate.JudgeDecision = ""

	lessons, err := r.Lessons(context.Background(), state, Outcome{ReturnPct: 2.1})
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, RoleBull, lessons[0].Role)
	assert.Contains(t, engine.Prompts()[0], "PROFIT (+2.10% return)")
}

func TestLessonsRequireReports(t *testing.T) {
	r, err := NewReflector(mock.NewEngine(), DefaultConfig())
	require.NoError(t, err)

	_, err = r.Lessons(context.Background(), nil, Outcome{})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)

	state := agents.NewState("BTC", "2026-08-24", agents.MarketCrypto)
	_, err = r.Lessons(context.Background(), state, Outcome{})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}

func TestLessonsPropagateEngineFailure(t *testing.T) {
	engine := mock.NewEngine()
	engine.Err = errors.New("backend down")
	r, err := NewReflector(engine, DefaultConfig())
	require.NoError(t, err)

	_, err = r.Lessons(context.Background(), completedState(), Outcome{ReturnPct: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bull_memory")
}
