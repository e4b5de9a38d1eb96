// Package reflection turns completed trading decisions into lessons. After
// the realized outcome of a trade is known, each debate role gets a lesson
// distilled from its own contribution, phrased so the situation text can be
// matched against future market conditions.
package reflection

import (
	"context"
	"fmt"
	"strings"

	"github.com/bensonmaxai/TradingAgents/pkg/agents"
	"github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
	"github.com/bensonmaxai/TradingAgents/pkg/mem/situation"
	"github.com/bensonmaxai/TradingAgents/pkg/reasoning"
)

// Memory role names. One situation store exists per role so each debate
// participant recalls only its own past mistakes.
const (
	RoleBull        = "bull_memory"
	RoleBear        = "bear_memory"
	RoleTrader      = "trader_memory"
	RoleInvestJudge = "invest_judge_memory"
	RoleRiskJudge   = "risk_manager_memory"
)

// Roles lists every memory role in pipeline order.
func Roles() []string {
	return []string{RoleBull, RoleBear, RoleTrader, RoleInvestJudge, RoleRiskJudge}
}

// Config contains configuration options for the Reflector.
type Config struct {
	// Temperature for the analysis calls. Lower keeps lessons focused.
	Temperature float64

	// MaxTokens bounds each generated lesson.
	MaxTokens int
}

// DefaultConfig returns the default reflection configuration.
func DefaultConfig() Config {
	return Config{
		Temperature: 0.3,
		MaxTokens:   1024,
	}
}

// Outcome describes what actually happened after the decision was executed.
type Outcome struct {
	// ReturnPct is the realized return of the position in percent.
	// Positive means the decision made money.
	ReturnPct float64

	// Summary is an optional free-form account of how the trade played out
	// (what moved the price, whether stops were hit, and so on).
	Summary string
}

func (o Outcome) describe() string {
	verdict := "LOSS"
	if o.ReturnPct > 0 {
		verdict = "PROFIT"
	} else if o.ReturnPct == 0 {
		verdict = "FLAT"
	}
	out := fmt.Sprintf("Realized outcome: %s (%+.2f%% return).", verdict, o.ReturnPct)
	if o.Summary != "" {
		out += " " + o.Summary
	}
	return out
}

// Lesson is one generated lesson bound to the memory role it belongs to.
type Lesson struct {
	Role string
	Pair situation.Pair
}

// Reflector generates per-role lessons from a finished decision cycle.
type Reflector struct {
	engine reasoning.Engine
	config Config
}

// NewReflector creates a reflector backed by the given reasoning engine.
func NewReflector(engine reasoning.Engine, config Config) (*Reflector, error) {
	if engine == nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "reflection requires a reasoning engine")
	}
	if config.Temperature == 0 && config.MaxTokens == 0 {
		config = DefaultConfig()
	}
	return &Reflector{engine: engine, config: config}, nil
}

// Lessons produces one lesson per role that actually spoke during the cycle.
// The situation text of every lesson carries the trade date in parentheses so
// future retrievals can weight it by age.
func (r *Reflector) Lessons(ctx context.Context, state *agents.State, outcome Outcome) ([]Lesson, error) {
	if state == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "reflection requires a completed state")
	}

	sit := strings.TrimSpace(state.Situation())
	if sit == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "state carries no analyst reports to reflect on")
	}
	if state.TradeDate != "" {
		sit = fmt.Sprintf("(%s) %s", state.TradeDate, sit)
	}

	var lessons []Lesson
	for _, role := range Roles() {
		transcript := roleTranscript(state, role)
		if strings.TrimSpace(transcript) == "" {
			continue
		}

		recommendation, err := r.engine.Process(ctx, r.prompt(state, role, transcript, outcome),
			reasoning.WithTemperature(r.config.Temperature),
			reasoning.WithMaxTokens(r.config.MaxTokens))
		if err != nil {
			return nil, fmt.Errorf("reflection for %s: %w", role, err)
		}

		lessons = append(lessons, Lesson{
			Role: role,
			Pair: situation.Pair{Situation: sit, Recommendation: strings.TrimSpace(recommendation)},
		})
	}

	log.DebugContext(ctx, "Reflection complete",
		"company", state.Company, "trade_date", state.TradeDate, "lessons", len(lessons))

	return lessons, nil
}

func (r *Reflector) prompt(state *agents.State, role, transcript string, outcome Outcome) string {
	return fmt.Sprintf(`You are reviewing a completed trading decision for %s on %s.

%s

The %s contribution during the decision was:
%s

Final decision taken: %s

Write ONE concise lesson (2-3 sentences) this role should remember for similar
future situations. If the outcome was a loss, state what reasoning error to
avoid. If it was a profit, state what worked and under which conditions it
applies. Start with "Lesson:". Do not restate the outcome.`,
		state.Company, state.TradeDate,
		outcome.describe(),
		roleLabel(role), transcript,
		state.FinalDecision)
}

// roleTranscript extracts what a given role said during the cycle. An empty
// transcript means the role never spoke and gets no lesson.
func roleTranscript(state *agents.State, role string) string {
	switch role {
	case RoleBull:
		return state.InvestDebate.BullHistory
	case RoleBear:
		return state.InvestDebate.BearHistory
	case RoleTrader:
		return state.TraderPlan
	case RoleInvestJudge:
		return state.InvestDebate.JudgeDecision
	case RoleRiskJudge:
		return state.RiskDebate.JudgeDecision
	default:
		return ""
	}
}

func roleLabel(role string) string {
	switch role {
	case RoleBull:
		return "bull researcher's"
	case RoleBear:
		return "bear researcher's"
	case RoleTrader:
		return "trader's"
	case RoleInvestJudge:
		return "research manager's"
	case RoleRiskJudge:
		return "risk manager's"
	default:
		return role
	}
}
