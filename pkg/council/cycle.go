package council

import (
	"context"
	"fmt"
	"time"

	"github.com/bensonmaxai/TradingAgents/pkg/agents"
	"github.com/bensonmaxai/TradingAgents/pkg/decisions"
	"github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/journal"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
	"github.com/bensonmaxai/TradingAgents/pkg/mem/situation"
	"github.com/bensonmaxai/TradingAgents/pkg/reflection"
)

// newsLookbackDays is how far back ticker news is pulled when reports are
// fetched rather than supplied.
const newsLookbackDays = 7

// RunDecisionCycle drives one State through the whole pipeline: bull/bear
// rounds, the research manager's ruling, the trader's plan, the risk rounds,
// the risk manager's final call, and signal extraction. The decision is
// appended to the decision log when one is configured.
func (c *Council) RunDecisionCycle(ctx context.Context, state *agents.State) error {
	if state == nil || state.Company == "" || state.TradeDate == "" {
		return errors.Wrap(errors.ErrInvalidInput, "decision cycle needs a company and a trade date")
	}

	matches := c.cfg.Memory.MatchesPerQuery

	bull := agents.NewBullResearcher(c.quick, c.memories[reflection.RoleBull], matches)
	bear := agents.NewBearResearcher(c.quick, c.memories[reflection.RoleBear], matches)
	for i := 0; i < c.rounds(c.cfg.Debate.InvestRounds); i++ {
		if err := bull.Debate(ctx, state); err != nil {
			return err
		}
		if err := bear.Debate(ctx, state); err != nil {
			return err
		}
	}

	if err := agents.NewResearchManager(c.deep, c.memories[reflection.RoleInvestJudge], matches).Decide(ctx, state); err != nil {
		return err
	}

	if err := agents.NewTrader(c.quick, c.memories[reflection.RoleTrader], matches).Plan(ctx, state); err != nil {
		return err
	}

	debators := []*agents.RiskDebator{
		agents.NewAggressiveDebator(c.quick),
		agents.NewConservativeDebator(c.quick),
		agents.NewNeutralDebator(c.quick),
	}
	for i := 0; i < c.rounds(c.cfg.Debate.RiskRounds); i++ {
		for _, d := range debators {
			if err := d.Respond(ctx, state); err != nil {
				return err
			}
		}
	}

	if err := agents.NewRiskManager(c.deep, c.memories[reflection.RoleRiskJudge], matches).Decide(ctx, state); err != nil {
		return err
	}

	signal, err := agents.ExtractDecision(ctx, c.quick, state.FinalDecision, state.MarketType)
	if err != nil {
		return err
	}
	state.Signal = signal

	if c.decisions != nil {
		if _, err := c.decisions.Record(ctx, decisions.Decision{
			Symbol:    state.Company,
			TradeDate: state.TradeDate,
			Action:    state.Signal,
			Rationale: state.FinalDecision,
		}); err != nil {
			return fmt.Errorf("recording decision: %w", err)
		}
	}

	log.InfoContext(ctx, "Decision cycle complete",
		"company", state.Company, "trade_date", state.TradeDate, "signal", state.Signal)

	return nil
}

func (c *Council) rounds(configured int) int {
	if configured <= 0 {
		return 1
	}
	return configured
}

// PrepareReports fills any analyst report the caller left empty from the
// configured data providers. Providers without credentials are skipped, so a
// partially configured council still produces a usable state.
func (c *Council) PrepareReports(ctx context.Context, state *agents.State) {
	if state == nil {
		return
	}

	if state.NewsReport == "" && c.grok != nil {
		start := newsWindowStart(state.TradeDate)
		news, err := c.grok.TickerNews(ctx, state.Company, start, state.TradeDate)
		if err != nil {
			log.WarnContext(ctx, "Ticker news unavailable", "company", state.Company, "error", err)
		} else {
			state.NewsReport = news
		}
	}

	if state.MarketReport == "" && c.fred != nil {
		dashboard, err := c.fred.MacroDashboard(ctx)
		if err != nil {
			log.WarnContext(ctx, "Macro dashboard unavailable", "error", err)
		} else {
			state.MarketReport = dashboard
		}
	}

	if state.FundamentalsReport == "" && c.fmp != nil {
		report := c.fmp.MacroContext(ctx, state.TradeDate)
		if alert, err := c.fmp.EarningsAlert(ctx, state.Company, 14); err == nil && alert != "" {
			report = alert + "\n" + report
		}
		state.FundamentalsReport = report
	}
}

// newsWindowStart backdates the news search window from the trade date.
func newsWindowStart(tradeDate string) string {
	day, err := time.Parse("2006-01-02", tradeDate)
	if err != nil {
		return tradeDate
	}
	return day.AddDate(0, 0, -newsLookbackDays).Format("2006-01-02")
}

// RecordOutcome distills per-role lessons from a completed cycle and its
// realized result, inserts them into the role memories, and journals them so
// they survive restarts.
func (c *Council) RecordOutcome(ctx context.Context, state *agents.State, outcome reflection.Outcome) error {
	lessons, err := c.reflector.Lessons(ctx, state, outcome)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, lesson := range lessons {
		store, ok := c.memories[lesson.Role]
		if !ok {
			continue
		}
		store.AddSituations([]situation.Pair{lesson.Pair})

		if c.journal != nil {
			err := c.journal.Append(ctx, lesson.Role, []journal.Lesson{{
				Situation:      lesson.Pair.Situation,
				Recommendation: lesson.Pair.Recommendation,
				RecordedAt:     now,
			}})
			if err != nil {
				return fmt.Errorf("journaling %s: %w", lesson.Role, err)
			}
		}
	}

	log.DebugContext(ctx, "Outcome recorded",
		"company", state.Company, "lessons", len(lessons), "return_pct", outcome.ReturnPct)

	return nil
}

// AddLessons inserts hand-written lessons into one role's memory and
// journals them alongside the reflected ones.
func (c *Council) AddLessons(ctx context.Context, role string, pairs []situation.Pair) error {
	store, ok := c.memories[role]
	if !ok {
		return errors.Wrap(errors.ErrNotFound, "unknown memory role %q", role)
	}
	store.AddSituations(pairs)

	if c.journal != nil {
		now := time.Now().UTC()
		lessons := make([]journal.Lesson, len(pairs))
		for i, p := range pairs {
			lessons[i] = journal.Lesson{
				Situation:      p.Situation,
				Recommendation: p.Recommendation,
				RecordedAt:     now,
			}
		}
		if err := c.journal.Append(ctx, role, lessons); err != nil {
			return fmt.Errorf("journaling %s: %w", role, err)
		}
	}
	return nil
}

// SetPlaybook pins durable guidance for one role, replacing any previous
// playbook, and journals the pinned entries.
func (c *Council) SetPlaybook(ctx context.Context, role string, pairs []situation.Pair) error {
	store, ok := c.memories[role]
	if !ok {
		return errors.Wrap(errors.ErrNotFound, "unknown memory role %q", role)
	}
	store.SetPlaybook(pairs)

	if c.journal != nil {
		now := time.Now().UTC()
		lessons := make([]journal.Lesson, len(pairs))
		for i, p := range pairs {
			lessons[i] = journal.Lesson{
				Situation:      p.Situation,
				Recommendation: p.Recommendation,
				Pinned:         true,
				RecordedAt:     now,
			}
		}
		if err := c.journal.Append(ctx, role, lessons); err != nil {
			return fmt.Errorf("journaling %s playbook: %w", role, err)
		}
	}
	return nil
}
