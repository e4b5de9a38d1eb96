// Package agents implements the debate pipeline: bull and bear researchers
// argue over the analyst reports, managers judge, a trader turns the verdict
// into a plan, and three risk analysts stress it before the final call.
// Every stage shares one State value that accumulates the conversation.
package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bensonmaxai/TradingAgents/pkg/mem/situation"
)

// Market types steering constraints and valid actions.
const (
	MarketCrypto = "crypto"
	MarketUS     = "us"
	MarketTW     = "tw"
)

// Memory is the slice of the situation store the agents need: recall only.
// Writing lessons back happens after outcomes are known, not mid-debate.
type Memory interface {
	Retrieve(ctx context.Context, current string, k int, opts situation.QueryOptions) ([]situation.Match, error)
}

// InvestDebateState tracks the bull/bear exchange.
type InvestDebateState struct {
	History         string
	BullHistory     string
	BearHistory     string
	CurrentResponse string
	JudgeDecision   string
	Count           int
}

// RiskDebateState tracks the three-way risk exchange.
type RiskDebateState struct {
	History             string
	AggressiveHistory   string
	ConservativeHistory string
	NeutralHistory      string
	LatestSpeaker       string
	CurrentAggressive   string
	CurrentConservative string
	CurrentNeutral      string
	JudgeDecision       string
	Count               int
}

// State carries one decision cycle through the pipeline.
type State struct {
	Company    string
	TradeDate  string // YYYY-MM-DD
	MarketType string

	// SuggestedDirection locks the trade direction ("long", "short", or
	// empty) when an upstream screener has already committed.
	SuggestedDirection string

	// Analyst reports feeding the debate.
	MarketReport       string
	SentimentReport    string
	NewsReport         string
	FundamentalsReport string

	InvestDebate   InvestDebateState
	InvestmentPlan string
	TraderPlan     string
	RiskDebate     RiskDebateState
	FinalDecision  string

	// Signal is the extracted verdict (BUY, SELL, HOLD, ...).
	Signal string
}

// NewState starts a decision cycle for one company and trading day.
func NewState(company, tradeDate, marketType string) *State {
	if marketType == "" {
		marketType = MarketCrypto
	}
	return &State{
		Company:    company,
		TradeDate:  tradeDate,
		MarketType: marketType,
	}
}

// Situation joins the four analyst reports into the retrieval query every
// agent uses to recall past lessons.
func (s *State) Situation() string {
	return s.MarketReport + "\n\n" + s.SentimentReport + "\n\n" +
		s.NewsReport + "\n\n" + s.FundamentalsReport
}

// ReferenceDate parses the trade date for recency-weighted recall. A
// malformed date returns the zero time, which disables time weighting.
func (s *State) ReferenceDate() time.Time {
	day, err := time.Parse("2006-01-02", s.TradeDate)
	if err != nil {
		return time.Time{}
	}
	return day
}

// ValidActions lists the decisions the market type permits.
func ValidActions(marketType string) string {
	if marketType == MarketCrypto {
		return "BUY, SELL, HOLD, CLOSE_LONG, or CLOSE_SHORT"
	}
	return "BUY, SELL, or HOLD"
}

// MaxStopLossPct is the widest stop the risk manager accepts, as a percent
// of entry. Equities run tighter stops than crypto.
func MaxStopLossPct(marketType string) float64 {
	if marketType == MarketUS || marketType == MarketTW {
		return 8.0
	}
	return 20.0
}

// MarketContext describes market-specific mechanics for the prompts.
func MarketContext(marketType string) string {
	switch marketType {
	case MarketUS:
		return "Market context: US equities. Cash market, long-only unless stated; " +
			"regular session liquidity; earnings and Fed events drive gaps."
	case MarketTW:
		return "Market context: Taiwan equities. Cash market with daily price limits; " +
			"watch foreign institutional flows and TSMC-led index moves."
	default:
		return "Market context: crypto perpetuals. 24/7 trading, high volatility, " +
			"both long and short positions available; funding rates matter."
	}
}

// SignalConstraints states the allowed actions and any locked direction for
// the judging prompts.
func SignalConstraints(marketType, suggestedDirection string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Valid decisions: %s.", ValidActions(marketType))
	switch suggestedDirection {
	case "long":
		b.WriteString(" Direction is locked LONG by the screener: do not output SELL or short entries.")
	case "short":
		b.WriteString(" Direction is locked SHORT by the screener: do not output BUY or long entries.")
	}
	fmt.Fprintf(&b, " Stop-loss must stay within %.0f%% of entry.", MaxStopLossPct(marketType))
	return b.String()
}

// recallLessons retrieves up to k past recommendations for the situation
// and formats them for prompt injection. Empty when nothing is recalled or
// the memory is unavailable.
func recallLessons(ctx context.Context, memory Memory, current string, k int, reference time.Time) string {
	if memory == nil {
		return ""
	}
	matches, err := memory.Retrieve(ctx, current, k, situation.QueryOptions{ReferenceDate: reference})
	if err != nil || len(matches) == 0 {
		return ""
	}

	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m.Recommendation)
		b.WriteString("\n\n")
	}
	return b.String()
}
