// Package dataflows fetches the external market data the analysts cite:
// earnings calendars and rates from Financial Modeling Prep, macro series
// from FRED, and live news through the x.ai search API. Every provider
// returns report text ready to drop into a prompt.
package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bensonmaxai/TradingAgents/pkg/log"
)

// DefaultFMPBaseURL is the Financial Modeling Prep stable API root.
const DefaultFMPBaseURL = "https://financialmodelingprep.com/stable"

// FMPConfig holds the configuration for the FMP client.
type FMPConfig struct {
	// APIKey authenticates every request.
	APIKey string
	// BaseURL overrides the API root (for testing).
	BaseURL string
	// Timeout bounds each HTTP call (default 10s).
	Timeout time.Duration
}

// FMPClient fetches earnings calendars, treasury rates, and quotes.
type FMPClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewFMPClient creates an FMP client.
func NewFMPClient(cfg FMPConfig) *FMPClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultFMPBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &FMPClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type earningsEvent struct {
	Symbol           string   `json:"symbol"`
	Date             string   `json:"date"`
	EPSEstimated     *float64 `json:"epsEstimated"`
	EPSActual        *float64 `json:"epsActual"`
	RevenueEstimated *float64 `json:"revenueEstimated"`
	RevenueActual    *float64 `json:"revenueActual"`
}

type treasuryRates struct {
	Date   string  `json:"date"`
	Year2  float64 `json:"year2"`
	Year5  float64 `json:"year5"`
	Year10 float64 `json:"year10"`
	Year30 float64 `json:"year30"`
}

// Quote is a real-time price snapshot.
type Quote struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	ChangePercentage float64 `json:"changePercentage"`
	Volume           int64   `json:"volume"`
	MarketCap        float64 `json:"marketCap"`
}

func (c *FMPClient) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("fmp: API key not configured")
	}

	params.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("fmp: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fmp: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fmp: %s returned %d: %s", endpoint, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("fmp: decode %s: %w", endpoint, err)
	}
	return nil
}

// EarningsCalendar returns a formatted earnings calendar between two dates
// (inclusive, YYYY-MM-DD), capped at 30 rows.
func (c *FMPClient) EarningsCalendar(ctx context.Context, fromDate, toDate string) (string, error) {
	var events []earningsEvent
	params := url.Values{"from": {fromDate}, "to": {toDate}}
	if err := c.get(ctx, "earnings-calendar", params, &events); err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "", fmt.Errorf("fmp: no earnings between %s and %s", fromDate, toDate)
	}

	if len(events) > 30 {
		events = events[:30]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Earnings Calendar (%s to %s):\n", fromDate, toDate)
	for _, e := range events {
		line := fmt.Sprintf("- **%s %s**: ", e.Date, e.Symbol)
		if e.EPSEstimated != nil {
			line += fmt.Sprintf("EPS est:%.2f", *e.EPSEstimated)
			if e.EPSActual != nil {
				surprise := 0.0
				if *e.EPSEstimated != 0 {
					surprise = (*e.EPSActual - *e.EPSEstimated) / math.Abs(*e.EPSEstimated) * 100
				}
				line += fmt.Sprintf(" -> act:%.2f (%+.1f%%)", *e.EPSActual, surprise)
			}
		} else {
			line += "EPS est:n/a"
		}
		if e.RevenueEstimated != nil {
			line += fmt.Sprintf(" | Rev est:$%.1fB", *e.RevenueEstimated/1e9)
			if e.RevenueActual != nil {
				line += fmt.Sprintf(" -> act:$%.1fB", *e.RevenueActual/1e9)
			}
		}
		b.WriteString(line + "\n")
	}
	return b.String(), nil
}

// TreasuryRates returns recent treasury rates with the 2Y-10Y spread, which
// flips negative when the curve inverts.
func (c *FMPClient) TreasuryRates(ctx context.Context, lookbackDays int) (string, error) {
	if lookbackDays <= 0 {
		lookbackDays = 14
	}
	now := time.Now().UTC()
	params := url.Values{
		"from": {now.AddDate(0, 0, -lookbackDays).Format("2006-01-02")},
		"to":   {now.Format("2006-01-02")},
	}

	var rates []treasuryRates
	if err := c.get(ctx, "treasury-rates", params, &rates); err != nil {
		return "", err
	}
	if len(rates) == 0 {
		return "", fmt.Errorf("fmp: no treasury rates returned")
	}

	var b strings.Builder
	b.WriteString("## US Treasury Rates:\n")
	show := rates
	if len(show) > 5 {
		show = show[:5]
	}
	for _, r := range show {
		fmt.Fprintf(&b, "- %s: 2Y=%.2f%% 5Y=%.2f%% 10Y=%.2f%% 30Y=%.2f%%\n",
			r.Date, r.Year2, r.Year5, r.Year10, r.Year30)
	}

	latest := rates[0]
	spread := latest.Year10 - latest.Year2
	status := "(normal)"
	if spread < 0 {
		status = "(inverted - recession signal)"
	}
	fmt.Fprintf(&b, "\n**2Y-10Y spread: %+.2f%%** %s\n", spread, status)

	return b.String(), nil
}

// GetQuote returns a real-time quote for the symbol.
func (c *FMPClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var quotes []Quote
	if err := c.get(ctx, "quote", url.Values{"symbol": {symbol}}, &quotes); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("fmp: no quote for %s", symbol)
	}
	return &quotes[0], nil
}

// EarningsAlert reports whether the ticker announces earnings within the
// next daysAhead days. Returns an empty string when nothing is scheduled.
func (c *FMPClient) EarningsAlert(ctx context.Context, ticker string, daysAhead int) (string, error) {
	if daysAhead <= 0 {
		daysAhead = 30
	}
	now := time.Now().UTC()
	params := url.Values{
		"from": {now.Format("2006-01-02")},
		"to":   {now.AddDate(0, 0, daysAhead).Format("2006-01-02")},
	}

	var events []earningsEvent
	if err := c.get(ctx, "earnings-calendar", params, &events); err != nil {
		return "", err
	}

	// Exchange suffixes like .TW never appear in the calendar feed.
	clean := strings.ToUpper(ticker)
	if i := strings.IndexByte(clean, '.'); i > 0 {
		clean = clean[:i]
	}

	for _, e := range events {
		if strings.ToUpper(e.Symbol) == clean {
			eps := "n/a"
			if e.EPSEstimated != nil {
				eps = fmt.Sprintf("%.2f", *e.EPSEstimated)
			}
			return fmt.Sprintf("EARNINGS ALERT: %s reports on %s (EPS est: %s)", ticker, e.Date, eps), nil
		}
	}
	return "", nil
}

// MacroContext combines treasury rates with the coming week's earnings
// calendar. Providers that fail are skipped rather than failing the whole
// report.
func (c *FMPClient) MacroContext(ctx context.Context, currDate string) string {
	var parts []string

	rates, err := c.TreasuryRates(ctx, 14)
	if err != nil {
		log.DebugContext(ctx, "Treasury rates unavailable", "error", err)
	} else {
		parts = append(parts, rates)
	}

	if day, err := time.Parse("2006-01-02", currDate); err == nil {
		calendar, err := c.EarningsCalendar(ctx, currDate, day.AddDate(0, 0, 7).Format("2006-01-02"))
		if err != nil {
			log.DebugContext(ctx, "Earnings calendar unavailable", "error", err)
		} else {
			parts = append(parts, calendar)
		}
	}

	if len(parts) == 0 {
		return "Macro context: FMP API unavailable"
	}
	return strings.Join(parts, "\n\n")
}
