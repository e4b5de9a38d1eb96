package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultFREDBaseURL is the FRED observations endpoint.
const DefaultFREDBaseURL = "https://api.stlouisfed.org/fred/series/observations"

// FRED series identifiers for the macro dashboard.
const (
	seriesFedFunds     = "FEDFUNDS"
	seriesCPI          = "CPIAUCSL"
	seriesGDP          = "A191RL1Q225SBEA"
	seriesUnemployment = "UNRATE"
	seriesVIX          = "VIXCLS"
	seriesUSDIndex     = "DTWEXBGS"
	seriesYield10Y     = "DGS10"
	seriesYield2Y      = "DGS2"
)

// FREDConfig holds the configuration for the FRED client.
type FREDConfig struct {
	// APIKey authenticates every request.
	APIKey string
	// BaseURL overrides the API root (for testing).
	BaseURL string
	// Timeout bounds each HTTP call (default 10s).
	Timeout time.Duration
}

// FREDClient fetches macroeconomic series from the St. Louis Fed.
type FREDClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewFREDClient creates a FRED client.
func NewFREDClient(cfg FREDConfig) *FREDClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultFREDBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &FREDClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

func (o observation) float() float64 {
	v, _ := strconv.ParseFloat(o.Value, 64)
	return v
}

// fetchSeries returns the most recent observations of a series, newest
// first. Placeholder values (".") are dropped.
func (c *FREDClient) fetchSeries(ctx context.Context, seriesID string, limit int, units string) ([]observation, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("fred: API key not configured")
	}
	if units == "" {
		units = "lin"
	}

	params := url.Values{
		"series_id":  {seriesID},
		"api_key":    {c.apiKey},
		"file_type":  {"json"},
		"sort_order": {"desc"},
		"limit":      {strconv.Itoa(limit)},
		"units":      {units},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fred: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fred: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fred: %s returned %d: %s", seriesID, resp.StatusCode, body)
	}

	var payload struct {
		Observations []observation `json:"observations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fred: decode %s: %w", seriesID, err)
	}

	out := payload.Observations[:0]
	for _, o := range payload.Observations {
		if o.Value != "." && o.Value != "" {
			out = append(out, o)
		}
	}
	return out, nil
}

// MacroDashboard builds the full macro picture: policy rate and trend,
// inflation, growth, unemployment, volatility, the dollar, and the yield
// curve. Series that fail to load are skipped.
func (c *FREDClient) MacroDashboard(ctx context.Context) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("fred: API key not configured")
	}

	var b strings.Builder
	b.WriteString("## Macro Dashboard (FRED)\n")
	sections := 0

	if fed, err := c.fetchSeries(ctx, seriesFedFunds, 6, ""); err == nil && len(fed) > 0 {
		sections++
		change := ""
		if len(fed) > 1 {
			diff := fed[0].float() - fed[1].float()
			switch {
			case diff < -0.1:
				change = " (cutting)"
			case diff > 0.1:
				change = " (hiking)"
			default:
				change = " (on hold)"
			}
		}
		fmt.Fprintf(&b, "\n**Fed funds rate: %s%%** (%s)%s\n", fed[0].Value, fed[0].Date, change)

		recent := fed
		if len(recent) > 4 {
			recent = recent[:4]
		}
		trend := make([]string, 0, len(recent))
		for i := len(recent) - 1; i >= 0; i-- {
			trend = append(trend, recent[i].Value+"%")
		}
		fmt.Fprintf(&b, "  Trend: %s\n", strings.Join(trend, " -> "))
	}

	if cpi, err := c.fetchSeries(ctx, seriesCPI, 3, "pc1"); err == nil && len(cpi) > 0 {
		sections++
		fmt.Fprintf(&b, "\n**CPI inflation: %.1f%% YoY** (%s)\n", cpi[0].float(), cpi[0].Date)
		if v := cpi[0].float(); v > 3 {
			b.WriteString("  Inflation running hot; expect a hawkish Fed\n")
		} else if v < 2 {
			b.WriteString("  Inflation contained; room to cut\n")
		}
	}

	if gdp, err := c.fetchSeries(ctx, seriesGDP, 4, ""); err == nil && len(gdp) > 0 {
		sections++
		fmt.Fprintf(&b, "\n**GDP growth: %s%%** (%s)\n", gdp[0].Value, gdp[0].Date)
		if gdp[0].float() < 0 {
			b.WriteString("  Economy contracting\n")
		}
	}

	if unemp, err := c.fetchSeries(ctx, seriesUnemployment, 3, ""); err == nil && len(unemp) > 0 {
		sections++
		fmt.Fprintf(&b, "\n**Unemployment: %s%%** (%s)\n", unemp[0].Value, unemp[0].Date)
	}

	if vix, err := c.fetchSeries(ctx, seriesVIX, 5, ""); err == nil && len(vix) > 0 {
		sections++
		fmt.Fprintf(&b, "\n**VIX: %s** (%s) - %s\n", vix[0].Value, vix[0].Date, vixLevel(vix[0].float()))
	}

	if usd, err := c.fetchSeries(ctx, seriesUSDIndex, 3, ""); err == nil && len(usd) > 0 {
		sections++
		fmt.Fprintf(&b, "\n**Dollar index: %s** (%s)\n", usd[0].Value, usd[0].Date)
	}

	y10, err10 := c.fetchSeries(ctx, seriesYield10Y, 1, "")
	y2, err2 := c.fetchSeries(ctx, seriesYield2Y, 1, "")
	if err10 == nil && err2 == nil && len(y10) > 0 && len(y2) > 0 {
		sections++
		spread := y10[0].float() - y2[0].float()
		status := "normal"
		if spread < 0 {
			status = "inverted - recession warning"
		}
		fmt.Fprintf(&b, "\n**Yield curve: 10Y=%s%% - 2Y=%s%% = %+.2f%%** (%s)\n",
			y10[0].Value, y2[0].Value, spread, status)
	}

	if sections == 0 {
		return "", fmt.Errorf("fred: no series available")
	}
	return b.String(), nil
}

// FedContext returns a one-line summary of the policy backdrop: rate
// direction over the last quarter, inflation, and volatility when elevated.
func (c *FREDClient) FedContext(ctx context.Context) string {
	var parts []string

	if fed, err := c.fetchSeries(ctx, seriesFedFunds, 6, ""); err == nil && len(fed) >= 4 {
		change := fed[0].float() - fed[3].float()
		switch {
		case change < -0.3:
			parts = append(parts, fmt.Sprintf("Fed cutting (%s%% -> %s%%)", fed[3].Value, fed[0].Value))
		case change > 0.3:
			parts = append(parts, fmt.Sprintf("Fed hiking (%s%% -> %s%%)", fed[3].Value, fed[0].Value))
		default:
			parts = append(parts, fmt.Sprintf("Fed holding at %s%%", fed[0].Value))
		}
	}

	if cpi, err := c.fetchSeries(ctx, seriesCPI, 2, "pc1"); err == nil && len(cpi) > 0 {
		v := cpi[0].float()
		switch {
		case v > 3:
			parts = append(parts, fmt.Sprintf("inflation hot at %.1f%%", v))
		case v < 2:
			parts = append(parts, fmt.Sprintf("inflation contained at %.1f%%", v))
		default:
			parts = append(parts, fmt.Sprintf("inflation %.1f%%", v))
		}
	}

	if vix, err := c.fetchSeries(ctx, seriesVIX, 1, ""); err == nil && len(vix) > 0 {
		if v := vix[0].float(); v > 25 {
			parts = append(parts, fmt.Sprintf("VIX=%.0f market panic", v))
		} else if v > 20 {
			parts = append(parts, fmt.Sprintf("VIX=%.0f volatility elevated", v))
		}
	}

	return strings.Join(parts, " | ")
}

func vixLevel(v float64) string {
	switch {
	case v < 15:
		return "low volatility"
	case v < 20:
		return "normal"
	case v < 30:
		return "elevated"
	default:
		return "panic"
	}
}
