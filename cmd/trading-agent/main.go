// Command trading-agent runs one full decision cycle for a symbol and prints
// the final verdict and extracted signal. With no configuration file it runs
// on the mock providers, which is only useful for smoke-testing the wiring.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/bensonmaxai/TradingAgents/pkg/agents"
	"github.com/bensonmaxai/TradingAgents/pkg/config"
	"github.com/bensonmaxai/TradingAgents/pkg/council"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	company := flag.String("company", "", "Symbol to decide on (required)")
	tradeDate := flag.String("date", time.Now().UTC().Format("2006-01-02"), "Trade date (YYYY-MM-DD)")
	market := flag.String("market", agents.MarketCrypto, "Market type: crypto, us, or tw")
	direction := flag.String("direction", "", "Locked direction: long, short, or empty")
	flag.Parse()

	// Environment files are optional; real env vars still apply.
	_ = godotenv.Load()

	if *company == "" {
		fmt.Fprintln(os.Stderr, "usage: trading-agent -company SYMBOL [-date YYYY-MM-DD] [-market crypto|us|tw]")
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	log.Setup(cfg.Logging)

	c, err := council.NewFromConfig(cfg)
	if err != nil {
		log.Error("Failed to assemble council", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	ctx := context.Background()

	state := agents.NewState(*company, *tradeDate, *market)
	state.SuggestedDirection = *direction

	c.PrepareReports(ctx, state)

	if err := c.RunDecisionCycle(ctx, state); err != nil {
		log.Error("Decision cycle failed", "company", *company, "error", err)
		os.Exit(1)
	}

	fmt.Printf("=== %s on %s (%s) ===\n\n", state.Company, state.TradeDate, state.MarketType)
	fmt.Println("Investment plan:")
	fmt.Println(state.InvestmentPlan)
	fmt.Println("\nFinal decision:")
	fmt.Println(state.FinalDecision)
	fmt.Printf("\nSignal: %s\n", state.Signal)
}
