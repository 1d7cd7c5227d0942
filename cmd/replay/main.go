package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"intraday-level-lab/internal/config"
	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/engine"
	"intraday-level-lab/internal/feed"
	pgstore "intraday-level-lab/internal/storage/postgres"
	"intraday-level-lab/internal/verification"
)

func main() {
	// Parse flags
	runID := flag.String("run-id", "", "Run ID to verify (required)")
	barsPath := flag.String("bars", "", "CSV file of the run's input bars (required)")
	configPath := flag.String("config", "", "YAML parameter set the run used (defaults when empty)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (or POSTGRES_DSN env)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	_ = godotenv.Load()
	if *postgresDSN == "" {
		*postgresDSN = os.Getenv("POSTGRES_DSN")
	}

	if *runID == "" {
		logger.Fatal("--run-id is required")
	}
	if *barsPath == "" {
		logger.Fatal("--bars is required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	// Load parameter set
	cfg := domain.DefaultConfig()
	if *configPath != "" {
		var err error
		_, cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
		}
	}

	// Load bars
	bars, err := feed.LoadCSV(*barsPath)
	if err != nil {
		logger.Fatalf("load bars: %v", err)
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	verifier := verification.NewReplayVerifier(
		pgstore.NewTradeStore(pool),
		pgstore.NewDaySummaryStore(pool),
	)

	logger.Printf("Verifying run %s against %d bars", *runID, len(bars))
	report, err := verifier.VerifyRun(ctx, *runID, bars, engine.Options{
		Config: cfg,
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		logger.Fatalf("verify: %v", err)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
	} else {
		printReport(report)
	}

	if !report.Match() {
		os.Exit(1)
	}
}

// printReport outputs a human-readable verification summary.
func printReport(r *verification.Report) {
	fmt.Println()
	fmt.Println("=== Replay Verification ===")
	fmt.Printf("Trades Verified:  %d\n", r.TotalTrades)
	fmt.Printf("Matched:          %d\n", r.MatchedTrades)
	fmt.Printf("Divergent:        %d\n", r.DivergentTrades)
	fmt.Printf("Missing:          %d\n", len(r.MissingTrades))
	fmt.Printf("Extra:            %d\n", len(r.ExtraTrades))
	fmt.Printf("Day Divergences:  %d\n", len(r.DayDivergences))

	if r.Match() {
		fmt.Println()
		fmt.Println("Result: MATCH")
		return
	}

	fmt.Println()
	fmt.Println("Result: DIVERGED")
	for _, res := range r.Results {
		if res.Match {
			continue
		}
		fmt.Printf("\nTrade %s:\n", res.TradeID)
		for _, d := range res.Divergences {
			fmt.Printf("  %-14s stored=%v replayed=%v\n", d.Field, d.Expected, d.Actual)
		}
	}
	for _, id := range r.MissingTrades {
		fmt.Printf("\nMissing from replay: %s\n", id)
	}
	for _, id := range r.ExtraTrades {
		fmt.Printf("\nNot in storage: %s\n", id)
	}
	for _, d := range r.DayDivergences {
		fmt.Printf("\nDay %-14s stored=%v replayed=%v\n", d.Field, d.Expected, d.Actual)
	}
}
