package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"intraday-level-lab/internal/config"
	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/engine"
	"intraday-level-lab/internal/feed"
	"intraday-level-lab/internal/idhash"
	"intraday-level-lab/internal/observability"
	"intraday-level-lab/internal/storage"
	"intraday-level-lab/internal/storage/memory"
	"intraday-level-lab/internal/storage/migrations"
	pgstore "intraday-level-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	barsPath := flag.String("bars", "", "CSV file of one-minute bars (required)")
	configPath := flag.String("config", "", "YAML parameter set (defaults apply when empty)")
	runID := flag.String("run-id", "", "Run ID override (derived from inputs when empty)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (or POSTGRES_DSN env)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	persistResult := flag.Bool("persist", false, "Persist trades and day summaries to storage")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Environment defaults for DSNs
	_ = godotenv.Load()
	if *postgresDSN == "" {
		*postgresDSN = os.Getenv("POSTGRES_DSN")
	}

	if *barsPath == "" {
		logger.Fatal("--bars is required")
	}

	// Load parameter set
	configName := "default"
	cfg := domain.DefaultConfig()
	if *configPath != "" {
		var err error
		configName, cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
		}
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Load bars
	bars, err := feed.LoadCSV(*barsPath)
	if err != nil {
		logger.Fatalf("load bars: %v", err)
	}
	logger.Printf("Loaded %d bars from %s", len(bars), *barsPath)

	// Derive the run ID before running so persistence and output agree.
	if *runID == "" {
		*runID = idhash.ComputeRunID(*barsPath, configName,
			bars[0].TimestampMs, bars[len(bars)-1].TimestampMs)
	}

	// Run simulation
	logger.Printf("Running backtest: run=%s config=%s", *runID, configName)
	result, err := engine.New(engine.Options{
		Config: cfg,
		RunID:  *runID,
		Logger: logger,
	}).Run(bars)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}
	observability.RecordRunOutcome(observability.RunOutcome{
		Trades:        result.Trades,
		Days:          result.Days,
		BarsReplayed:  result.Bars,
		BarsSkipped:   result.Skipped,
		OrdersPlaced:  result.OrdersPlaced,
		OrdersFilled:  result.OrdersFilled,
		OrdersExpired: result.OrdersExpired,
	})

	// Persist if requested
	if *persistResult {
		if err := persist(ctx, logger, result, *postgresDSN, *useMemory); err != nil {
			logger.Fatalf("persist: %v", err)
		}
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(result)
	}
}

// persist writes the run output through the trade and day-summary stores.
func persist(ctx context.Context, logger *log.Logger, result *engine.Result, postgresDSN string, useMemory bool) error {
	var tradeStore storage.TradeStore = memory.NewTradeStore()
	var dayStore storage.DaySummaryStore = memory.NewDaySummaryStore()

	if !useMemory {
		if postgresDSN == "" {
			return fmt.Errorf("--postgres-dsn is required to persist (use --use-memory to skip)")
		}
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		tradeStore = pgstore.NewTradeStore(pool)
		dayStore = pgstore.NewDaySummaryStore(pool)
	}

	trades := make([]*domain.Trade, len(result.Trades))
	for i := range result.Trades {
		trades[i] = &result.Trades[i]
	}
	if err := tradeStore.InsertBulk(ctx, trades); err != nil {
		return fmt.Errorf("store trades: %w", err)
	}

	days := make([]*domain.DaySummary, len(result.Days))
	for i := range result.Days {
		days[i] = &result.Days[i]
	}
	if err := dayStore.InsertBulk(ctx, days); err != nil {
		return fmt.Errorf("store day summaries: %w", err)
	}

	logger.Printf("Persisted %d trades, %d day summaries", len(trades), len(days))
	return nil
}

// printResult outputs a human-readable run summary.
func printResult(r *engine.Result) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Run ID:           %s\n", r.RunID)
	fmt.Printf("Bars Replayed:    %d (skipped %d non-primary)\n", r.Bars, r.Skipped)
	fmt.Println()

	s := r.Stats
	fmt.Println("Trades:")
	fmt.Printf("  Total:          %d\n", s.Trades)
	fmt.Printf("  Wins:           %d\n", s.Wins)
	fmt.Printf("  Losses:         %d\n", s.Losses)
	fmt.Printf("  Scratches:      %d\n", s.Scratches)
	fmt.Printf("  Win Rate:       %.2f%%\n", s.WinRate*100)
	fmt.Println()

	fmt.Println("PnL (points):")
	fmt.Printf("  Net:            %.2f\n", s.NetPnL)
	fmt.Printf("  Gross Profit:   %.2f\n", s.GrossProfit)
	fmt.Printf("  Gross Loss:     %.2f\n", s.GrossLoss)
	fmt.Printf("  Profit Factor:  %.2f\n", s.ProfitFactor)
	fmt.Println()

	fmt.Println("Days:")
	fmt.Printf("  Trading Days:   %d\n", s.TradingDays)
	fmt.Printf("  Winning:        %d\n", s.WinningDays)
	fmt.Printf("  Losing:         %d\n", s.LosingDays)
	fmt.Printf("  Target Hit:     %d\n", s.TargetDays)

	if len(s.ByExitReason) > 0 {
		fmt.Println()
		fmt.Println("Exit Reasons:")
		for _, reason := range []string{
			domain.ExitReasonTarget, domain.ExitReasonStop, domain.ExitReasonBreakeven,
			domain.ExitReasonStepped, domain.ExitReasonTrailing, domain.ExitReasonTime,
			domain.ExitReasonForced, domain.ExitReasonRollover, domain.ExitReasonGapStop,
		} {
			if g, ok := s.ByExitReason[reason]; ok {
				fmt.Printf("  %-10s %4d trades  %8.2f pts\n", reason, g.Count, g.PnL)
			}
		}
	}
}
