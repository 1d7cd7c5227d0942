package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"intraday-level-lab/internal/config"
	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/feed"
	"intraday-level-lab/internal/observability"
	"intraday-level-lab/internal/orchestrator"
	"intraday-level-lab/internal/reporting"
	"intraday-level-lab/internal/storage"
	chstore "intraday-level-lab/internal/storage/clickhouse"
	"intraday-level-lab/internal/storage/memory"
	"intraday-level-lab/internal/storage/migrations"
	pgstore "intraday-level-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	fromStr := flag.String("from", "", "Start of the bar range (RFC3339 or YYYY-MM-DD)")
	toStr := flag.String("to", "", "End of the bar range (RFC3339 or YYYY-MM-DD, defaults to now)")
	configPath := flag.String("config", "", "YAML parameter set (defaults apply when empty)")
	dataset := flag.String("dataset", "bars", "Dataset label, part of the run identity")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (or POSTGRES_DSN env)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (or CLICKHOUSE_DSN env)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage, seeding bars from --bars")
	barsPath := flag.String("bars", "", "CSV file to seed the in-memory bar store (with --use-memory)")

	// Options
	skipVerify := flag.Bool("skip-verify", false, "Skip the replay verification phase")
	outDir := flag.String("out", "", "Directory for report.md, trades.csv and days.csv (skipped when empty)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[pipeline] ", log.LstdFlags)

	_ = godotenv.Load()
	if *postgresDSN == "" {
		*postgresDSN = os.Getenv("POSTGRES_DSN")
	}
	if *clickhouseDSN == "" {
		*clickhouseDSN = os.Getenv("CLICKHOUSE_DSN")
	}

	if !*useMemory {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
		}
		if *clickhouseDSN == "" {
			logger.Fatal("--clickhouse-dsn is required (use --use-memory for in-memory storage)")
		}
	} else if *barsPath == "" {
		logger.Fatal("--bars is required with --use-memory")
	}

	startMs, endMs, err := parseRange(*fromStr, *toStr)
	if err != nil {
		logger.Fatalf("parse range: %v", err)
	}

	// Load parameter set
	configName := "default"
	cfg := domain.DefaultConfig()
	if *configPath != "" {
		configName, cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
		}
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Wire storage
	var barStore storage.BarStore
	var tradeStore storage.TradeStore
	var dayStore storage.DaySummaryStore

	if *useMemory {
		memBars := memory.NewBarStore()
		bars, err := feed.LoadCSV(*barsPath)
		if err != nil {
			logger.Fatalf("load bars: %v", err)
		}
		if err := memBars.InsertBulk(ctx, bars); err != nil {
			logger.Fatalf("seed bars: %v", err)
		}
		logger.Printf("Seeded %d bars from %s", len(bars), *barsPath)
		barStore = memBars
		tradeStore = memory.NewTradeStore()
		dayStore = memory.NewDaySummaryStore()
	} else {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("prepare clickhouse: %v", err)
		}
		defer conn.Close()
		barStore = chstore.NewBarStore(conn)

		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run migrations: %v", err)
		}
		tradeStore = pgstore.NewTradeStore(pool)
		dayStore = pgstore.NewDaySummaryStore(pool)
	}

	orch := orchestrator.New(orchestrator.Options{
		BarStore:        barStore,
		TradeStore:      tradeStore,
		DaySummaryStore: dayStore,
		Config:          cfg,
		ConfigName:      configName,
		Dataset:         *dataset,
		SkipVerify:      *skipVerify,
		Logger:          logger,
	})

	started := time.Now()
	result, err := orch.Run(ctx, startMs, endMs)
	if err != nil {
		observability.RecordRun("failed", time.Since(started).Seconds())
		logger.Fatalf("pipeline failed: %v", err)
	}
	observability.RecordRun("success", time.Since(started).Seconds())
	observability.DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()

	logger.Printf("Pipeline complete: run=%s bars=%d trades=%d days=%d net=%.2f pts",
		result.RunID, result.BarsLoaded, result.TradesCreated, result.DaysClosed, result.Stats.NetPnL)

	if *outDir != "" && result.RunID != "" {
		if err := writeReports(ctx, *outDir, result.RunID, tradeStore, dayStore); err != nil {
			logger.Fatalf("write reports: %v", err)
		}
		logger.Printf("Wrote reports to %s", *outDir)
	}
}

// parseRange converts the from/to flags to a millisecond range.
// An empty from means the beginning of time, an empty to means now.
func parseRange(fromStr, toStr string) (int64, int64, error) {
	startMs := int64(0)
	endMs := time.Now().UnixMilli()

	if fromStr != "" {
		t, err := parseTime(fromStr)
		if err != nil {
			return 0, 0, fmt.Errorf("--from: %w", err)
		}
		startMs = t.UnixMilli()
	}
	if toStr != "" {
		t, err := parseTime(toStr)
		if err != nil {
			return 0, 0, fmt.Errorf("--to: %w", err)
		}
		endMs = t.UnixMilli()
	}
	if endMs < startMs {
		return 0, 0, fmt.Errorf("range end %s before start %s", toStr, fromStr)
	}
	return startMs, endMs, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// writeReports renders the run into markdown and CSV files under dir.
func writeReports(ctx context.Context, dir, runID string, tradeStore storage.TradeStore, dayStore storage.DaySummaryStore) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	report, err := reporting.NewGenerator(tradeStore, dayStore).Generate(ctx, runID)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.md"),
		[]byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return err
	}

	trades, err := tradeStore.GetByRunID(ctx, runID)
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "trades.csv"),
		[]byte(reporting.RenderTradesCSV(trades)), 0o644); err != nil {
		return err
	}

	days, err := dayStore.GetByRunID(ctx, runID)
	if err != nil {
		return fmt.Errorf("load day summaries: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "days.csv"),
		[]byte(reporting.RenderDaysCSV(days)), 0o644)
}
