package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"intraday-level-lab/internal/reporting"
	pgstore "intraday-level-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	runID := flag.String("run-id", "", "Run ID to report on (required)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (or POSTGRES_DSN env)")
	format := flag.String("format", "markdown", "Output format: markdown, csv, days-csv")
	outPath := flag.String("out", "", "Output file (stdout when empty)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	_ = godotenv.Load()
	if *postgresDSN == "" {
		*postgresDSN = os.Getenv("POSTGRES_DSN")
	}

	if *runID == "" {
		logger.Fatal("--run-id is required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	tradeStore := pgstore.NewTradeStore(pool)
	dayStore := pgstore.NewDaySummaryStore(pool)

	var output string
	switch *format {
	case "markdown":
		report, err := reporting.NewGenerator(tradeStore, dayStore).Generate(ctx, *runID)
		if err != nil {
			logger.Fatalf("generate report: %v", err)
		}
		output = reporting.RenderMarkdown(report)
	case "csv":
		trades, err := tradeStore.GetByRunID(ctx, *runID)
		if err != nil {
			logger.Fatalf("load trades: %v", err)
		}
		output = reporting.RenderTradesCSV(trades)
	case "days-csv":
		days, err := dayStore.GetByRunID(ctx, *runID)
		if err != nil {
			logger.Fatalf("load day summaries: %v", err)
		}
		output = reporting.RenderDaysCSV(days)
	default:
		logger.Fatalf("Unknown format: %s. Must be markdown, csv, or days-csv", *format)
	}

	if *outPath == "" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(*outPath, []byte(output), 0o644); err != nil {
		logger.Fatalf("write output: %v", err)
	}
	logger.Printf("Wrote %s report to %s", *format, *outPath)
}
