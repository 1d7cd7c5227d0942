package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/feed"
	"intraday-level-lab/internal/observability"
	"intraday-level-lab/internal/storage"
	chstore "intraday-level-lab/internal/storage/clickhouse"
	"intraday-level-lab/internal/storage/memory"
	"intraday-level-lab/internal/storage/migrations"
)

func main() {
	// Parse flags
	barsPath := flag.String("bars", "", "CSV file of one-minute bars (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (or CLICKHOUSE_DSN env)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse")
	batchSize := flag.Int("batch-size", 10000, "Bars per insert batch")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags)

	_ = godotenv.Load()
	if *clickhouseDSN == "" {
		*clickhouseDSN = os.Getenv("CLICKHOUSE_DSN")
	}

	if *barsPath == "" {
		logger.Fatal("--bars is required")
	}
	if !*useMemory && *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required (use --use-memory for in-memory storage)")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
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

	// Create bar store
	var barStore storage.BarStore = memory.NewBarStore()
	if !*useMemory {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("prepare clickhouse: %v", err)
		}
		defer conn.Close()
		barStore = chstore.NewBarStore(conn)
	}

	// Load and store
	bars, err := feed.LoadCSV(*barsPath)
	if err != nil {
		logger.Fatalf("load bars: %v", err)
	}
	logger.Printf("Loaded %d bars from %s", len(bars), *barsPath)

	stored, err := ingestBatches(ctx, barStore, bars, *batchSize)
	if err != nil {
		logger.Fatalf("ingest: %v", err)
	}
	logger.Printf("Ingestion complete: %d bars stored", stored)
}

// ingestBatches inserts bars in fixed-size batches, stopping on cancellation.
func ingestBatches(ctx context.Context, store storage.BarStore, bars []domain.Bar, batchSize int) (int, error) {
	stored := 0
	for start := 0; start < len(bars); start += batchSize {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		end := start + batchSize
		if end > len(bars) {
			end = len(bars)
		}
		if err := store.InsertBulk(ctx, bars[start:end]); err != nil {
			return stored, err
		}
		stored += end - start
		observability.DefaultMetrics.BarsIngested.Add(float64(end - start))
	}
	return stored, nil
}
