package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	wsURL := flag.String("ws-url", "", "Websocket endpoint for the live bar feed (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (or CLICKHOUSE_DSN env)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	flushSize := flag.Int("flush-size", 500, "Bars buffered before a flush")
	flushInterval := flag.Duration("flush-interval", 5*time.Second, "Maximum time between flushes")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	_ = godotenv.Load()
	if *clickhouseDSN == "" {
		*clickhouseDSN = os.Getenv("CLICKHOUSE_DSN")
	}

	if *wsURL == "" {
		logger.Fatal("--ws-url is required")
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

	// Connect the live feed
	stream, err := feed.NewBarStream(ctx, *wsURL, nil)
	if err != nil {
		logger.Fatalf("connect feed: %v", err)
	}
	defer stream.Close()

	bars, err := stream.Subscribe(ctx)
	if err != nil {
		logger.Fatalf("subscribe: %v", err)
	}
	logger.Printf("Streaming bars from %s", *wsURL)

	stored := consume(ctx, logger, barStore, bars, *flushSize, *flushInterval)
	logger.Printf("Feed stopped: %d bars stored", stored)
}

// consume buffers incoming bars and flushes them to the store when the
// buffer fills or the interval elapses. The remaining buffer is flushed
// on shutdown with a short grace period.
func consume(ctx context.Context, logger *log.Logger, store storage.BarStore, bars <-chan domain.Bar, flushSize int, flushInterval time.Duration) int {
	buf := make([]domain.Bar, 0, flushSize)
	stored := 0

	flush := func(flushCtx context.Context) {
		if len(buf) == 0 {
			return
		}
		if err := store.InsertBulk(flushCtx, buf); err != nil {
			logger.Printf("Flush failed, dropping %d bars: %v", len(buf), err)
			observability.DefaultMetrics.BarsRejected.WithLabelValues("store_error").Add(float64(len(buf)))
		} else {
			stored += len(buf)
			observability.DefaultMetrics.BarsIngested.Add(float64(len(buf)))
		}
		buf = buf[:0]
	}

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case bar, ok := <-bars:
			if !ok {
				finalFlush(flush)
				return stored
			}
			observability.DefaultMetrics.FeedLastBarTs.Set(float64(bar.TimestampMs))
			buf = append(buf, bar)
			if len(buf) >= flushSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			finalFlush(flush)
			return stored
		}
	}
}

// finalFlush gives the last write its own deadline since the run
// context is already cancelled.
func finalFlush(flush func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	flush(ctx)
}
