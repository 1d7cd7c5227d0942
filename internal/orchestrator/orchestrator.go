// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: ingestion → simulation → persistence → verification
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/engine"
	"intraday-level-lab/internal/idhash"
	"intraday-level-lab/internal/observability"
	"intraday-level-lab/internal/storage"
	"intraday-level-lab/internal/verification"
)

// Orchestrator coordinates a full simulation run against storage.
type Orchestrator struct {
	barStore   storage.BarStore
	tradeStore storage.TradeStore
	dayStore   storage.DaySummaryStore

	cfg        domain.EngineConfig
	configName string
	dataset    string

	skipVerify bool
	logger     *log.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	BarStore        storage.BarStore
	TradeStore      storage.TradeStore
	DaySummaryStore storage.DaySummaryStore

	// Run parameters
	Config     domain.EngineConfig
	ConfigName string // part of the run identity; "default" when empty
	Dataset    string // dataset label for the run ID

	// Options
	SkipVerify bool // skip the replay verification phase
	Logger     *log.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	configName := opts.ConfigName
	if configName == "" {
		configName = "default"
	}
	dataset := opts.Dataset
	if dataset == "" {
		dataset = "bars"
	}
	return &Orchestrator{
		barStore:   opts.BarStore,
		tradeStore: opts.TradeStore,
		dayStore:   opts.DaySummaryStore,
		cfg:        opts.Config,
		configName: configName,
		dataset:    dataset,
		skipVerify: opts.SkipVerify,
		logger:     logger,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	RunID         string
	BarsLoaded    int
	BarsReplayed  int
	TradesCreated int
	DaysClosed    int
	Verified      bool
	Stats         RunStats
}

// RunStats is the headline slice of the full run statistics.
type RunStats struct {
	NetPnL  float64
	Trades  int
	WinRate float64
}

// Run executes the full pipeline for bars within [startMs, endMs].
// Phases:
//  1. Load bars from storage
//  2. Simulate
//  3. Persist trades and day summaries
//  4. Verify the stored run against a fresh replay
func (o *Orchestrator) Run(ctx context.Context, startMs, endMs int64) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Load bars
	o.logf("Phase 1: Loading bars...")
	bars, err := o.barStore.GetByTimeRange(ctx, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load bars) failed: %w", err)
	}
	result.BarsLoaded = len(bars)
	o.logf("  Found %d bars", len(bars))

	if len(bars) == 0 {
		return result, nil
	}

	runID := idhash.ComputeRunID(o.dataset, o.configName,
		bars[0].TimestampMs, bars[len(bars)-1].TimestampMs)
	result.RunID = runID

	// Phase 2: Simulation
	o.logf("Phase 2: Simulating run %s...", runID)
	simResult, err := engine.New(engine.Options{
		Config: o.cfg,
		RunID:  runID,
		Logger: o.logger,
	}).Run(bars)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (simulation) failed: %w", err)
	}
	result.BarsReplayed = simResult.Bars
	result.TradesCreated = len(simResult.Trades)
	result.DaysClosed = len(simResult.Days)
	observability.RecordRunOutcome(observability.RunOutcome{
		Trades:        simResult.Trades,
		Days:          simResult.Days,
		BarsReplayed:  simResult.Bars,
		BarsSkipped:   simResult.Skipped,
		OrdersPlaced:  simResult.OrdersPlaced,
		OrdersFilled:  simResult.OrdersFilled,
		OrdersExpired: simResult.OrdersExpired,
	})
	result.Stats = RunStats{
		NetPnL:  simResult.Stats.NetPnL,
		Trades:  simResult.Stats.Trades,
		WinRate: simResult.Stats.WinRate,
	}
	o.logf("  Closed %d trades over %d days, net %.2f pts",
		result.TradesCreated, result.DaysClosed, simResult.Stats.NetPnL)

	// Phase 3: Persistence
	o.logf("Phase 3: Persisting results...")
	trades := make([]*domain.Trade, len(simResult.Trades))
	for i := range simResult.Trades {
		trades[i] = &simResult.Trades[i]
	}
	if err := o.tradeStore.InsertBulk(ctx, trades); err != nil {
		return nil, fmt.Errorf("phase 3 (persist trades) failed: %w", err)
	}
	days := make([]*domain.DaySummary, len(simResult.Days))
	for i := range simResult.Days {
		days[i] = &simResult.Days[i]
	}
	if err := o.dayStore.InsertBulk(ctx, days); err != nil {
		return nil, fmt.Errorf("phase 3 (persist day summaries) failed: %w", err)
	}
	o.logf("  Persisted %d trades, %d day summaries", len(trades), len(days))

	// Phase 4: Verification
	if o.skipVerify {
		o.logf("Phase 4: Skipping verification (skipVerify=true)")
		return result, nil
	}
	o.logf("Phase 4: Verifying stored run against replay...")
	verifier := verification.NewReplayVerifier(o.tradeStore, o.dayStore)
	report, err := verifier.VerifyRun(ctx, runID, bars, engine.Options{
		Config: o.cfg,
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		return nil, fmt.Errorf("phase 4 (verification) failed: %w", err)
	}
	result.Verified = report.Match()
	if !result.Verified {
		return result, fmt.Errorf("phase 4 (verification): stored run diverges from replay")
	}
	o.logf("  Verified: replay matches storage")

	return result, nil
}

func (o *Orchestrator) logf(format string, args ...any) {
	o.logger.Printf(format, args...)
}
