package orchestrator

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/storage/memory"
)

// fixtureConfig narrows the entry band and pushes round grids away so the
// fixture trades exactly once, long off the prior day low at 100.
func fixtureConfig() domain.EngineConfig {
	cfg := domain.DefaultConfig()
	cfg.EntryBandMin = 4
	cfg.RoundCoarse = 10000
	cfg.RoundFine = 5000
	return cfg
}

func fixtureBars() []domain.Bar {
	ts := func(day, hh, mm int) int64 {
		return time.Date(2026, time.January, day, hh, mm, 0, 0, time.UTC).UnixMilli()
	}
	bar := func(tsMs int64, o, h, l, c float64) domain.Bar {
		return domain.Bar{TimestampMs: tsMs, Open: o, High: h, Low: l, Close: c, Volume: 100, Symbol: "ESH6"}
	}
	return []domain.Bar{
		bar(ts(26, 14, 30), 102, 104, 100, 102),
		bar(ts(26, 14, 31), 102, 104, 100, 102),
		bar(ts(27, 14, 30), 105, 105.5, 104.8, 105),
		bar(ts(27, 14, 31), 104, 104.5, 99, 101),
		bar(ts(27, 14, 32), 101, 151, 100.5, 149),
	}
}

type fixture struct {
	barStore   *memory.BarStore
	tradeStore *memory.TradeStore
	dayStore   *memory.DaySummaryStore
	orch       *Orchestrator
}

func newFixture(t *testing.T, skipVerify bool) *fixture {
	t.Helper()
	f := &fixture{
		barStore:   memory.NewBarStore(),
		tradeStore: memory.NewTradeStore(),
		dayStore:   memory.NewDaySummaryStore(),
	}
	if err := f.barStore.InsertBulk(context.Background(), fixtureBars()); err != nil {
		t.Fatalf("seed bars: %v", err)
	}
	f.orch = New(Options{
		BarStore:        f.barStore,
		TradeStore:      f.tradeStore,
		DaySummaryStore: f.dayStore,
		Config:          fixtureConfig(),
		ConfigName:      "fixture",
		Dataset:         "esh6-jan",
		SkipVerify:      skipVerify,
		Logger:          log.New(io.Discard, "", 0),
	})
	return f
}

func fixtureRange() (int64, int64) {
	bars := fixtureBars()
	return bars[0].TimestampMs, bars[len(bars)-1].TimestampMs
}

func TestRun_EndToEnd(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	startMs, endMs := fixtureRange()
	result, err := f.orch.Run(ctx, startMs, endMs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID is empty")
	}
	if result.BarsLoaded != len(fixtureBars()) {
		t.Errorf("BarsLoaded = %d, want %d", result.BarsLoaded, len(fixtureBars()))
	}
	if result.TradesCreated == 0 {
		t.Error("TradesCreated = 0, want at least one")
	}
	if !result.Verified {
		t.Error("Verified = false, want replay to match")
	}

	// Everything the run produced must be readable back under its run ID.
	trades, err := f.tradeStore.GetByRunID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("GetByRunID: %v", err)
	}
	if len(trades) != result.TradesCreated {
		t.Errorf("stored %d trades, result says %d", len(trades), result.TradesCreated)
	}
	days, err := f.dayStore.GetByRunID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("GetByRunID days: %v", err)
	}
	if len(days) != result.DaysClosed {
		t.Errorf("stored %d day summaries, result says %d", len(days), result.DaysClosed)
	}
}

func TestRun_StatsMatchPersistedTrades(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	startMs, endMs := fixtureRange()
	result, err := f.orch.Run(ctx, startMs, endMs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	trades, err := f.tradeStore.GetByRunID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("GetByRunID: %v", err)
	}
	var net float64
	for _, tr := range trades {
		net += tr.PnLPoints
	}
	if diff := result.Stats.NetPnL - net; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Stats.NetPnL = %.4f, stored trades sum to %.4f", result.Stats.NetPnL, net)
	}
	if result.Stats.Trades != len(trades) {
		t.Errorf("Stats.Trades = %d, want %d", result.Stats.Trades, len(trades))
	}
}

func TestRun_SkipVerify(t *testing.T) {
	f := newFixture(t, true)

	startMs, endMs := fixtureRange()
	result, err := f.orch.Run(context.Background(), startMs, endMs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Verified {
		t.Error("Verified = true with verification skipped")
	}
	if result.TradesCreated == 0 {
		t.Error("TradesCreated = 0, want at least one")
	}
}

func TestRun_EmptyRange(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.orch.Run(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.BarsLoaded != 0 || result.RunID != "" {
		t.Errorf("result = %+v, want empty run", result)
	}
}

func TestRun_DeterministicRunID(t *testing.T) {
	first := newFixture(t, true)
	second := newFixture(t, true)
	ctx := context.Background()

	startMs, endMs := fixtureRange()
	a, err := first.orch.Run(ctx, startMs, endMs)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	b, err := second.orch.Run(ctx, startMs, endMs)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if a.RunID != b.RunID {
		t.Errorf("run IDs differ: %s vs %s", a.RunID, b.RunID)
	}
}
