package verification

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/engine"
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

func fixtureOptions() engine.Options {
	return engine.Options{
		Config: fixtureConfig(),
		Logger: log.New(io.Discard, "", 0),
	}
}

// storeRun executes the fixture and persists its output, returning the run ID.
func storeRun(t *testing.T, trades *memory.TradeStore, days *memory.DaySummaryStore) string {
	t.Helper()
	ctx := context.Background()

	result, err := engine.New(fixtureOptions()).Run(fixtureBars())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := range result.Trades {
		if err := trades.Insert(ctx, &result.Trades[i]); err != nil {
			t.Fatalf("store trade: %v", err)
		}
	}
	for i := range result.Days {
		if err := days.Insert(ctx, &result.Days[i]); err != nil {
			t.Fatalf("store day: %v", err)
		}
	}
	return result.RunID
}

func TestVerifyRun_Match(t *testing.T) {
	trades := memory.NewTradeStore()
	days := memory.NewDaySummaryStore()
	runID := storeRun(t, trades, days)

	report, err := NewReplayVerifier(trades, days).VerifyRun(
		context.Background(), runID, fixtureBars(), fixtureOptions())
	if err != nil {
		t.Fatalf("VerifyRun: %v", err)
	}

	if !report.Match() {
		t.Errorf("report = %+v, want exact match", report)
	}
	if report.MatchedTrades != report.TotalTrades || report.TotalTrades == 0 {
		t.Errorf("matched %d of %d", report.MatchedTrades, report.TotalTrades)
	}
}

func TestVerifyRun_DetectsTamperedTrade(t *testing.T) {
	trades := memory.NewTradeStore()
	days := memory.NewDaySummaryStore()

	result, err := engine.New(fixtureOptions()).Run(fixtureBars())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ctx := context.Background()
	for i := range result.Trades {
		tampered := result.Trades[i]
		tampered.PnLPoints += 1 // storage no longer matches the replay
		if err := trades.Insert(ctx, &tampered); err != nil {
			t.Fatalf("store trade: %v", err)
		}
	}
	for i := range result.Days {
		if err := days.Insert(ctx, &result.Days[i]); err != nil {
			t.Fatalf("store day: %v", err)
		}
	}

	report, err := NewReplayVerifier(trades, days).VerifyRun(
		ctx, result.RunID, fixtureBars(), fixtureOptions())
	if err != nil {
		t.Fatalf("VerifyRun: %v", err)
	}

	if report.Match() || report.DivergentTrades == 0 {
		t.Fatalf("report = %+v, want divergence", report)
	}
	found := false
	for _, res := range report.Results {
		for _, d := range res.Divergences {
			if d.Field == "PnLPoints" {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("results = %+v, want a PnLPoints divergence", report.Results)
	}
}

func TestVerifyRun_DetectsExtraReplayTrade(t *testing.T) {
	trades := memory.NewTradeStore()
	days := memory.NewDaySummaryStore()

	// Persist only the day summaries: every replayed trade is then extra.
	result, err := engine.New(fixtureOptions()).Run(fixtureBars())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ctx := context.Background()
	for i := range result.Days {
		if err := days.Insert(ctx, &result.Days[i]); err != nil {
			t.Fatalf("store day: %v", err)
		}
	}

	report, err := NewReplayVerifier(trades, days).VerifyRun(
		ctx, result.RunID, fixtureBars(), fixtureOptions())
	if err != nil {
		t.Fatalf("VerifyRun: %v", err)
	}
	if report.Match() || len(report.ExtraTrades) != len(result.Trades) {
		t.Errorf("report = %+v, want extra trades flagged", report)
	}
}

func TestVerifyRun_UnknownRun(t *testing.T) {
	trades := memory.NewTradeStore()
	days := memory.NewDaySummaryStore()

	_, err := NewReplayVerifier(trades, days).VerifyRun(
		context.Background(), "nope", fixtureBars(), fixtureOptions())
	if err != ErrRunNotFound {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestCompareTrades_FloatTolerance(t *testing.T) {
	a := &domain.Trade{TradeID: "t", EntryPrice: 100}
	b := &domain.Trade{TradeID: "t", EntryPrice: 100 + FloatTolerance/2}
	if d := CompareTrades(a, b); len(d) != 0 {
		t.Errorf("divergences = %+v, want none within tolerance", d)
	}
	b.EntryPrice = 100.001
	if d := CompareTrades(a, b); len(d) != 1 || d[0].Field != "EntryPrice" {
		t.Errorf("divergences = %+v, want EntryPrice only", d)
	}
}
