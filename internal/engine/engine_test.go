package engine

import (
	"io"
	"log"
	"reflect"
	"testing"
	"time"

	"intraday-level-lab/internal/domain"
)

// scenarioConfig narrows the entry band and pushes the round grids out of
// reach so each scenario exercises exactly one level (the prior day low at
// 100 against a close of 105).
func scenarioConfig() domain.EngineConfig {
	cfg := domain.DefaultConfig()
	cfg.EntryBandMin = 4
	cfg.RoundCoarse = 10000
	cfg.RoundFine = 5000
	return cfg
}

func ts(day, hh, mm int) int64 {
	return time.Date(2026, time.January, day, hh, mm, 0, 0, time.UTC).UnixMilli()
}

func esBar(tsMs int64, o, h, l, c, v float64) domain.Bar {
	return domain.Bar{TimestampMs: tsMs, Open: o, High: h, Low: l, Close: c, Volume: v, Symbol: "ESH6"}
}

// priorDay is Monday 2026-01-26 regular session: high 104, low 100,
// close 102. Tuesday then sees prior-day levels at those prices.
func priorDay() []domain.Bar {
	return []domain.Bar{
		esBar(ts(26, 14, 30), 102, 104, 100, 102, 100),
		esBar(ts(26, 14, 31), 102, 104, 100, 102, 100),
	}
}

func newTestEngine(cfg domain.EngineConfig) *Engine {
	return New(Options{
		Config: cfg,
		Logger: log.New(io.Discard, "", 0),
	})
}

func TestRun_LimitFillToTarget(t *testing.T) {
	bars := append(priorDay(),
		esBar(ts(27, 14, 30), 105, 105.5, 104.8, 105, 100), // places buy limit at 100
		esBar(ts(27, 14, 31), 104, 104.5, 99, 101, 100),    // low touches: fill at 100
		esBar(ts(27, 14, 32), 101, 151, 100.5, 149, 100),   // target 150 reached
	)

	r, err := newTestEngine(scenarioConfig()).Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(r.Trades) != 1 {
		t.Fatalf("trades = %+v, want one", r.Trades)
	}

	tr := r.Trades[0]
	if tr.Level != domain.LevelPriorDayLow || tr.Side != domain.SideLong {
		t.Errorf("trade = %+v, want long off the prior day low", tr)
	}
	if tr.EntryPrice != 100 || tr.ExitPrice != 150 || tr.PnLPoints != 50 {
		t.Errorf("fill = %v -> %v pnl %v, want 100 -> 150 for +50", tr.EntryPrice, tr.ExitPrice, tr.PnLPoints)
	}
	if tr.ExitReason != domain.ExitReasonTarget {
		t.Errorf("reason = %s, want target", tr.ExitReason)
	}
	if tr.TradingDay != "2026-01-27" {
		t.Errorf("trading day = %s", tr.TradingDay)
	}
	if len(tr.TradeID) != 64 || tr.RunID == "" {
		t.Errorf("ids not stamped: %+v", tr)
	}
}

func TestRun_BreakevenDoesNotBreakLevel(t *testing.T) {
	cfg := scenarioConfig()
	cfg.StepTable = []domain.StepRung{{ProfitTrigger: 5, LockIn: 0}}

	bars := append(priorDay(),
		esBar(ts(27, 14, 30), 105, 105.5, 104.8, 105, 100),
		esBar(ts(27, 14, 31), 104, 104.5, 99, 101, 100),    // fill at 100
		esBar(ts(27, 14, 32), 101, 107, 100.5, 106, 100),   // extreme +7: stop to entry
		esBar(ts(27, 14, 33), 106, 106, 99, 100, 100),      // stop at 100: breakeven
		esBar(ts(27, 14, 34), 100, 105.5, 100.5, 105, 100), // level re-placeable
		esBar(ts(27, 14, 35), 105, 105, 99, 101, 100),      // fills again
		esBar(ts(27, 14, 36), 101, 151, 100.5, 149, 100),   // target
	)

	r, err := newTestEngine(cfg).Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(r.Trades) != 2 {
		t.Fatalf("trades = %+v, want breakeven then re-entry", r.Trades)
	}

	first := r.Trades[0]
	if first.ExitReason != domain.ExitReasonBreakeven || first.PnLPoints != 0 {
		t.Errorf("first trade = %+v, want breakeven for 0", first)
	}
	// The scratch did not invalidate the level: the second trade rests at it.
	second := r.Trades[1]
	if second.Level != domain.LevelPriorDayLow || second.ExitReason != domain.ExitReasonTarget {
		t.Errorf("second trade = %+v, want a fresh fill at the same level", second)
	}
}

func TestRun_GapStopBreaksLevel(t *testing.T) {
	bars := append(priorDay(),
		esBar(ts(27, 14, 30), 105, 105.5, 104.8, 105, 100),
		esBar(ts(27, 14, 31), 104, 104.5, 99, 101, 100), // fill at 100
		esBar(ts(27, 14, 32), 85, 86, 84, 85, 100),      // open gaps through stop 90
		esBar(ts(27, 14, 33), 105, 105.5, 104.8, 105, 100),
		esBar(ts(27, 14, 34), 105, 105, 99, 101, 100), // would fill, but level is broken
	)

	r, err := newTestEngine(scenarioConfig()).Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(r.Trades) != 1 {
		t.Fatalf("trades = %+v, want the gap stop only", r.Trades)
	}

	tr := r.Trades[0]
	if tr.ExitReason != domain.ExitReasonGapStop || tr.ExitPrice != 85 || tr.PnLPoints != -15 {
		t.Errorf("trade = %+v, want gap stop at the open for -15", tr)
	}
}

func TestRun_DailyTargetStopsNewOrders(t *testing.T) {
	cfg := scenarioConfig()
	cfg.DailyTarget = 40

	bars := append(priorDay(),
		esBar(ts(27, 14, 30), 105, 105.5, 104.8, 105, 100),
		esBar(ts(27, 14, 31), 104, 104.5, 99, 101, 100),  // fill at 100
		esBar(ts(27, 14, 32), 101, 151, 100.5, 149, 100), // target: day pnl 50 >= 40
		esBar(ts(27, 14, 33), 105, 105.5, 104.8, 105, 100),
		esBar(ts(27, 14, 34), 105, 105, 99, 101, 100), // valid level, but the day is done
	)

	r, err := newTestEngine(cfg).Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(r.Trades) != 1 {
		t.Fatalf("trades = %+v, want no entries after the target", r.Trades)
	}

	var day *domain.DaySummary
	for i := range r.Days {
		if r.Days[i].Day == "2026-01-27" {
			day = &r.Days[i]
		}
	}
	if day == nil || !day.Done || !day.TargetHit {
		t.Errorf("day summary = %+v, want done with target hit", day)
	}
}

func TestRun_ForcedCloseAtSessionEnd(t *testing.T) {
	bars := append(priorDay(),
		esBar(ts(27, 14, 30), 105, 105.5, 104.8, 105, 100),
		esBar(ts(27, 14, 31), 104, 104.5, 99, 101, 100),    // fill at 100
		esBar(ts(27, 14, 32), 101, 102, 100.5, 101.5, 100), // drifts
		esBar(ts(27, 21, 0), 104, 104, 103, 103, 100),      // 16:00 ET: flatten
	)

	r, err := newTestEngine(scenarioConfig()).Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(r.Trades) != 1 {
		t.Fatalf("trades = %+v", r.Trades)
	}
	tr := r.Trades[0]
	if tr.ExitReason != domain.ExitReasonForced || tr.ExitPrice != 104 {
		t.Errorf("trade = %+v, want forced close at the 16:00 open", tr)
	}
}

func TestRun_RolloverClosesOnPrimacyLoss(t *testing.T) {
	bars := append(priorDay(),
		esBar(ts(27, 14, 30), 105, 105.5, 104.8, 105, 1000),
		esBar(ts(27, 14, 31), 104, 104.5, 99, 101, 1000), // fill at 100 in ESH6
		// Next hour the June contract takes the volume.
		domain.Bar{TimestampMs: ts(27, 15, 0), Open: 101, High: 102, Low: 100.5, Close: 101.5, Volume: 5000, Symbol: "ESM6"},
	)

	r, err := newTestEngine(scenarioConfig()).Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(r.Trades) != 1 {
		t.Fatalf("trades = %+v", r.Trades)
	}
	tr := r.Trades[0]
	if tr.ExitReason != domain.ExitReasonRollover || tr.Symbol != "ESH6" {
		t.Errorf("trade = %+v, want rollover exit of the ESH6 position", tr)
	}
	// Closed at the last price traded in the position's own contract.
	if tr.ExitPrice != 101 {
		t.Errorf("exit = %v, want last ESH6 close 101", tr.ExitPrice)
	}
}

func TestRun_Deterministic(t *testing.T) {
	bars := append(priorDay(),
		esBar(ts(27, 14, 30), 105, 105.5, 104.8, 105, 100),
		esBar(ts(27, 14, 31), 104, 104.5, 99, 101, 100),
		esBar(ts(27, 14, 32), 101, 107, 100.5, 106, 100),
		esBar(ts(27, 14, 33), 106, 106, 99, 100, 100),
		esBar(ts(27, 14, 34), 100, 151, 100.5, 149, 100),
	)

	r1, err := newTestEngine(scenarioConfig()).Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r2, err := newTestEngine(scenarioConfig()).Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if r1.RunID != r2.RunID {
		t.Errorf("run ids differ: %s vs %s", r1.RunID, r2.RunID)
	}
	if !reflect.DeepEqual(r1.Trades, r2.Trades) {
		t.Errorf("trades differ:\n%+v\n%+v", r1.Trades, r2.Trades)
	}
	if !reflect.DeepEqual(r1.Days, r2.Days) {
		t.Errorf("day summaries differ:\n%+v\n%+v", r1.Days, r2.Days)
	}
}

func TestRun_OrderCountsReported(t *testing.T) {
	bars := append(priorDay(),
		esBar(ts(27, 14, 30), 105, 105.5, 104.8, 105, 100), // places buy limit at 100
		esBar(ts(27, 14, 31), 104, 104.5, 99, 101, 100),    // fills
		esBar(ts(27, 14, 32), 101, 151, 100.5, 149, 100),   // target
	)

	r, err := newTestEngine(scenarioConfig()).Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.OrdersPlaced != 1 || r.OrdersFilled != 1 || r.OrdersExpired != 0 {
		t.Errorf("orders = %d placed %d filled %d expired, want 1/1/0",
			r.OrdersPlaced, r.OrdersFilled, r.OrdersExpired)
	}
	if r.OrdersFilled != len(r.Trades) {
		t.Errorf("fills %d != closed trades %d", r.OrdersFilled, len(r.Trades))
	}
}

func TestRun_NoBars(t *testing.T) {
	if _, err := newTestEngine(scenarioConfig()).Run(nil); err != ErrNoBars {
		t.Errorf("err = %v, want ErrNoBars", err)
	}
}
