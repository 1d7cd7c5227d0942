package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"intraday-level-lab/internal/ledger"
	"intraday-level-lab/internal/storage"
)

// Generator produces reports from stored run data.
type Generator struct {
	tradeStore storage.TradeStore
	dayStore   storage.DaySummaryStore
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tradeStore storage.TradeStore, dayStore storage.DaySummaryStore) *Generator {
	return &Generator{
		tradeStore: tradeStore,
		dayStore:   dayStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces the full report for one run.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	trades, err := g.tradeStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	days, err := g.dayStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load day summaries: %w", err)
	}

	// Rebuild the run ledger to reuse its aggregate computation.
	led := ledger.New()
	for _, t := range trades {
		led.Append(*t)
	}
	for _, d := range days {
		led.AppendDay(*d)
	}
	stats := led.Stats()

	report := &Report{
		ReportID:    uuid.NewString(),
		GeneratedAt: g.now(),
		RunID:       runID,
		Stats:       stats,
	}

	for reason, gs := range stats.ByExitReason {
		report.ExitReasons = append(report.ExitReasons, ExitReasonRow{
			Reason: reason, Count: gs.Count, Wins: gs.Wins, PnL: gs.PnL,
		})
	}
	sort.Slice(report.ExitReasons, func(i, j int) bool {
		return report.ExitReasons[i].Reason < report.ExitReasons[j].Reason
	})

	for level, gs := range stats.ByLevel {
		report.Levels = append(report.Levels, LevelRow{
			Level: string(level), Count: gs.Count, Wins: gs.Wins, PnL: gs.PnL,
		})
	}
	sort.Slice(report.Levels, func(i, j int) bool {
		return report.Levels[i].Level < report.Levels[j].Level
	})

	for _, d := range days {
		report.Days = append(report.Days, DayRow{
			Day: d.Day, PnL: d.PnL, Trades: d.Trades,
			Done: d.Done, TargetHit: d.TargetHit, Holiday: d.Holiday,
		})
	}
	sort.Slice(report.Days, func(i, j int) bool {
		return report.Days[i].Day < report.Days[j].Day
	})

	return report, nil
}
