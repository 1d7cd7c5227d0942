// Package risk implements the two-tier daily/weekly gating of new order
// placement and the injectable broken-level policy.
package risk

import (
	"intraday-level-lab/internal/domain"
)

// BreakPolicy decides whether a closed trade invalidates its originating
// level for the rest of the trading day.
type BreakPolicy func(t *domain.Trade) bool

// LossBreakPolicy is the default policy: only a genuine realized loss
// beyond the threshold breaks a level. Scratch, breakeven and trailing
// exits leave the level placeable.
func LossBreakPolicy(threshold float64) BreakPolicy {
	return func(t *domain.Trade) bool {
		return t.PnLPoints < -threshold
	}
}

// Governor gates new order placement on day and week state.
// It is owned by a single simulation run.
type Governor struct {
	cfg  domain.EngineConfig
	day  *domain.DayState
	week *domain.WeekState
}

// NewGovernor creates a governor with no open day or week.
func NewGovernor(cfg domain.EngineConfig) *Governor {
	return &Governor{cfg: cfg}
}

// StartWeek resets weekly state for a new week key.
func (g *Governor) StartWeek(week string) {
	g.week = &domain.WeekState{Week: week}
}

// CloseDay finalizes the current day and applies its outcome to the week:
// a day with at least one trade and negative net pnl counts as a losing
// day, and the configured count of losing days locks the week.
// Returns the closed state, or nil when no day was open.
func (g *Governor) CloseDay() *domain.DayState {
	if g.day == nil {
		return nil
	}
	closed := g.day
	g.day = nil

	if g.week != nil && closed.Trades > 0 && closed.PnL < 0 {
		g.week.LosingDays++
		if g.week.LosingDays >= g.cfg.WeekLossLimit {
			g.week.Done = true
		}
	}
	return closed
}

// StartDay opens state for a new trading day. A holiday day starts done:
// no orders are placed for its entire duration.
func (g *Governor) StartDay(day string, holiday bool) {
	g.day = &domain.DayState{Day: day, Holiday: holiday, Done: holiday}
}

// RecordTrade applies a closed trade's pnl to the day and updates the
// done/target flags.
func (g *Governor) RecordTrade(pnlPoints float64) {
	if g.day == nil {
		return
	}
	g.day.PnL += pnlPoints
	g.day.Trades++

	if g.day.PnL >= g.cfg.DailyTarget {
		g.day.Done = true
		g.day.TargetHit = true
	} else if g.day.PnL <= g.cfg.DailyLossLimit {
		g.day.Done = true
	}
}

// AllowsEntry reports whether new orders may be placed right now.
func (g *Governor) AllowsEntry() bool {
	if g.day == nil || g.week == nil {
		return false
	}
	return !g.day.Done && !g.week.Done
}

// DayPnL returns the running pnl of the current day.
func (g *Governor) DayPnL() float64 {
	if g.day == nil {
		return 0
	}
	return g.day.PnL
}

// Day returns the current day state (may be nil before the first bar).
func (g *Governor) Day() *domain.DayState { return g.day }

// Week returns the current week state (may be nil before the first bar).
func (g *Governor) Week() *domain.WeekState { return g.week }
