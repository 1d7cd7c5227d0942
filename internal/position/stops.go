// Package position manages the single open position of a simulation run:
// protective-stop progression, per-bar exit evaluation and closed-trade
// construction.
package position

import (
	"intraday-level-lab/internal/domain"
)

// stepRungs returns the protection ladder for a position. Sprint entries
// replace the early rungs with the single sprint rung, then rejoin the
// normal table where it locks in more.
func stepRungs(cfg domain.EngineConfig, sprint bool) []domain.StepRung {
	if !sprint {
		return cfg.StepTable
	}
	rungs := []domain.StepRung{cfg.SprintStep}
	for _, r := range cfg.StepTable {
		if r.LockIn > cfg.SprintStep.LockIn {
			rungs = append(rungs, r)
		}
	}
	return rungs
}

// trailOffset returns the trailing-stop distance. The offset tightens from
// TrailMaxOffset toward TrailMinOffset as the position's profit extreme
// covers the day's remaining distance to the daily target.
func trailOffset(cfg domain.EngineConfig, profitExtreme, dayPnL float64) float64 {
	remaining := cfg.DailyTarget - dayPnL
	if remaining <= 0 {
		return cfg.TrailMinOffset
	}
	frac := profitExtreme / remaining
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	return cfg.TrailMaxOffset - (cfg.TrailMaxOffset-cfg.TrailMinOffset)*frac
}

// tighten moves the stop toward profit and reports whether it moved.
// The stop never loosens.
func tighten(p *domain.Position, price float64) bool {
	if p.Side == domain.SideLong {
		if price > p.StopPrice {
			p.StopPrice = price
			return true
		}
		return false
	}
	if price < p.StopPrice {
		p.StopPrice = price
		return true
	}
	return false
}

// lockPrice converts a lock-in amount in points to an absolute stop price.
func lockPrice(p *domain.Position, lockIn float64) float64 {
	if p.Side == domain.SideLong {
		return p.EntryPrice + lockIn
	}
	return p.EntryPrice - lockIn
}

// UpdateProtection advances the stop state machine from the position's
// current profit extreme. Stepped rungs ratchet the stop as the extreme
// crosses their triggers; once the first rung has fired the trailing stop
// runs alongside, and whichever mechanism holds the tighter stop wins.
// State only moves forward: OpenRisk -> Stepped -> Trailing.
func UpdateProtection(cfg domain.EngineConfig, p *domain.Position, dayPnL float64) {
	rungs := stepRungs(cfg, p.Sprint)

	for p.StepIndex < len(rungs) && p.ProfitExtreme >= rungs[p.StepIndex].ProfitTrigger {
		if tighten(p, lockPrice(p, rungs[p.StepIndex].LockIn)) && p.State == domain.PositionOpenRisk {
			p.State = domain.PositionStepped
		}
		p.StepIndex++
	}

	if p.StepIndex == 0 {
		return
	}
	p.Trailing = true

	offset := trailOffset(cfg, p.ProfitExtreme, dayPnL)
	trail := p.HighWaterMark - offset
	if p.Side == domain.SideShort {
		trail = p.LowWaterMark + offset
	}
	if tighten(p, trail) {
		p.State = domain.PositionTrailing
	}
}

// NextStop returns the stop price the progression machine would set for the
// given position state and day pnl, without mutating the position.
func NextStop(cfg domain.EngineConfig, p domain.Position, dayPnL float64) float64 {
	UpdateProtection(cfg, &p, dayPnL)
	return p.StopPrice
}

// stopReason classifies a stop fill from the progression history.
func stopReason(p *domain.Position) string {
	switch p.State {
	case domain.PositionTrailing:
		return domain.ExitReasonTrailing
	case domain.PositionStepped:
		locked := p.StopPrice - p.EntryPrice
		if p.Side == domain.SideShort {
			locked = -locked
		}
		if locked > 1e-9 {
			return domain.ExitReasonStepped
		}
		return domain.ExitReasonBreakeven
	default:
		return domain.ExitReasonStop
	}
}
