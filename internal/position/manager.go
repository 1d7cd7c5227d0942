package position

import (
	"math"

	"intraday-level-lab/internal/domain"
)

// Manager owns the at-most-one open position of a simulation run.
// It is single-threaded by construction; the engine drives it bar by bar.
type Manager struct {
	cfg domain.EngineConfig
	pos *domain.Position
}

// NewManager creates a manager with no open position.
func NewManager(cfg domain.EngineConfig) *Manager {
	return &Manager{cfg: cfg}
}

// HasPosition reports whether a position is open.
func (m *Manager) HasPosition() bool { return m.pos != nil }

// Position returns the open position, or nil.
func (m *Manager) Position() *domain.Position { return m.pos }

// Open fills a pending order at its limit price and opens the position.
// The caller guarantees no position is currently open.
func (m *Manager) Open(o domain.PendingOrder, bar domain.Bar, barIdx int, tsMs int64) *domain.Position {
	stop := o.LimitPrice - o.StopPoints
	if o.Side == domain.SideShort {
		stop = o.LimitPrice + o.StopPoints
	}
	m.pos = &domain.Position{
		Symbol:        bar.Symbol,
		Side:          o.Side,
		Level:         o.Level,
		EntryPrice:    o.LimitPrice,
		EntryTimeMs:   tsMs,
		EntryBar:      barIdx,
		StopPoints:    o.StopPoints,
		StopPrice:     stop,
		TargetPrice:   o.TargetPrice,
		State:         domain.PositionOpenRisk,
		Sprint:        o.Sprint,
		HighWaterMark: o.LimitPrice,
		LowWaterMark:  o.LimitPrice,
	}
	return m.pos
}

// OnBar evaluates the open position against one bar and returns the closed
// trade when an exit fires, or nil. Exit priority within the bar: gap
// protection at the open, then stop, then target, then the time limit.
// Stop ratchets computed from this bar's extremes only apply from the next
// bar on. The entry bar itself is not evaluated.
func (m *Manager) OnBar(bar domain.Bar, barIdx int, tsMs int64, dayPnL float64) *domain.Trade {
	p := m.pos
	if p == nil || barIdx == p.EntryBar {
		return nil
	}
	p.BarsHeld++

	if p.Side == domain.SideLong {
		if bar.Open <= p.StopPrice-m.cfg.GapBuffer {
			return m.close(bar.Open, tsMs, domain.ExitReasonGapStop)
		}
		if bar.Low <= p.StopPrice {
			fill := p.StopPrice
			if bar.Open < p.StopPrice {
				fill = math.Max(bar.Open, p.StopPrice-m.cfg.SlippageCap)
			}
			return m.close(fill, tsMs, stopReason(p))
		}
		if bar.High >= p.TargetPrice {
			return m.close(p.TargetPrice, tsMs, domain.ExitReasonTarget)
		}
	} else {
		if bar.Open >= p.StopPrice+m.cfg.GapBuffer {
			return m.close(bar.Open, tsMs, domain.ExitReasonGapStop)
		}
		if bar.High >= p.StopPrice {
			fill := p.StopPrice
			if bar.Open > p.StopPrice {
				fill = math.Min(bar.Open, p.StopPrice+m.cfg.SlippageCap)
			}
			return m.close(fill, tsMs, stopReason(p))
		}
		if bar.Low <= p.TargetPrice {
			return m.close(p.TargetPrice, tsMs, domain.ExitReasonTarget)
		}
	}

	p.HighWaterMark = math.Max(p.HighWaterMark, bar.High)
	p.LowWaterMark = math.Min(p.LowWaterMark, bar.Low)
	if p.Side == domain.SideLong {
		p.ProfitExtreme = math.Max(p.ProfitExtreme, p.UnrealizedAt(bar.High))
		p.AdverseExtreme = math.Min(p.AdverseExtreme, p.UnrealizedAt(bar.Low))
	} else {
		p.ProfitExtreme = math.Max(p.ProfitExtreme, p.UnrealizedAt(bar.Low))
		p.AdverseExtreme = math.Min(p.AdverseExtreme, p.UnrealizedAt(bar.High))
	}
	UpdateProtection(m.cfg, p, dayPnL)

	if p.BarsHeld >= m.cfg.MaxHoldBars {
		return m.close(bar.Close, tsMs, domain.ExitReasonTime)
	}
	return nil
}

// ForceClose flattens the open position at the given price, for session-end,
// governance and contract-rollover closures. Returns nil when flat.
func (m *Manager) ForceClose(price float64, tsMs int64, reason string) *domain.Trade {
	if m.pos == nil {
		return nil
	}
	return m.close(price, tsMs, reason)
}

// close converts the open position into a trade record. RunID, TradingDay
// and TradeID are stamped by the engine.
func (m *Manager) close(price float64, tsMs int64, reason string) *domain.Trade {
	p := m.pos
	pnl := p.UnrealizedAt(price)
	p.State = domain.PositionClosed
	m.pos = nil

	return &domain.Trade{
		Symbol:      p.Symbol,
		Side:        p.Side,
		Level:       p.Level,
		EntryTimeMs: p.EntryTimeMs,
		ExitTimeMs:  tsMs,
		EntryPrice:  p.EntryPrice,
		ExitPrice:   price,
		PnLPoints:   pnl,
		ExitReason:  reason,
		BarsHeld:    p.BarsHeld,
		MFE:         math.Max(p.ProfitExtreme, pnl),
		MAE:         math.Min(p.AdverseExtreme, pnl),
		Sprint:      p.Sprint,
	}
}
