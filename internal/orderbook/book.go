package orderbook

import (
	"intraday-level-lab/internal/domain"
)

// Book holds the pending limit orders of a simulation run.
// Single-threaded by construction; the engine drives it bar by bar.
type Book struct {
	cfg      domain.EngineConfig
	strategy PlacementStrategy
	orders   []domain.PendingOrder

	// Lifetime counters over the whole run.
	placed  int
	filled  int
	expired int
}

// NewBook creates an empty book. A nil strategy selects limit placement
// with the configured target distance.
func NewBook(cfg domain.EngineConfig, strategy PlacementStrategy) *Book {
	if strategy == nil {
		strategy = &LimitPlacement{TargetPoints: cfg.TargetPoints}
	}
	return &Book{cfg: cfg, strategy: strategy}
}

// Pending returns the resting orders in placement order.
func (b *Book) Pending() []domain.PendingOrder {
	out := make([]domain.PendingOrder, len(b.orders))
	copy(out, b.orders)
	return out
}

// CancelAll drops every resting order.
func (b *Book) CancelAll() {
	b.orders = b.orders[:0]
}

// Expire cancels orders that have rested for the configured bar count
// without filling.
func (b *Book) Expire(barIdx int) {
	kept := b.orders[:0]
	for _, o := range b.orders {
		if barIdx-o.PlacedBar < b.cfg.OrderMaxAgeBars {
			kept = append(kept, o)
		} else {
			b.expired++
		}
	}
	b.orders = kept
}

// Fill checks the resting orders against one bar. A buy limit fills when
// the bar's low reaches its price, a sell limit when the bar's high does.
// When a bar crosses several limits the earliest-placed order wins. On any
// fill every sibling order is cancelled and the filled order is returned.
func (b *Book) Fill(bar domain.Bar) (domain.PendingOrder, bool) {
	for _, o := range b.orders {
		filled := false
		if o.Side == domain.SideLong {
			filled = bar.Low <= o.LimitPrice
		} else {
			filled = bar.High >= o.LimitPrice
		}
		if filled {
			b.filled++
			b.orders = b.orders[:0]
			return o, true
		}
	}
	return domain.PendingOrder{}, false
}

// Place rests new orders at eligible levels. Eligibility: the level is not
// already represented by a pending order and its distance from the close
// lies within the proximity band. Band and stop distance follow the day's
// running pnl: the sprint band and stop once pnl crosses the sprint
// threshold, the ultra stop once it crosses the ultra threshold.
// The caller gates placement on session, cutoff hour, open position and
// risk governance.
func (b *Book) Place(longs, shorts []domain.Level, close float64, barIdx int, dayPnL float64) {
	sprint := dayPnL >= b.cfg.SprintPnL

	minDist, maxDist := b.cfg.EntryBandMin, b.cfg.EntryBandMax
	if sprint {
		minDist, maxDist = b.cfg.SprintBandMin, b.cfg.SprintBandMax
	}

	stop := b.cfg.StopPoints
	switch {
	case dayPnL >= b.cfg.UltraPnL:
		stop = b.cfg.UltraStopPoints
	case sprint:
		stop = b.cfg.SprintStopPoints
	}
	params := EntryParams{StopPoints: stop, Sprint: sprint}

	for _, l := range longs {
		if b.has(l.Kind) {
			continue
		}
		if d := close - l.Price; d < minDist || d > maxDist {
			continue
		}
		b.rest(b.strategy.Orders(l, domain.SideLong, barIdx, params))
	}
	for _, l := range shorts {
		if b.has(l.Kind) {
			continue
		}
		if d := l.Price - close; d < minDist || d > maxDist {
			continue
		}
		b.rest(b.strategy.Orders(l, domain.SideShort, barIdx, params))
	}
}

// rest appends newly placed orders and counts them.
func (b *Book) rest(orders []domain.PendingOrder) {
	b.orders = append(b.orders, orders...)
	b.placed += len(orders)
}

// Counts reports the run-lifetime order counts: placed, filled and expired.
// Sibling cancellations on fill are neither fills nor expiries.
func (b *Book) Counts() (placed, filled, expired int) {
	return b.placed, b.filled, b.expired
}

// has reports whether a level kind already carries a resting order.
func (b *Book) has(kind domain.LevelKind) bool {
	for _, o := range b.orders {
		if o.Level == kind {
			return true
		}
	}
	return false
}
