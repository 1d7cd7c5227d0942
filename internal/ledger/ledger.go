// Package ledger is the append-only record of a simulation run: closed
// trades in close order plus one summary per trading day, with the
// aggregate computation reporting builds on.
package ledger

import (
	"intraday-level-lab/internal/domain"
)

// Ledger collects the output of one simulation run.
// Records are append-only; readers get copies.
type Ledger struct {
	trades []domain.Trade
	days   []domain.DaySummary
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Append records a closed trade.
func (l *Ledger) Append(t domain.Trade) {
	l.trades = append(l.trades, t)
}

// AppendDay records a closed-out trading day.
func (l *Ledger) AppendDay(s domain.DaySummary) {
	l.days = append(l.days, s)
}

// Trades returns the recorded trades in close order.
func (l *Ledger) Trades() []domain.Trade {
	out := make([]domain.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Days returns the recorded day summaries in day order.
func (l *Ledger) Days() []domain.DaySummary {
	out := make([]domain.DaySummary, len(l.days))
	copy(out, l.days)
	return out
}

// GroupStats aggregates one slice of the trade population.
type GroupStats struct {
	Count int
	Wins  int
	PnL   float64
}

// Stats is the aggregate view of a run's ledger.
type Stats struct {
	Trades       int
	Wins         int
	Losses       int
	Scratches    int
	WinRate      float64 // wins over decided (non-scratch) trades
	NetPnL       float64
	GrossProfit  float64
	GrossLoss    float64 // absolute value
	ProfitFactor float64 // gross profit over gross loss; 0 when no losses
	ByExitReason map[string]GroupStats
	ByLevel      map[domain.LevelKind]GroupStats

	TradingDays int
	WinningDays int
	LosingDays  int
	TargetDays  int
}

// scratchBand is the pnl band treated as neither win nor loss.
const scratchBand = 0.25

// Stats computes the aggregates over everything recorded so far.
func (l *Ledger) Stats() Stats {
	s := Stats{
		ByExitReason: make(map[string]GroupStats),
		ByLevel:      make(map[domain.LevelKind]GroupStats),
	}

	for _, t := range l.trades {
		s.Trades++
		s.NetPnL += t.PnLPoints
		switch {
		case t.PnLPoints > scratchBand:
			s.Wins++
			s.GrossProfit += t.PnLPoints
		case t.PnLPoints < -scratchBand:
			s.Losses++
			s.GrossLoss += -t.PnLPoints
		default:
			s.Scratches++
		}

		r := s.ByExitReason[t.ExitReason]
		r.Count++
		r.PnL += t.PnLPoints
		if t.PnLPoints > scratchBand {
			r.Wins++
		}
		s.ByExitReason[t.ExitReason] = r

		lv := s.ByLevel[t.Level]
		lv.Count++
		lv.PnL += t.PnLPoints
		if t.PnLPoints > scratchBand {
			lv.Wins++
		}
		s.ByLevel[t.Level] = lv
	}

	if decided := s.Wins + s.Losses; decided > 0 {
		s.WinRate = float64(s.Wins) / float64(decided)
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}

	for _, d := range l.days {
		if d.Holiday && d.Trades == 0 {
			continue
		}
		s.TradingDays++
		switch {
		case d.PnL > 0:
			s.WinningDays++
		case d.PnL < 0 && d.Trades > 0:
			s.LosingDays++
		}
		if d.TargetHit {
			s.TargetDays++
		}
	}
	return s
}
