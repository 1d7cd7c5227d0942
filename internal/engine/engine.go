// Package engine owns the per-run simulation state and the per-bar control
// flow: calendar classification, level maintenance, order placement and
// fills, position management, risk governance and ledger recording.
package engine

import (
	"errors"
	"log"

	"intraday-level-lab/internal/calendar"
	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/feed"
	"intraday-level-lab/internal/idhash"
	"intraday-level-lab/internal/ledger"
	"intraday-level-lab/internal/levels"
	"intraday-level-lab/internal/orderbook"
	"intraday-level-lab/internal/position"
	"intraday-level-lab/internal/risk"
)

// ErrNoBars indicates a run invoked with an empty bar sequence.
var ErrNoBars = errors.New("engine: no bars to replay")

// Options configures a simulation run.
type Options struct {
	Config domain.EngineConfig
	// RunID identifies the run; derived from the bar range when empty.
	RunID string
	// Strategy selects the order-placement variant; nil means limit placement.
	Strategy orderbook.PlacementStrategy
	// BreakPolicy decides which exits invalidate a level; nil means the
	// genuine-loss policy at the configured threshold.
	BreakPolicy risk.BreakPolicy
	Logger      *log.Logger
}

// Engine replays one bar sequence against one configuration.
// All mutable state belongs to this instance; parameter sweeps run one
// independent Engine per configuration.
type Engine struct {
	cfg         domain.EngineConfig
	runID       string
	breakPolicy risk.BreakPolicy
	logger      *log.Logger

	resolver  *calendar.Resolver
	registry  *levels.Registry
	book      *orderbook.Book
	positions *position.Manager
	governor  *risk.Governor
	ledger    *ledger.Ledger

	barIdx    int
	curDay    string
	curWeek   string
	entryDay  string // trading day of the open position's entry
	lastPrice float64
}

// Result is the read-only outcome of a run.
type Result struct {
	RunID   string
	Trades  []domain.Trade
	Days    []domain.DaySummary
	Stats   ledger.Stats
	Bars    int // primary bars replayed
	Skipped int // non-primary bars dropped

	// Order lifecycle counts over the whole run.
	OrdersPlaced  int
	OrdersFilled  int
	OrdersExpired int
}

// New creates an engine for one run.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	policy := opts.BreakPolicy
	if policy == nil {
		policy = risk.LossBreakPolicy(opts.Config.BreakLossThreshold)
	}

	return &Engine{
		cfg:         opts.Config,
		runID:       opts.RunID,
		breakPolicy: policy,
		logger:      logger,
		resolver:    calendar.NewResolver(),
		registry:    levels.NewRegistry(opts.Config),
		book:        orderbook.NewBook(opts.Config, opts.Strategy),
		positions:   position.NewManager(opts.Config),
		governor:    risk.NewGovernor(opts.Config),
		ledger:      ledger.New(),
	}
}

// Run replays the bar sequence. Bars must be ordered by timestamp; the
// continuous-contract primary map is elected from the full sequence, and
// non-primary bars are dropped after the rollover-exit check.
func (e *Engine) Run(bars []domain.Bar) (*Result, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	if e.runID == "" {
		e.runID = idhash.ComputeRunID("bars", "default",
			bars[0].TimestampMs, bars[len(bars)-1].TimestampMs)
	}

	primary := feed.BuildPrimaryMap(bars)
	lastClose := make(map[string]float64)
	skipped := 0

	for _, bar := range bars {
		ctx := e.resolver.Resolve(bar.TimestampMs)
		if ctx.TradingDay != e.curDay {
			e.rollDay(ctx, bar.TimestampMs)
		}

		sym := primary.PrimaryAt(bar.TimestampMs)
		if p := e.positions.Position(); p != nil && p.Symbol != sym {
			px, ok := lastClose[p.Symbol]
			if !ok {
				px = bar.Close
			}
			e.finishTrade(e.positions.ForceClose(px, bar.TimestampMs, domain.ExitReasonRollover))
			e.book.CancelAll()
		}
		lastClose[bar.Symbol] = bar.Close

		if bar.Symbol != sym {
			skipped++
			continue
		}
		e.step(bar, ctx)
	}

	// End of input: flatten and close out the final day.
	last := bars[len(bars)-1]
	e.finishTrade(e.positions.ForceClose(e.lastPrice, last.TimestampMs, domain.ExitReasonForced))
	if closed := e.governor.CloseDay(); closed != nil {
		e.ledger.AppendDay(*closed.Summary(e.runID))
	}

	placed, filled, expired := e.book.Counts()
	return &Result{
		RunID:         e.runID,
		Trades:        e.ledger.Trades(),
		Days:          e.ledger.Days(),
		Stats:         e.ledger.Stats(),
		Bars:          e.barIdx,
		Skipped:       skipped,
		OrdersPlaced:  placed,
		OrdersFilled:  filled,
		OrdersExpired: expired,
	}, nil
}

// step processes one primary bar. Within a bar: levels update first, then
// the open position is managed, or (never both) pending orders are checked
// and new ones placed.
func (e *Engine) step(bar domain.Bar, ctx calendar.Context) {
	e.barIdx++
	e.lastPrice = bar.Close
	e.registry.Update(bar, ctx.Session)

	if e.positions.HasPosition() {
		if e.forcedCloseDue(ctx) {
			e.finishTrade(e.positions.ForceClose(bar.Open, bar.TimestampMs, domain.ExitReasonForced))
			return
		}
		e.finishTrade(e.positions.OnBar(bar, e.barIdx, bar.TimestampMs, e.governor.DayPnL()))
		return
	}

	e.book.Expire(e.barIdx)
	if !e.governor.AllowsEntry() {
		e.book.CancelAll()
		return
	}
	if o, ok := e.book.Fill(bar); ok {
		e.positions.Open(o, bar, e.barIdx, bar.TimestampMs)
		e.entryDay = ctx.TradingDay
		return
	}
	if ctx.Session == calendar.SessionRegular && ctx.LocalHour < e.cfg.LastEntryHour {
		e.book.Place(
			e.registry.LongLevels(bar.Close),
			e.registry.ShortLevels(bar.Close),
			bar.Close, e.barIdx, e.governor.DayPnL(),
		)
	}
}

// forcedCloseDue reports whether the session has reached the flatten hour.
func (e *Engine) forcedCloseDue(ctx calendar.Context) bool {
	if ctx.Session != calendar.SessionRegular && ctx.Session != calendar.SessionAfterhours {
		return false
	}
	return ctx.LocalHour >= e.cfg.ForcedCloseHour
}

// rollDay closes out the current trading day and opens the next.
// The losing-day accounting applies to the closed day's own week before
// any week reset.
func (e *Engine) rollDay(ctx calendar.Context, tsMs int64) {
	e.finishTrade(e.positions.ForceClose(e.lastPrice, tsMs, domain.ExitReasonForced))

	if closed := e.governor.CloseDay(); closed != nil {
		e.ledger.AppendDay(*closed.Summary(e.runID))
		e.logger.Printf("day %s closed: pnl=%.2f trades=%d", closed.Day, closed.PnL, closed.Trades)
	}
	e.registry.Rollover()
	e.book.CancelAll()

	if ctx.Week != e.curWeek {
		e.governor.StartWeek(ctx.Week)
		e.curWeek = ctx.Week
	}
	e.governor.StartDay(ctx.TradingDay, ctx.Holiday)
	e.curDay = ctx.TradingDay
}

// finishTrade stamps, records and applies one closed trade. nil is a no-op
// so call sites can pass the manager's result through unconditionally.
func (e *Engine) finishTrade(tr *domain.Trade) {
	if tr == nil {
		return
	}
	tr.RunID = e.runID
	tr.TradingDay = e.entryDay
	tr.TradeID = idhash.ComputeTradeID(tr.Symbol, tr.Level, tr.Side, tr.EntryTimeMs)

	e.ledger.Append(*tr)
	e.governor.RecordTrade(tr.PnLPoints)
	if e.breakPolicy(tr) {
		e.registry.MarkBroken(tr.Level)
	}
	e.logger.Printf("trade %s %s@%s: %s %.2f -> %.2f pnl=%.2f (%s)",
		tr.TradeID[:8], tr.Symbol, tr.TradingDay, tr.Side,
		tr.EntryPrice, tr.ExitPrice, tr.PnLPoints, tr.ExitReason)
}
