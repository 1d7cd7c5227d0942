// Package verification checks that stored run results match a fresh
// replay of the same bars under the same parameters. A simulation is
// only trustworthy if this reproduction is exact.
package verification

import (
	"math"

	"intraday-level-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// TradeResult contains the result of verifying a single trade.
type TradeResult struct {
	TradeID     string
	Match       bool
	Divergences []FieldDivergence
}

// Report contains results for a full run verification.
type Report struct {
	TotalTrades     int
	MatchedTrades   int
	DivergentTrades int
	MissingTrades   []string // stored but absent from the replay
	ExtraTrades     []string // replayed but absent from storage
	DayDivergences  []FieldDivergence
	Results         []TradeResult
}

// Match reports whether the replay reproduced storage exactly.
func (r *Report) Match() bool {
	return r.DivergentTrades == 0 &&
		len(r.MissingTrades) == 0 &&
		len(r.ExtraTrades) == 0 &&
		len(r.DayDivergences) == 0
}

// CompareTrades compares a stored trade against its replayed counterpart
// and returns divergences. Uses FloatTolerance for float64 comparisons.
func CompareTrades(stored, replayed *domain.Trade) []FieldDivergence {
	var divergences []FieldDivergence

	addStr := func(field, exp, act string) {
		if exp != act {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: exp, Actual: act})
		}
	}
	addInt := func(field string, exp, act int64) {
		if exp != act {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: exp, Actual: act})
		}
	}
	addFloat := func(field string, exp, act float64) {
		if !floatEquals(exp, act) {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: exp, Actual: act})
		}
	}

	addStr("TradeID", stored.TradeID, replayed.TradeID)
	addStr("RunID", stored.RunID, replayed.RunID)
	addStr("Symbol", stored.Symbol, replayed.Symbol)
	addStr("Side", string(stored.Side), string(replayed.Side))
	addStr("Level", string(stored.Level), string(replayed.Level))
	addStr("TradingDay", stored.TradingDay, replayed.TradingDay)

	addInt("EntryTimeMs", stored.EntryTimeMs, replayed.EntryTimeMs)
	addInt("ExitTimeMs", stored.ExitTimeMs, replayed.ExitTimeMs)
	addFloat("EntryPrice", stored.EntryPrice, replayed.EntryPrice)
	addFloat("ExitPrice", stored.ExitPrice, replayed.ExitPrice)

	addFloat("PnLPoints", stored.PnLPoints, replayed.PnLPoints)
	addStr("ExitReason", stored.ExitReason, replayed.ExitReason)
	addInt("BarsHeld", int64(stored.BarsHeld), int64(replayed.BarsHeld))
	addFloat("MFE", stored.MFE, replayed.MFE)
	addFloat("MAE", stored.MAE, replayed.MAE)

	if stored.Sprint != replayed.Sprint {
		divergences = append(divergences, FieldDivergence{
			Field: "Sprint", Expected: stored.Sprint, Actual: replayed.Sprint,
		})
	}

	return divergences
}

// CompareDaySummaries compares stored and replayed summaries of one day.
func CompareDaySummaries(stored, replayed *domain.DaySummary) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.Day != replayed.Day {
		divergences = append(divergences, FieldDivergence{Field: "Day", Expected: stored.Day, Actual: replayed.Day})
	}
	if !floatEquals(stored.PnL, replayed.PnL) {
		divergences = append(divergences, FieldDivergence{Field: "PnL", Expected: stored.PnL, Actual: replayed.PnL})
	}
	if stored.Trades != replayed.Trades {
		divergences = append(divergences, FieldDivergence{Field: "Trades", Expected: stored.Trades, Actual: replayed.Trades})
	}
	if stored.Done != replayed.Done {
		divergences = append(divergences, FieldDivergence{Field: "Done", Expected: stored.Done, Actual: replayed.Done})
	}
	if stored.TargetHit != replayed.TargetHit {
		divergences = append(divergences, FieldDivergence{Field: "TargetHit", Expected: stored.TargetHit, Actual: replayed.TargetHit})
	}
	if stored.Holiday != replayed.Holiday {
		divergences = append(divergences, FieldDivergence{Field: "Holiday", Expected: stored.Holiday, Actual: replayed.Holiday})
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
