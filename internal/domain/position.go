package domain

// PositionState tracks the protective-stop progression of the open position.
type PositionState string

// Position states. The machine only moves forward:
// OpenRisk -> Stepped -> Trailing -> Closed.
const (
	PositionOpenRisk PositionState = "open_risk"
	PositionStepped  PositionState = "stepped"
	PositionTrailing PositionState = "trailing"
	PositionClosed   PositionState = "closed"
)

// Position is the single open position of a simulation run.
// StopPrice only ever tightens toward profit; it never loosens.
type Position struct {
	Symbol      string
	Side        Side
	Level       LevelKind // originating registry level
	EntryPrice  float64
	EntryTimeMs int64
	EntryBar    int
	StopPoints  float64 // initial stop distance from entry
	StopPrice   float64
	TargetPrice float64

	State          PositionState
	StepIndex      int     // next stepped-protection rung to arm
	Trailing       bool    // trailing stop active (first step has fired)
	Sprint         bool    // entered while the day was in sprint mode
	HighWaterMark  float64 // highest trade price seen since entry
	LowWaterMark   float64 // lowest trade price seen since entry
	ProfitExtreme  float64 // best unrealized pnl in points (MFE)
	AdverseExtreme float64 // worst unrealized pnl in points (MAE, <= 0)
	BarsHeld       int
}

// UnrealizedAt returns the open pnl in points at the given price.
func (p *Position) UnrealizedAt(price float64) float64 {
	if p.Side == SideLong {
		return price - p.EntryPrice
	}
	return p.EntryPrice - price
}
