package domain

// Trade is the immutable record of a closed position.
type Trade struct {
	TradeID    string // deterministic hash
	RunID      string // simulation run this trade belongs to
	Symbol     string
	Side       Side
	Level      LevelKind // originating registry level
	TradingDay string    // trading-day key at entry

	EntryTimeMs int64
	ExitTimeMs  int64
	EntryPrice  float64
	ExitPrice   float64

	PnLPoints  float64
	ExitReason string
	BarsHeld   int
	MFE        float64 // max favorable excursion, points
	MAE        float64 // max adverse excursion, points (<= 0)
	Sprint     bool
}

// Exit reason codes.
const (
	ExitReasonStop      = "stop"      // genuine stop-loss at the initial stop
	ExitReasonBreakeven = "breakeven" // stop ratcheted to entry, then hit
	ExitReasonStepped   = "stepped"   // stop ratcheted into profit, then hit
	ExitReasonTrailing  = "trailing"  // trailing stop hit
	ExitReasonTarget    = "target"    // fixed target reached
	ExitReasonTime      = "time"      // max holding duration elapsed
	ExitReasonForced    = "forced"    // session or week-end closure
	ExitReasonRollover  = "rollover"  // contract lost volume primacy
	ExitReasonGapStop   = "gap_stop"  // open gapped beyond the stop
)
