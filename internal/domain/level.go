package domain

// LevelKind names a reference price level tracked by the level registry.
type LevelKind string

// Level kinds. Prior-day and overnight levels are fixed at day rollover;
// session high/low and VWAP develop through the regular session; round
// numbers are derived from the current price on demand.
const (
	LevelPriorDayHigh       LevelKind = "prior_day_high"
	LevelPriorDayLow        LevelKind = "prior_day_low"
	LevelPriorDayClose      LevelKind = "prior_day_close"
	LevelPriorDayMid        LevelKind = "prior_day_mid"
	LevelOvernightHigh      LevelKind = "overnight_high"
	LevelOvernightLow       LevelKind = "overnight_low"
	LevelOpeningRangeHigh   LevelKind = "opening_range_high"
	LevelOpeningRangeLow    LevelKind = "opening_range_low"
	LevelInitialBalanceHigh LevelKind = "initial_balance_high"
	LevelInitialBalanceLow  LevelKind = "initial_balance_low"
	LevelSessionHigh        LevelKind = "session_high"
	LevelSessionLow         LevelKind = "session_low"
	LevelSessionVWAP        LevelKind = "session_vwap"
	LevelRoundCoarseBelow   LevelKind = "round_coarse_below"
	LevelRoundCoarseAbove   LevelKind = "round_coarse_above"
	LevelRoundFineBelow     LevelKind = "round_fine_below"
	LevelRoundFineAbove     LevelKind = "round_fine_above"
)

// Level is a named price eligible for order placement. Broken-level
// bookkeeping lives in the registry; levels it hands out are never broken.
type Level struct {
	Kind  LevelKind
	Price float64
}
