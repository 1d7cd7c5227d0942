package domain

// StepRung is one rung of the stepped-protection table: once the position's
// profit extreme crosses ProfitTrigger, the stop ratchets to entry + LockIn
// (mirrored for shorts).
type StepRung struct {
	ProfitTrigger float64
	LockIn        float64
}

// EngineConfig holds every tunable parameter of a simulation run.
// All values are in price points unless noted. Zero value is not usable;
// start from DefaultConfig.
type EngineConfig struct {
	// Protective stop distances by day mode.
	StopPoints       float64 // normal stop distance
	SprintStopPoints float64 // once day pnl >= SprintPnL
	UltraStopPoints  float64 // once day pnl >= UltraPnL
	TargetPoints     float64 // fixed target distance
	MaxHoldBars      int     // maximum holding duration

	// Entry proximity bands: a level is eligible only when its distance
	// from the current close lies within [Min, Max].
	EntryBandMin  float64
	EntryBandMax  float64
	SprintBandMin float64
	SprintBandMax float64

	// Day-pnl thresholds activating sprint and ultra-sprint behavior.
	SprintPnL float64
	UltraPnL  float64

	// Session timing, decimal local hours.
	LastEntryHour   float64 // no new orders at or after this hour
	ForcedCloseHour float64 // open positions are flattened at this hour

	// Daily and weekly risk governance.
	DailyTarget    float64
	DailyLossLimit float64 // negative
	WeekLossLimit  int     // losing days that lock the week

	// Pending-order lifecycle.
	OrderMaxAgeBars int

	// Stop-fill slippage model.
	SlippageCap float64 // worst allowed fill beyond the stop
	GapBuffer   float64 // open gap beyond stop+buffer closes at the open

	// Stepped and trailing protection.
	StepTable      []StepRung // ordered by ProfitTrigger ascending
	SprintStep     StepRung   // single earlier rung for sprint entries
	TrailMaxOffset float64    // trailing offset when the day target is far
	TrailMinOffset float64    // floor as the day target nears

	// Level registry windows and grids.
	ORBBars     int     // opening-range window, regular-session bars
	IBBars      int     // initial-balance window, regular-session bars
	RoundCoarse float64 // coarse round-number grid
	RoundFine   float64 // fine round-number grid

	// Broken-level policy: a level is invalidated only when the realized
	// loss exceeds this threshold.
	BreakLossThreshold float64
}

// DefaultConfig returns the baseline ES 1-minute parameter set.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		StopPoints:       10,
		SprintStopPoints: 7,
		UltraStopPoints:  5,
		TargetPoints:     50,
		MaxHoldBars:      120,

		EntryBandMin:  2,
		EntryBandMax:  18,
		SprintBandMin: 1,
		SprintBandMax: 10,

		SprintPnL: 25,
		UltraPnL:  45,

		LastEntryHour:   14.5,
		ForcedCloseHour: 16.0,

		DailyTarget:    60,
		DailyLossLimit: -45,
		WeekLossLimit:  2,

		OrderMaxAgeBars: 30,

		SlippageCap: 2,
		GapBuffer:   3,

		StepTable: []StepRung{
			{ProfitTrigger: 5, LockIn: 0},
			{ProfitTrigger: 15, LockIn: 5},
			{ProfitTrigger: 30, LockIn: 15},
		},
		SprintStep:     StepRung{ProfitTrigger: 3, LockIn: 0},
		TrailMaxOffset: 12,
		TrailMinOffset: 4,

		ORBBars:     15,
		IBBars:      60,
		RoundCoarse: 50,
		RoundFine:   10,

		BreakLossThreshold: 0.5,
	}
}
