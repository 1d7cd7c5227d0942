package domain

// DayState accumulates risk-governance state for one trading day.
// A day in Done state accepts no new orders until the next non-holiday
// trading day.
type DayState struct {
	Day       string // trading-day key, "2026-01-27"
	PnL       float64
	Trades    int
	Done      bool
	TargetHit bool
	Holiday   bool
}

// WeekState accumulates risk-governance state for one calendar week.
// Two losing trading days lock the week for its remainder.
type WeekState struct {
	Week       string // week key, the Monday date of the week
	LosingDays int
	Done       bool
}

// DaySummary is the persisted form of a closed-out DayState.
type DaySummary struct {
	RunID     string
	Day       string
	PnL       float64
	Trades    int
	Done      bool
	TargetHit bool
	Holiday   bool
}

// Summary converts a DayState into its persisted form.
func (d *DayState) Summary(runID string) *DaySummary {
	return &DaySummary{
		RunID:     runID,
		Day:       d.Day,
		PnL:       d.PnL,
		Trades:    d.Trades,
		Done:      d.Done,
		TargetHit: d.TargetHit,
		Holiday:   d.Holiday,
	}
}
