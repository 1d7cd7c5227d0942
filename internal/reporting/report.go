// Package reporting renders a run's ledger into markdown and CSV.
package reporting

import (
	"time"

	"intraday-level-lab/internal/ledger"
)

// Report is the renderable view of one simulation run.
type Report struct {
	// Metadata
	ReportID    string // unique per generation, the run ID stays stable
	GeneratedAt time.Time
	RunID       string

	// Aggregates over the whole run
	Stats ledger.Stats

	// Breakdown tables (sorted for deterministic output)
	ExitReasons []ExitReasonRow
	Levels      []LevelRow
	Days        []DayRow
}

// ExitReasonRow is one row of the per-exit-reason breakdown.
type ExitReasonRow struct {
	Reason string
	Count  int
	Wins   int
	PnL    float64
}

// LevelRow is one row of the per-level breakdown.
type LevelRow struct {
	Level string
	Count int
	Wins  int
	PnL   float64
}

// DayRow is one row of the per-day table.
type DayRow struct {
	Day       string
	PnL       float64
	Trades    int
	Done      bool
	TargetHit bool
	Holiday   bool
}
