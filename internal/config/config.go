// Package config loads engine parameter sets from YAML files.
// Absent keys keep their DefaultConfig values, so a file only states
// what it changes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"intraday-level-lab/internal/domain"
)

// File is the on-disk shape of a parameter set.
type File struct {
	// Name identifies the parameter set in run IDs. Defaults to "default".
	Name string `yaml:"name"`

	StopPoints       *float64 `yaml:"stop_points"`
	SprintStopPoints *float64 `yaml:"sprint_stop_points"`
	UltraStopPoints  *float64 `yaml:"ultra_stop_points"`
	TargetPoints     *float64 `yaml:"target_points"`
	MaxHoldBars      *int     `yaml:"max_hold_bars"`

	EntryBandMin  *float64 `yaml:"entry_band_min"`
	EntryBandMax  *float64 `yaml:"entry_band_max"`
	SprintBandMin *float64 `yaml:"sprint_band_min"`
	SprintBandMax *float64 `yaml:"sprint_band_max"`

	SprintPnL *float64 `yaml:"sprint_pnl"`
	UltraPnL  *float64 `yaml:"ultra_pnl"`

	LastEntryHour   *float64 `yaml:"last_entry_hour"`
	ForcedCloseHour *float64 `yaml:"forced_close_hour"`

	DailyTarget    *float64 `yaml:"daily_target"`
	DailyLossLimit *float64 `yaml:"daily_loss_limit"`
	WeekLossLimit  *int     `yaml:"week_loss_limit"`

	OrderMaxAgeBars *int `yaml:"order_max_age_bars"`

	SlippageCap *float64 `yaml:"slippage_cap"`
	GapBuffer   *float64 `yaml:"gap_buffer"`

	StepTable  []rungYAML `yaml:"step_table"`
	SprintStep *rungYAML  `yaml:"sprint_step"`

	TrailMaxOffset *float64 `yaml:"trail_max_offset"`
	TrailMinOffset *float64 `yaml:"trail_min_offset"`

	ORBBars     *int     `yaml:"orb_bars"`
	IBBars      *int     `yaml:"ib_bars"`
	RoundCoarse *float64 `yaml:"round_coarse"`
	RoundFine   *float64 `yaml:"round_fine"`

	BreakLossThreshold *float64 `yaml:"break_loss_threshold"`
}

type rungYAML struct {
	ProfitTrigger float64 `yaml:"profit_trigger"`
	LockIn        float64 `yaml:"lock_in"`
}

// Load reads a YAML parameter file and overlays it on DefaultConfig.
func Load(path string) (string, domain.EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", domain.EngineConfig{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse overlays YAML content on DefaultConfig and validates the result.
// Returns the parameter-set name alongside the config.
func Parse(data []byte) (string, domain.EngineConfig, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", domain.EngineConfig{}, fmt.Errorf("parse config: %w", err)
	}

	name := f.Name
	if name == "" {
		name = "default"
	}

	cfg := domain.DefaultConfig()
	overlay(&cfg, &f)

	if err := Validate(cfg); err != nil {
		return "", domain.EngineConfig{}, err
	}
	return name, cfg, nil
}

func overlay(cfg *domain.EngineConfig, f *File) {
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setI := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setF(&cfg.StopPoints, f.StopPoints)
	setF(&cfg.SprintStopPoints, f.SprintStopPoints)
	setF(&cfg.UltraStopPoints, f.UltraStopPoints)
	setF(&cfg.TargetPoints, f.TargetPoints)
	setI(&cfg.MaxHoldBars, f.MaxHoldBars)

	setF(&cfg.EntryBandMin, f.EntryBandMin)
	setF(&cfg.EntryBandMax, f.EntryBandMax)
	setF(&cfg.SprintBandMin, f.SprintBandMin)
	setF(&cfg.SprintBandMax, f.SprintBandMax)

	setF(&cfg.SprintPnL, f.SprintPnL)
	setF(&cfg.UltraPnL, f.UltraPnL)

	setF(&cfg.LastEntryHour, f.LastEntryHour)
	setF(&cfg.ForcedCloseHour, f.ForcedCloseHour)

	setF(&cfg.DailyTarget, f.DailyTarget)
	setF(&cfg.DailyLossLimit, f.DailyLossLimit)
	setI(&cfg.WeekLossLimit, f.WeekLossLimit)

	setI(&cfg.OrderMaxAgeBars, f.OrderMaxAgeBars)

	setF(&cfg.SlippageCap, f.SlippageCap)
	setF(&cfg.GapBuffer, f.GapBuffer)

	if len(f.StepTable) > 0 {
		cfg.StepTable = make([]domain.StepRung, len(f.StepTable))
		for i, r := range f.StepTable {
			cfg.StepTable[i] = domain.StepRung{ProfitTrigger: r.ProfitTrigger, LockIn: r.LockIn}
		}
	}
	if f.SprintStep != nil {
		cfg.SprintStep = domain.StepRung{ProfitTrigger: f.SprintStep.ProfitTrigger, LockIn: f.SprintStep.LockIn}
	}

	setF(&cfg.TrailMaxOffset, f.TrailMaxOffset)
	setF(&cfg.TrailMinOffset, f.TrailMinOffset)

	setI(&cfg.ORBBars, f.ORBBars)
	setI(&cfg.IBBars, f.IBBars)
	setF(&cfg.RoundCoarse, f.RoundCoarse)
	setF(&cfg.RoundFine, f.RoundFine)

	setF(&cfg.BreakLossThreshold, f.BreakLossThreshold)
}

// Validate rejects parameter sets the engine cannot run safely.
func Validate(cfg domain.EngineConfig) error {
	if cfg.StopPoints <= 0 || cfg.SprintStopPoints <= 0 || cfg.UltraStopPoints <= 0 {
		return fmt.Errorf("stop distances must be positive")
	}
	if cfg.TargetPoints <= 0 {
		return fmt.Errorf("target_points must be positive")
	}
	if cfg.MaxHoldBars <= 0 {
		return fmt.Errorf("max_hold_bars must be positive")
	}
	if cfg.EntryBandMin < 0 || cfg.EntryBandMax <= cfg.EntryBandMin {
		return fmt.Errorf("entry band must satisfy 0 <= min < max")
	}
	if cfg.SprintBandMin < 0 || cfg.SprintBandMax <= cfg.SprintBandMin {
		return fmt.Errorf("sprint band must satisfy 0 <= min < max")
	}
	if cfg.DailyLossLimit >= 0 {
		return fmt.Errorf("daily_loss_limit must be negative")
	}
	if cfg.WeekLossLimit <= 0 {
		return fmt.Errorf("week_loss_limit must be positive")
	}
	if cfg.TrailMinOffset <= 0 || cfg.TrailMaxOffset < cfg.TrailMinOffset {
		return fmt.Errorf("trail offsets must satisfy 0 < min <= max")
	}
	for i := 1; i < len(cfg.StepTable); i++ {
		if cfg.StepTable[i].ProfitTrigger <= cfg.StepTable[i-1].ProfitTrigger {
			return fmt.Errorf("step_table must be ordered by ascending profit_trigger")
		}
	}
	for _, r := range cfg.StepTable {
		if r.LockIn > r.ProfitTrigger {
			return fmt.Errorf("step_table lock_in cannot exceed its profit_trigger")
		}
	}
	return nil
}
