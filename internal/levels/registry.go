// Package levels maintains the per-day reference price levels the order
// book places entries at: prior-day extremes, overnight extremes, opening
// range, initial balance, developing session extremes, session VWAP and
// round-number grids.
package levels

import (
	"math"
	"sort"

	"intraday-level-lab/internal/calendar"
	"intraday-level-lab/internal/domain"
)

// Registry tracks the level set of the current trading day.
// It is owned by a single simulation run and is not safe for concurrent use.
type Registry struct {
	cfg domain.EngineConfig

	// Fixed levels snapshotted at day rollover.
	fixed map[domain.LevelKind]float64

	// Per-day broken flags, cleared at rollover.
	broken map[domain.LevelKind]bool

	// Overnight accumulators for the current trading day.
	onHigh, onLow float64
	onBars        int

	// Regular-session accumulators for the current trading day.
	regBars            int
	orbHigh, orbLow    float64
	ibHigh, ibLow      float64
	sessHigh, sessLow  float64
	vwapPV, vwapVolume float64

	// Running close for the day becoming prior-day close at rollover.
	lastRegularClose float64
}

// NewRegistry creates an empty registry; no levels are defined until the
// first rollover and the first bars of the new day arrive.
func NewRegistry(cfg domain.EngineConfig) *Registry {
	return &Registry{
		cfg:    cfg,
		fixed:  make(map[domain.LevelKind]float64),
		broken: make(map[domain.LevelKind]bool),
	}
}

// Rollover closes out the current day: the completed regular session
// becomes the prior-day levels of the new day, and every intraday
// accumulator and broken flag resets.
func (r *Registry) Rollover() {
	fixed := make(map[domain.LevelKind]float64)

	if r.regBars > 0 {
		fixed[domain.LevelPriorDayHigh] = r.sessHigh
		fixed[domain.LevelPriorDayLow] = r.sessLow
		fixed[domain.LevelPriorDayClose] = r.lastRegularClose
		fixed[domain.LevelPriorDayMid] = (r.sessHigh + r.sessLow) / 2
	}

	r.fixed = fixed
	r.broken = make(map[domain.LevelKind]bool)
	r.onHigh, r.onLow, r.onBars = 0, 0, 0
	r.regBars = 0
	r.orbHigh, r.orbLow = 0, 0
	r.ibHigh, r.ibLow = 0, 0
	r.sessHigh, r.sessLow = 0, 0
	r.vwapPV, r.vwapVolume = 0, 0
}

// Update feeds one bar of the current trading day into the accumulators.
func (r *Registry) Update(bar domain.Bar, session calendar.Session) {
	switch session {
	case calendar.SessionOvernight:
		if r.onBars == 0 {
			r.onHigh, r.onLow = bar.High, bar.Low
		} else {
			r.onHigh = math.Max(r.onHigh, bar.High)
			r.onLow = math.Min(r.onLow, bar.Low)
		}
		r.onBars++

	case calendar.SessionRegular:
		r.regBars++
		if r.regBars == 1 {
			r.orbHigh, r.orbLow = bar.High, bar.Low
			r.ibHigh, r.ibLow = bar.High, bar.Low
			r.sessHigh, r.sessLow = bar.High, bar.Low
		} else {
			if r.regBars <= r.cfg.ORBBars {
				r.orbHigh = math.Max(r.orbHigh, bar.High)
				r.orbLow = math.Min(r.orbLow, bar.Low)
			}
			if r.regBars <= r.cfg.IBBars {
				r.ibHigh = math.Max(r.ibHigh, bar.High)
				r.ibLow = math.Min(r.ibLow, bar.Low)
			}
			r.sessHigh = math.Max(r.sessHigh, bar.High)
			r.sessLow = math.Min(r.sessLow, bar.Low)
		}
		typical := (bar.High + bar.Low + bar.Close) / 3
		r.vwapPV += typical * bar.Volume
		r.vwapVolume += bar.Volume
		r.lastRegularClose = bar.Close
	}
}

// MarkBroken invalidates a level for the remainder of the trading day.
func (r *Registry) MarkBroken(kind domain.LevelKind) {
	r.broken[kind] = true
}

// Broken reports whether a level has been invalidated today.
func (r *Registry) Broken(kind domain.LevelKind) bool {
	return r.broken[kind]
}

// defined returns every currently-defined non-round level.
func (r *Registry) defined() map[domain.LevelKind]float64 {
	out := make(map[domain.LevelKind]float64, len(r.fixed)+7)
	for k, v := range r.fixed {
		out[k] = v
	}
	if r.onBars > 0 {
		out[domain.LevelOvernightHigh] = r.onHigh
		out[domain.LevelOvernightLow] = r.onLow
	}
	if r.regBars >= r.cfg.ORBBars {
		out[domain.LevelOpeningRangeHigh] = r.orbHigh
		out[domain.LevelOpeningRangeLow] = r.orbLow
	}
	if r.regBars >= r.cfg.IBBars {
		out[domain.LevelInitialBalanceHigh] = r.ibHigh
		out[domain.LevelInitialBalanceLow] = r.ibLow
	}
	if r.regBars > r.cfg.IBBars {
		out[domain.LevelSessionHigh] = r.sessHigh
		out[domain.LevelSessionLow] = r.sessLow
		if r.vwapVolume > 0 {
			out[domain.LevelSessionVWAP] = r.vwapPV / r.vwapVolume
		}
	}
	return out
}

// shortKinds is the set of level kinds enumerated on the short side.
// Shorts fade structural ceilings only; VWAP and opening-range levels are
// long-only, matching the live strategy's behavior.
var shortKinds = map[domain.LevelKind]bool{
	domain.LevelPriorDayHigh:       true,
	domain.LevelOvernightHigh:      true,
	domain.LevelInitialBalanceHigh: true,
	domain.LevelSessionHigh:        true,
}

// LongLevels returns the non-broken defined levels strictly below price,
// nearest first, with the round-number grid levels appended on demand.
func (r *Registry) LongLevels(price float64) []domain.Level {
	var out []domain.Level
	for kind, p := range r.defined() {
		if p < price && !r.broken[kind] {
			out = append(out, domain.Level{Kind: kind, Price: p})
		}
	}
	out = append(out, r.roundLevels(price, domain.SideLong)...)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price > out[j].Price // nearest below first
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// ShortLevels returns the non-broken defined short-side levels strictly
// above price, nearest first.
func (r *Registry) ShortLevels(price float64) []domain.Level {
	var out []domain.Level
	for kind, p := range r.defined() {
		if p > price && shortKinds[kind] && !r.broken[kind] {
			out = append(out, domain.Level{Kind: kind, Price: p})
		}
	}
	out = append(out, r.roundLevels(price, domain.SideShort)...)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price // nearest above first
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// roundLevels derives the round-number levels adjacent to price on the
// requested side from the coarse and fine grids.
func (r *Registry) roundLevels(price float64, side domain.Side) []domain.Level {
	var out []domain.Level
	add := func(kind domain.LevelKind, p float64) {
		if !r.broken[kind] {
			out = append(out, domain.Level{Kind: kind, Price: p})
		}
	}

	if side == domain.SideLong {
		add(domain.LevelRoundCoarseBelow, gridBelow(price, r.cfg.RoundCoarse))
		add(domain.LevelRoundFineBelow, gridBelow(price, r.cfg.RoundFine))
	} else {
		add(domain.LevelRoundCoarseAbove, gridAbove(price, r.cfg.RoundCoarse))
		add(domain.LevelRoundFineAbove, gridAbove(price, r.cfg.RoundFine))
	}
	return out
}

// gridBelow floors price onto the grid, stepping down when already on it.
func gridBelow(price, grid float64) float64 {
	p := math.Floor(price/grid) * grid
	if p >= price {
		p -= grid
	}
	return p
}

// gridAbove ceils price onto the grid, stepping up when already on it.
func gridAbove(price, grid float64) float64 {
	p := math.Ceil(price/grid) * grid
	if p <= price {
		p += grid
	}
	return p
}
