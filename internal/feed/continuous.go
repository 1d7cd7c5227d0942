package feed

import (
	"sort"

	"intraday-level-lab/internal/domain"
)

const hourMs = 3_600_000

// PrimaryMap answers which contract symbol is primary at any timestamp.
// Primacy is elected per hour by traded volume and only ever rolls forward:
// once a symbol loses primacy it never regains it, so a volume flicker
// around the roll cannot bounce the engine between contracts.
type PrimaryMap struct {
	hours    []int64
	primary  map[int64]string
	fallback string
}

// BuildPrimaryMap elects the primary symbol for every hour covered by the
// bar sequence. The input does not need to be sorted.
func BuildPrimaryMap(bars []domain.Bar) *PrimaryMap {
	volumes := make(map[int64]map[string]float64)
	for _, b := range bars {
		hour := b.TimestampMs / hourMs
		bySym := volumes[hour]
		if bySym == nil {
			bySym = make(map[string]float64)
			volumes[hour] = bySym
		}
		bySym[b.Symbol] += b.Volume
	}

	hours := make([]int64, 0, len(volumes))
	for h := range volumes {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i] < hours[j] })

	m := &PrimaryMap{
		hours:   hours,
		primary: make(map[int64]string, len(hours)),
	}

	var current string
	retired := make(map[string]bool)
	for _, h := range hours {
		top := topSymbol(volumes[h])
		switch {
		case current == "":
			current = top
		case top != current && !retired[top] && volumes[h][top] > volumes[h][current]:
			retired[current] = true
			current = top
		}
		m.primary[h] = current
	}
	m.fallback = current
	return m
}

// topSymbol returns the highest-volume symbol of one hour; ties break to
// the lexicographically smaller symbol so elections are deterministic.
func topSymbol(bySym map[string]float64) string {
	var best string
	var bestVol float64
	for sym, vol := range bySym {
		if best == "" || vol > bestVol || (vol == bestVol && sym < best) {
			best, bestVol = sym, vol
		}
	}
	return best
}

// PrimaryAt returns the primary symbol at a timestamp. Hours without data
// inherit the election of the most recent covered hour.
func (m *PrimaryMap) PrimaryAt(tsMs int64) string {
	if len(m.hours) == 0 {
		return ""
	}
	hour := tsMs / hourMs
	// Last covered hour at or before the timestamp.
	idx := sort.Search(len(m.hours), func(i int) bool { return m.hours[i] > hour }) - 1
	if idx < 0 {
		return m.primary[m.hours[0]]
	}
	return m.primary[m.hours[idx]]
}
