// Package calendar maps bar timestamps to trading-day keys, week keys,
// session labels and holiday flags. It uses a fixed Eastern-time offset
// rule with computed daylight-saving Sundays instead of a timezone
// database, so classification is deterministic on every platform.
package calendar

import (
	"time"
)

// Session is a coarse session label derived from fixed local time bands.
type Session string

// Session constants. Bands are half-open on the right.
const (
	SessionOvernight  Session = "overnight"  // 18:00 - 08:00
	SessionPremarket  Session = "premarket"  // 08:00 - 09:30
	SessionRegular    Session = "regular"    // 09:30 - 16:00
	SessionAfterhours Session = "afterhours" // 16:00 - 18:00
)

// Fixed session band bounds, decimal local hours.
const (
	premarketOpen = 8.0
	regularOpen   = 9.5
	regularClose  = 16.0
	rolloverHour  = 18.0 // trading day rolls to the next date here
)

// Context is the full calendar classification of one bar timestamp.
type Context struct {
	LocalHour  float64 // decimal hour in the reference zone
	Date       string  // local calendar date, ISO
	TradingDay string  // trading-day key; overnight belongs to the next day
	Week       string  // week key: the Monday date of the trading day's week
	Session    Session
	Holiday    bool
}

// Resolver classifies timestamps. It caches holiday sets per year.
type Resolver struct {
	holidays map[int]map[string]struct{}
}

// NewResolver creates a calendar resolver.
func NewResolver() *Resolver {
	return &Resolver{holidays: make(map[int]map[string]struct{})}
}

// Resolve classifies a bar timestamp (Unix ms, UTC).
func (r *Resolver) Resolve(tsMs int64) Context {
	local := toLocal(tsMs)
	hour := float64(local.Hour()) + float64(local.Minute())/60 + float64(local.Second())/3600

	day := tradingDay(local, hour)
	ctx := Context{
		LocalHour:  hour,
		Date:       local.Format("2006-01-02"),
		TradingDay: day.Format("2006-01-02"),
		Week:       mondayOf(day).Format("2006-01-02"),
		Session:    sessionFor(hour),
		Holiday:    r.isHoliday(day),
	}
	return ctx
}

// toLocal shifts a UTC timestamp into the fixed reference zone.
func toLocal(tsMs int64) time.Time {
	utc := time.UnixMilli(tsMs).UTC()
	offset := -5 * time.Hour
	if inDaylightSaving(utc.Add(offset)) {
		offset = -4 * time.Hour
	}
	return utc.Add(offset)
}

// inDaylightSaving reports whether the (approximately local) time falls in
// the US daylight-saving window: second Sunday of March through first
// Sunday of November. Transitions are taken at midnight, not 02:00, which
// misclassifies two overnight hours per year and nothing else.
func inDaylightSaving(t time.Time) bool {
	y := t.Year()
	start := nthWeekday(y, time.March, time.Sunday, 2)
	end := nthWeekday(y, time.November, time.Sunday, 1)
	d := time.Date(y, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(start) && d.Before(end)
}

// tradingDay attributes the overnight session to the following trading day.
// A roll landing on Saturday advances to Monday so the Friday evening and
// weekend tape (when present) belongs to the next trading week.
func tradingDay(local time.Time, hour float64) time.Time {
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	if hour >= rolloverHour {
		day = day.AddDate(0, 0, 1)
	}
	if day.Weekday() == time.Saturday {
		day = day.AddDate(0, 0, 2)
	}
	if day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// mondayOf returns the Monday of the week containing day.
func mondayOf(day time.Time) time.Time {
	wd := int(day.Weekday())
	if wd == 0 { // Sunday
		wd = 7
	}
	return day.AddDate(0, 0, 1-wd)
}

func sessionFor(hour float64) Session {
	switch {
	case hour >= regularOpen && hour < regularClose:
		return SessionRegular
	case hour >= premarketOpen && hour < regularOpen:
		return SessionPremarket
	case hour >= regularClose && hour < rolloverHour:
		return SessionAfterhours
	default:
		return SessionOvernight
	}
}

func (r *Resolver) isHoliday(day time.Time) bool {
	set, ok := r.holidays[day.Year()]
	if !ok {
		set = HolidaysForYear(day.Year())
		r.holidays[day.Year()] = set
	}
	_, hit := set[day.Format("2006-01-02")]
	return hit
}

// nthWeekday returns the nth given weekday of a month (n >= 1).
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	delta := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, delta+(n-1)*7)
}

// lastWeekday returns the last given weekday of a month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	last := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	delta := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, -delta)
}
