package calendar

import (
	"testing"
	"time"
)

func msAt(y int, m time.Month, d, hh, mm int) int64 {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC).UnixMilli()
}

func TestResolve_SessionBands(t *testing.T) {
	r := NewResolver()

	cases := []struct {
		name    string
		ts      int64
		hour    float64
		session Session
	}{
		// 2026-01-27 is a Tuesday; EST applies (UTC-5).
		{"regular open", msAt(2026, time.January, 27, 14, 30), 9.5, SessionRegular},
		{"mid regular", msAt(2026, time.January, 27, 18, 0), 13.0, SessionRegular},
		{"premarket", msAt(2026, time.January, 27, 13, 15), 8.25, SessionPremarket},
		{"afterhours", msAt(2026, time.January, 27, 21, 30), 16.5, SessionAfterhours},
		{"overnight evening", msAt(2026, time.January, 27, 23, 30), 18.5, SessionOvernight},
		{"overnight early", msAt(2026, time.January, 27, 8, 0), 3.0, SessionOvernight},
		// 2026-07-15 is a Wednesday; EDT applies (UTC-4).
		{"regular open DST", msAt(2026, time.July, 15, 13, 30), 9.5, SessionRegular},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := r.Resolve(tc.ts)
			if ctx.LocalHour != tc.hour {
				t.Errorf("LocalHour = %v, want %v", ctx.LocalHour, tc.hour)
			}
			if ctx.Session != tc.session {
				t.Errorf("Session = %s, want %s", ctx.Session, tc.session)
			}
		})
	}
}

func TestResolve_TradingDayRollover(t *testing.T) {
	r := NewResolver()

	cases := []struct {
		name string
		ts   int64
		day  string
		week string
	}{
		{"regular hours stay on date", msAt(2026, time.January, 27, 15, 0), "2026-01-27", "2026-01-26"},
		{"evening rolls to next day", msAt(2026, time.January, 27, 23, 30), "2026-01-28", "2026-01-26"},
		{"early morning keeps date", msAt(2026, time.January, 28, 6, 0), "2026-01-28", "2026-01-26"},
		// Sunday 2026-01-25 18:30 ET opens Monday's trading day.
		{"sunday evening is monday", msAt(2026, time.January, 25, 23, 30), "2026-01-26", "2026-01-26"},
		// Friday 2026-01-30 evening rolls over the weekend.
		{"friday evening is monday", msAt(2026, time.January, 30, 23, 30), "2026-02-02", "2026-02-02"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := r.Resolve(tc.ts)
			if ctx.TradingDay != tc.day {
				t.Errorf("TradingDay = %s, want %s", ctx.TradingDay, tc.day)
			}
			if ctx.Week != tc.week {
				t.Errorf("Week = %s, want %s", ctx.Week, tc.week)
			}
		})
	}
}

func TestResolve_HolidayFlag(t *testing.T) {
	r := NewResolver()

	// New Year's Day 2026 falls on a Thursday.
	ctx := r.Resolve(msAt(2026, time.January, 1, 15, 0))
	if !ctx.Holiday {
		t.Error("expected New Year's Day to be flagged")
	}

	// The evening before a holiday belongs to the holiday's trading day.
	ctx = r.Resolve(msAt(2025, time.December, 31, 23, 30))
	if ctx.TradingDay != "2026-01-01" || !ctx.Holiday {
		t.Errorf("eve-of-holiday: day=%s holiday=%v", ctx.TradingDay, ctx.Holiday)
	}

	ctx = r.Resolve(msAt(2026, time.January, 2, 15, 0))
	if ctx.Holiday {
		t.Error("Jan 2 2026 should not be a holiday")
	}
}

func TestEasterSunday(t *testing.T) {
	cases := []struct {
		year int
		want string
	}{
		{2023, "2023-04-09"},
		{2024, "2024-03-31"},
		{2025, "2025-04-20"},
		{2026, "2026-04-05"},
	}
	for _, tc := range cases {
		got := easterSunday(tc.year).Format("2006-01-02")
		if got != tc.want {
			t.Errorf("easter %d = %s, want %s", tc.year, got, tc.want)
		}
	}
}

func TestHolidaysForYear(t *testing.T) {
	set := HolidaysForYear(2026)

	want := []string{
		"2026-01-01", // New Year
		"2026-01-19", // MLK (3rd Monday)
		"2026-02-16", // Presidents
		"2026-04-03", // Good Friday
		"2026-05-25", // Memorial
		"2026-06-19", // Juneteenth
		"2026-07-04", // Independence
		"2026-09-07", // Labor
		"2026-11-26", // Thanksgiving
		"2026-11-27", // day after
		"2026-12-24", // Christmas Eve
		"2026-12-25", // Christmas
	}

	if len(set) != len(want) {
		t.Errorf("holiday count = %d, want %d", len(set), len(want))
	}
	for _, d := range want {
		if _, ok := set[d]; !ok {
			t.Errorf("missing holiday %s", d)
		}
	}
}

func TestDaylightSavingWindow(t *testing.T) {
	// 2026: DST runs March 8 through November 1.
	cases := []struct {
		ts   time.Time
		want bool
	}{
		{time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC), false},
		{time.Date(2026, time.March, 8, 12, 0, 0, 0, time.UTC), true},
		{time.Date(2026, time.October, 31, 12, 0, 0, 0, time.UTC), true},
		{time.Date(2026, time.November, 1, 12, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := inDaylightSaving(tc.ts); got != tc.want {
			t.Errorf("inDaylightSaving(%s) = %v, want %v", tc.ts.Format("2006-01-02"), got, tc.want)
		}
	}
}
