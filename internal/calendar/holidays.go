package calendar

import "time"

// HolidaysForYear returns the set of US market holiday dates for a year,
// keyed by ISO date. The whole trading day is skipped on each; early-close
// sessions are treated as fully closed.
func HolidaysForYear(year int) map[string]struct{} {
	easter := easterSunday(year)

	days := []time.Time{
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),             // New Year's Day
		nthWeekday(year, time.January, time.Monday, 3),                     // MLK Day
		nthWeekday(year, time.February, time.Monday, 3),                    // Presidents Day
		easter.AddDate(0, 0, -2),                                           // Good Friday
		lastWeekday(year, time.May, time.Monday),                           // Memorial Day
		time.Date(year, time.June, 19, 0, 0, 0, 0, time.UTC),               // Juneteenth
		time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC),                // Independence Day
		nthWeekday(year, time.September, time.Monday, 1),                   // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4),                  // Thanksgiving
		nthWeekday(year, time.November, time.Thursday, 4).AddDate(0, 0, 1), // day after
		time.Date(year, time.December, 24, 0, 0, 0, 0, time.UTC),           // Christmas Eve
		time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC),           // Christmas Day
	}

	set := make(map[string]struct{}, len(days))
	for _, d := range days {
		set[d.Format("2006-01-02")] = struct{}{}
	}
	return set
}

// easterSunday computes Easter for a year with the anonymous Gregorian
// (Meeus/Jones/Butcher) algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
