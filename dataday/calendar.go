// Package dataday implements the per-granule dataday / swath-edge
// classifier: deciding which side of the dateline (if any) a granule's
// pixels may contribute to the day being binned.
package dataday

import (
	"github.com/soniakeys/meeus/v3/julian"
)

// Day is a YYYYDDD dataday value, e.g. 2007050 for the 50th day of 2007.
type Day int32

// Year and DayOfYear split a YYYYDDD value apart.
func (d Day) Year() int      { return int(d) / 1000 }
func (d Day) DayOfYear() int { return int(d) % 1000 }

// Diffday returns date1 - date2 in days, walking whole calendar years
// between the two the way the reference implementation does (rather than
// converting to a single absolute day number), so that the per-sensor
// thresholds tuned against the original behave identically at year
// boundaries.
func Diffday(date1, date2 Day) int {
	year1, year2 := date1.Year(), date2.Year()
	day1, day2 := date1.DayOfYear(), date2.DayOfYear()

	for y := year2; y < year1; y++ {
		if julian.LeapYearGregorian(y) {
			day1 += 366
		} else {
			day1 += 365
		}
	}

	for y := year1; y < year2; y++ {
		if julian.LeapYearGregorian(y) {
			day2 += 366
		} else {
			day2 += 365
		}
	}

	return day1 - day2
}

// CalendarDate converts a dataday's (year, day-of-year) into a
// month/day-of-month pair, useful for log/diagnostic messages and for
// parfile round-tripping of a human-readable date.
func CalendarDate(d Day) (month, day int) {
	return julian.DayOfYearToCalendar(d.DayOfYear(), julian.LeapYearGregorian(d.Year()))
}
