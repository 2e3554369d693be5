package services

import "time"

// AddClampedDate adds years and months to t, clamping the day to the last day of a shorter
// month, then adds days with normal rollover.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	if lastDay := daysIn(newY, newM, t.Location()); d > lastDay {
		d = lastDay
	}

	return time.Date(newY, newM, d, h, min, sec, t.Nanosecond(), t.Location()).AddDate(0, 0, days)
}

// AddCalendarMonth returns the same day of the next month, clamped to the month's end.
// Jan 31 becomes Feb 29 in a leap year.
func AddCalendarMonth(t time.Time) time.Time {
	return AddClampedDate(t, 0, 1, 0)
}

// MonthBounds returns the first and last day of the month containing t.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	last := time.Date(y, m, daysIn(y, m, t.Location()), 0, 0, 0, 0, t.Location())
	return first, last
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}
