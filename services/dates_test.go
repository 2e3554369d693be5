package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddCalendarMonth(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"mid month", date(2024, time.January, 15), date(2024, time.February, 15)},
		{"leap february clamp", date(2024, time.January, 31), date(2024, time.February, 29)},
		{"non leap february clamp", date(2023, time.January, 31), date(2023, time.February, 28)},
		{"thirty day month clamp", date(2024, time.March, 31), date(2024, time.April, 30)},
		{"year rollover", date(2024, time.December, 31), date(2025, time.January, 31)},
		{"first of month", date(2024, time.February, 1), date(2024, time.March, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddCalendarMonth(tt.in))
		})
	}
}

func TestAddClampedDateKeepsClock(t *testing.T) {
	in := time.Date(2024, time.January, 30, 9, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 29, 9, 45, 0, 0, time.UTC), AddClampedDate(in, 0, 1, 0))
	assert.Equal(t, time.Date(2023, time.November, 30, 9, 45, 0, 0, time.UTC), AddClampedDate(in, 0, -2, 0))
}

func TestAddClampedDateRollsDaysOver(t *testing.T) {
	assert.Equal(t, date(2024, time.February, 4), AddClampedDate(date(2024, time.January, 25), 0, 0, 10))
	assert.Equal(t, date(2024, time.March, 2), AddClampedDate(date(2024, time.January, 31), 0, 1, 2))
	assert.Equal(t, date(2023, time.December, 31), AddClampedDate(date(2024, time.January, 1), 0, 0, -1))
}

func TestMonthBounds(t *testing.T) {
	first, last := MonthBounds(date(2024, time.February, 10))
	assert.Equal(t, date(2024, time.February, 1), first)
	assert.Equal(t, date(2024, time.February, 29), last)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
