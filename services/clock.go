package services

import (
	"time"

	"tuition_go/models"
)

// Clock supplies the current time; tests use a fixed one.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock returns a clock reading wall time in loc (time.Local when nil).
func NewSystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// today is the calendar day of c.Now() as a date-only value.
func today(c Clock) time.Time {
	return models.DateOnly(c.Now())
}
