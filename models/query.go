package models

import "time"

// FeeQuery filters fee records. Zero fields do not filter; set fields are AND-combined.
// Date bounds are inclusive except DueBefore, which is strict.
type FeeQuery struct {
	StudentID *uint
	Statuses  []FeeStatus
	DueOn     *time.Time
	DueBefore *time.Time
	DueFrom   *time.Time
	DueTo     *time.Time
	PaidFrom  *time.Time
	PaidTo    *time.Time
}

// Matches evaluates the query against a single record in memory.
func (q FeeQuery) Matches(f FeeRecord) bool {
	if q.StudentID != nil && f.StudentID != *q.StudentID {
		return false
	}
	if len(q.Statuses) > 0 {
		found := false
		for _, s := range q.Statuses {
			if f.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	due := DateOnly(f.DueDate)
	if q.DueOn != nil && !due.Equal(DateOnly(*q.DueOn)) {
		return false
	}
	if q.DueBefore != nil && !due.Before(DateOnly(*q.DueBefore)) {
		return false
	}
	if q.DueFrom != nil && due.Before(DateOnly(*q.DueFrom)) {
		return false
	}
	if q.DueTo != nil && due.After(DateOnly(*q.DueTo)) {
		return false
	}
	if q.PaidFrom != nil || q.PaidTo != nil {
		if f.PaidDate == nil {
			return false
		}
		paid := DateOnly(*f.PaidDate)
		if q.PaidFrom != nil && paid.Before(DateOnly(*q.PaidFrom)) {
			return false
		}
		if q.PaidTo != nil && paid.After(DateOnly(*q.PaidTo)) {
			return false
		}
	}
	return true
}

// DateOnly drops the clock part, keeping the calendar day as seen in t's location,
// and returns midnight UTC of that day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
