package testutil

import (
	"context"
	"sync"
	"time"

	"tuition_go/models"

	"github.com/shopspring/decimal"
)

// Date builds a calendar day in UTC.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Dec parses a decimal literal and panics on bad input.
func Dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// EventRecorder captures broadcast events.
type EventRecorder struct {
	mu     sync.Mutex
	Events []string
}

func (r *EventRecorder) BroadcastEvent(event string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// QueueRecorder captures reminder deliveries.
type QueueRecorder struct {
	mu         sync.Mutex
	Deliveries []models.ReminderLog
}

func (q *QueueRecorder) Enqueue(_ context.Context, deliveries []models.ReminderLog) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Deliveries = append(q.Deliveries, deliveries...)
	return nil
}

// NewStudent returns a valid ACTIVE student with the given roll number and fee profile.
func NewStudent(roll, name string, fee, discount string, joined time.Time) models.Student {
	return models.Student{
		Name:            name,
		RollNumber:      roll,
		Email:           roll + "@school.test",
		Phone:           "9800000000",
		ParentName:      "Parent of " + name,
		ParentPhone:     "+91 98765 43210",
		Department:      "Science",
		ClassName:       "10A",
		Address:         "12 Main Road",
		JoiningDate:     joined,
		MonthlyFee:      Dec(fee),
		DiscountPercent: Dec(discount),
		Status:          models.StudentStatusActive,
	}
}
