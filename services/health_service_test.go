package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tuition_go/models"
	"tuition_go/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenLedger struct{}

func (brokenLedger) Count(context.Context, models.FeeQuery) (int64, error) {
	return 0, errors.New("connection refused")
}

type stubBacklog struct {
	queued bool
	depth  int64
	err    error
}

func (b stubBacklog) Queued() bool { return b.queued }

func (b stubBacklog) QueueDepth(context.Context) (int64, error) { return b.depth, b.err }

func TestCombineStatus(t *testing.T) {
	assert.Equal(t, overallStatusDegraded, combineStatus(overallStatusOK, overallStatusDegraded))
	assert.Equal(t, overallStatusCritical, combineStatus(overallStatusDegraded, overallStatusCritical))
	assert.Equal(t, overallStatusCritical, combineStatus(overallStatusCritical, overallStatusOK))
	assert.Equal(t, overallStatusOK, combineStatus("bogus", "bogus"))
}

func TestHumanizeDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{90 * time.Minute, "1h 30m"},
		{26*time.Hour + 5*time.Second, "1d 2h 5s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanizeDuration(tt.in))
	}
}

func TestHealthReportCountsOutstandingFees(t *testing.T) {
	ctx := context.Background()
	clock := FixedClock(time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC))
	fees := testutil.NewInMemoryFeeStore()
	fees.Put(models.FeeRecord{StudentID: 1, Amount: testutil.Dec("900"), DueDate: date(2024, time.March, 1), Status: models.FeeStatusDue})
	fees.Put(models.FeeRecord{StudentID: 1, Amount: testutil.Dec("900"), DueDate: date(2024, time.February, 1), Status: models.FeeStatusPaid})

	gen := NewFeeGenerator(testutil.NewInMemoryStudentStore(), fees)
	rem := NewReminderService(fees, testutil.NewInMemoryStudentStore(), clock)
	scheduler, err := NewBillingScheduler(ScheduleConfig{BillingSpec: "0 6 1 * *", ReminderSpec: "0 9 * * *", Location: time.UTC}, gen, rem, nil, clock)
	require.NoError(t, err)

	svc := NewHealthService(HealthOptions{
		Driver:    "postgres",
		Ledger:    fees,
		Queue:     stubBacklog{queued: true, depth: 3},
		Scheduler: scheduler,
		Clock:     clock,
	})
	svc.SetStartTime(clock.Now().Add(-time.Hour))

	report := svc.GetHealthReport(ctx)
	assert.Equal(t, overallStatusOK, report.Status)
	assert.Equal(t, "Tuition Fee API", report.Service)
	assert.Equal(t, "1h", report.UptimeHuman)
	require.Len(t, report.Dependencies, 2)

	ledger := report.Dependencies[0]
	assert.Equal(t, "postgres", ledger.Name)
	assert.Equal(t, dependencyStatusUp, ledger.Status)
	assert.EqualValues(t, 1, ledger.Details["outstanding_fees"])

	queue := report.Dependencies[1]
	assert.Equal(t, dependencyStatusUp, queue.Status)
	assert.EqualValues(t, 3, queue.Details["pending_deliveries"])

	assert.Equal(t, []ScheduledRun{
		{Job: "daily-reminders", Next: time.Date(2024, time.March, 6, 9, 0, 0, 0, time.UTC)},
		{Job: "recurring-billing", Next: time.Date(2024, time.April, 1, 6, 0, 0, 0, time.UTC)},
	}, report.Schedule)
}

func TestHealthReportStatus(t *testing.T) {
	tests := []struct {
		name  string
		opts  HealthOptions
		want  string
		code  int
		queue string
	}{
		{"no ledger", HealthOptions{}, overallStatusCritical, 503, dependencyStatusDisabled},
		{"unreadable ledger", HealthOptions{Ledger: brokenLedger{}}, overallStatusCritical, 503, dependencyStatusDisabled},
		{
			"queue error",
			HealthOptions{Ledger: testutil.NewInMemoryFeeStore(), Queue: stubBacklog{queued: true, err: errors.New("timeout")}},
			overallStatusDegraded, 200, dependencyStatusDown,
		},
		{
			"redis wanted but missing",
			HealthOptions{Ledger: testutil.NewInMemoryFeeStore(), Queue: stubBacklog{}, Flags: HealthFlags{UseRedisNotifications: true}},
			overallStatusDegraded, 200, dependencyStatusDisabled,
		},
		{"direct delivery", HealthOptions{Ledger: testutil.NewInMemoryFeeStore(), Queue: stubBacklog{}}, overallStatusOK, 200, dependencyStatusDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewHealthService(tt.opts)
			report := svc.GetHealthReport(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Equal(t, tt.code, svc.HTTPStatusForOverall(report.Status))
			require.Len(t, report.Dependencies, 2)
			assert.Equal(t, tt.queue, report.Dependencies[1].Status)
			assert.Empty(t, report.Schedule)
		})
	}
}
