package services

import (
	"context"
	"testing"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"
	"tuition_go/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Registration bills the first month, the fee becomes due, is paid once and then leaves
// the outstanding total.
func TestFeeLifecycle(t *testing.T) {
	ctx := context.Background()
	students := testutil.NewInMemoryStudentStore()
	fees := testutil.NewInMemoryFeeStore()
	clock := FixedClock(time.Date(2024, time.February, 15, 11, 0, 0, 0, time.UTC))

	generator := NewFeeGenerator(students, fees)
	registry := NewStudentService(students, fees, clock, decimal.NewFromInt(1000))
	registry.OnRegister(func(ctx context.Context, st *models.Student) error {
		_, err := generator.GenerateForNewStudent(ctx, st)
		return err
	})
	ledger := NewFeeService(fees, students, clock)
	agg := NewAggregationService(fees, students, clock)
	reminders := NewReminderService(fees, students, clock)

	joined := date(2024, time.January, 15)
	discount := decimal.NewFromInt(10)
	p := profile("R-1", "Asha")
	p.JoiningDate = &joined
	p.DiscountPercent = &discount
	st, err := registry.Register(ctx, p)
	require.NoError(t, err)

	own, err := ledger.ByStudent(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	fee := own[0]
	assert.Equal(t, "900.00", fee.Amount.StringFixed(2))
	assert.Equal(t, date(2024, time.February, 15), fee.DueDate)
	assert.Equal(t, models.FeeStatusDue, fee.Status)

	batch, err := reminders.BuildReminderBatch(ctx, date(2024, time.February, 15))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, fee.ID, batch[0].FeeRecordID)

	outstanding, err := agg.TotalOutstanding(ctx)
	require.NoError(t, err)
	assert.Equal(t, "900.00", outstanding.StringFixed(2))

	_, err = ledger.MarkPaid(ctx, fee.ID, "CASH", "")
	require.NoError(t, err)
	_, err = ledger.MarkPaid(ctx, fee.ID, "CASH", "")
	assert.True(t, ierr.IsInvalidTransition(err))

	outstanding, err = agg.TotalOutstanding(ctx)
	require.NoError(t, err)
	assert.True(t, outstanding.IsZero())
	collected, err := agg.TotalCollectedInPeriod(ctx, date(2024, time.February, 1), date(2024, time.February, 29))
	require.NoError(t, err)
	assert.Equal(t, "900.00", collected.StringFixed(2))

	require.NoError(t, registry.Remove(ctx, st.ID))
	left, err := fees.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}
