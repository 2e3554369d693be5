package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"tuition_go/models"
	"tuition_go/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeMessage(t *testing.T) {
	svc := NewReminderService(nil, nil, FixedClock(time.Now()))
	st := testutil.NewStudent("R-7", "Asha", "1000", "10", date(2024, time.January, 15))
	st.ParentName = "Mrs. Rao"
	fee := models.FeeRecord{Amount: testutil.Dec("900"), DueDate: date(2024, time.February, 15)}

	msg := svc.ComposeMessage(fee, st)
	assert.Contains(t, msg, "Mrs. Rao")
	assert.Contains(t, msg, "Asha")
	assert.Contains(t, msg, "R-7")
	assert.Contains(t, msg, "₹900.00")
	assert.Contains(t, msg, "15 Feb 2024")

	st.ParentName = ""
	svc.SetCurrencySymbol("Rs.")
	msg = svc.ComposeMessage(fee, st)
	assert.True(t, strings.HasPrefix(msg, "Dear Asha,"))
	assert.Contains(t, msg, "Rs.900.00")
}

func TestWhatsAppURL(t *testing.T) {
	assert.Equal(t, "https://wa.me/919876543210?text=Hi+there", WhatsAppURL("+91 98765-43210", "Hi there"))
}

func TestReminderBatch(t *testing.T) {
	ctx := context.Background()
	students := testutil.NewInMemoryStudentStore()
	fees := testutil.NewInMemoryFeeStore()
	svc := NewReminderService(fees, students, FixedClock(time.Date(2024, time.February, 15, 8, 0, 0, 0, time.UTC)))

	asha := testutil.NewStudent("R-1", "Asha", "1000", "0", date(2024, time.January, 1))
	ben := testutil.NewStudent("R-2", "Ben", "800", "0", date(2024, time.January, 1))
	ben.ParentLineID = "U-ben"
	require.NoError(t, students.Create(ctx, &asha))
	require.NoError(t, students.Create(ctx, &ben))

	day := date(2024, time.February, 15)
	fees.Put(models.FeeRecord{StudentID: ben.ID, Amount: testutil.Dec("800"), DueDate: day, Status: models.FeeStatusDue})
	fees.Put(models.FeeRecord{StudentID: asha.ID, Amount: testutil.Dec("900"), DueDate: day, Status: models.FeeStatusDue})
	fees.Put(models.FeeRecord{StudentID: ben.ID, Amount: testutil.Dec("50"), DueDate: day, Status: models.FeeStatusDue})
	fees.Put(models.FeeRecord{StudentID: asha.ID, Amount: testutil.Dec("900"), DueDate: day, Status: models.FeeStatusPaid, PaidDate: &day})
	fees.Put(models.FeeRecord{StudentID: asha.ID, Amount: testutil.Dec("900"), DueDate: date(2024, time.February, 16), Status: models.FeeStatusDue})

	batch, err := svc.BuildReminderBatch(ctx, day)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, []uint{ben.ID, asha.ID, ben.ID}, []uint{batch[0].StudentID, batch[1].StudentID, batch[2].StudentID})
	assert.Equal(t, "50.00", batch[2].Amount.StringFixed(2))
	assert.True(t, strings.HasPrefix(batch[1].WhatsAppURL, "https://wa.me/919876543210?text="))

	due, err := svc.StudentsWithFeesDueOn(ctx, day)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "Ben", due[0].Name)
	assert.Equal(t, "Asha", due[1].Name)

	resp, err := svc.DueStudentsWithMessages(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalDueCount)
	assert.Len(t, resp.WhatsAppMessages, 2)

	queue := &testutil.QueueRecorder{}
	svc.SetQueue(queue)
	n, err := svc.DispatchReminders(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, queue.Deliveries, 3)
	assert.Equal(t, ChannelLine, queue.Deliveries[0].Channel)
	assert.Equal(t, "U-ben", queue.Deliveries[0].Recipient)
	assert.Equal(t, ChannelWhatsApp, queue.Deliveries[1].Channel)
}

func TestReminderBatchEmpty(t *testing.T) {
	svc := NewReminderService(testutil.NewInMemoryFeeStore(), testutil.NewInMemoryStudentStore(), FixedClock(time.Now()))
	batch, err := svc.BuildReminderBatch(context.Background(), date(2024, time.February, 15))
	require.NoError(t, err)
	assert.Empty(t, batch)
}
