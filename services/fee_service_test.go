package services

import (
	"context"
	"testing"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"
	"tuition_go/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type FeeServiceSuite struct {
	suite.Suite
	ctx      context.Context
	students *testutil.InMemoryStudentStore
	fees     *testutil.InMemoryFeeStore
	events   *testutil.EventRecorder
	service  *FeeService
	student  models.Student
}

func TestFeeService(t *testing.T) {
	suite.Run(t, new(FeeServiceSuite))
}

func (s *FeeServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.students = testutil.NewInMemoryStudentStore()
	s.fees = testutil.NewInMemoryFeeStore()
	s.events = &testutil.EventRecorder{}
	s.service = NewFeeService(s.fees, s.students, FixedClock(time.Date(2024, time.February, 15, 18, 30, 0, 0, time.UTC)))
	s.service.SetEventPublisher(s.events)

	s.student = testutil.NewStudent("R-1", "Asha", "1000", "0", date(2024, time.January, 15))
	s.Require().NoError(s.students.Create(s.ctx, &s.student))
}

func (s *FeeServiceSuite) create(amount string, due time.Time) *models.FeeRecord {
	fee, err := s.service.Create(s.ctx, FeeInput{StudentID: s.student.ID, Amount: testutil.Dec(amount), DueDate: &due})
	s.Require().NoError(err)
	return fee
}

func (s *FeeServiceSuite) TestCreateDefaultsDueDate() {
	fee, err := s.service.Create(s.ctx, FeeInput{StudentID: s.student.ID, Amount: testutil.Dec("250.5"), Description: "Books"})
	s.Require().NoError(err)

	s.Equal(date(2024, time.March, 16), fee.DueDate)
	s.Equal(models.FeeStatusDue, fee.Status)
	s.Equal("250.50", fee.Amount.StringFixed(2))
	s.Equal([]string{"fee.created"}, s.events.Events)
}

func (s *FeeServiceSuite) TestCreateRejects() {
	_, err := s.service.Create(s.ctx, FeeInput{StudentID: 99, Amount: testutil.Dec("10")})
	s.True(ierr.IsNotFound(err))

	_, err = s.service.Create(s.ctx, FeeInput{StudentID: s.student.ID, Amount: testutil.Dec("-1")})
	s.True(ierr.IsValidation(err))
}

func (s *FeeServiceSuite) TestMarkPaidTwice() {
	fee := s.create("900", date(2024, time.February, 15))

	paid, err := s.service.MarkPaid(s.ctx, fee.ID, "upi", "TXN-1")
	s.Require().NoError(err)
	s.Equal(models.FeeStatusPaid, paid.Status)
	s.Require().NotNil(paid.PaidDate)
	s.Equal(date(2024, time.February, 15), *paid.PaidDate)
	s.Equal(models.PaymentUPI, *paid.PaymentMethod)
	s.Equal("TXN-1", paid.TransactionID)

	later := NewFeeService(s.fees, s.students, FixedClock(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
	_, err = later.MarkPaid(s.ctx, fee.ID, "CASH", "")
	s.True(ierr.IsInvalidTransition(err))

	stored, err := s.service.ByID(s.ctx, fee.ID)
	s.Require().NoError(err)
	s.Equal(date(2024, time.February, 15), *stored.PaidDate)
	s.Equal(models.PaymentUPI, *stored.PaymentMethod)
}

func (s *FeeServiceSuite) TestMarkPaidOverdueAndFreeTextMethod() {
	s.fees.Put(models.FeeRecord{StudentID: s.student.ID, Amount: testutil.Dec("100"), DueDate: date(2024, time.January, 1), Status: models.FeeStatusOverdue})
	fees, _ := s.fees.FindAll(s.ctx)

	paid, err := s.service.MarkPaid(s.ctx, fees[0].ID, "Bank transfer", "")
	s.Require().NoError(err)
	s.Equal(models.FeeStatusPaid, paid.Status)
	s.Equal(models.PaymentMethod("Bank transfer"), *paid.PaymentMethod)
}

func (s *FeeServiceSuite) TestMarkPaidUnknown() {
	_, err := s.service.MarkPaid(s.ctx, 404, "", "")
	s.True(ierr.IsNotFound(err))
}

func (s *FeeServiceSuite) TestUpdatePaidRecord() {
	fee := s.create("900", date(2024, time.February, 15))
	_, err := s.service.MarkPaid(s.ctx, fee.ID, "CASH", "")
	s.Require().NoError(err)

	desc := "February tuition"
	updated, err := s.service.Update(s.ctx, fee.ID, FeePatch{Description: &desc})
	s.Require().NoError(err)
	s.Equal(desc, updated.Description)
	s.Equal(models.FeeStatusPaid, updated.Status)
	s.NotNil(updated.PaidDate)

	amount := decimal.NewFromInt(1)
	_, err = s.service.Update(s.ctx, fee.ID, FeePatch{Amount: &amount})
	s.True(ierr.IsInvalidTransition(err))

	due := date(2024, time.May, 1)
	_, err = s.service.Update(s.ctx, fee.ID, FeePatch{DueDate: &due})
	s.True(ierr.IsInvalidTransition(err))

	other := testutil.NewStudent("R-2", "Ben", "500", "0", date(2024, time.January, 1))
	s.Require().NoError(s.students.Create(s.ctx, &other))
	_, err = s.service.Update(s.ctx, fee.ID, FeePatch{StudentID: &other.ID})
	s.True(ierr.IsInvalidTransition(err))

	same := testutil.Dec("900.00")
	_, err = s.service.Update(s.ctx, fee.ID, FeePatch{Amount: &same})
	s.NoError(err)
}

func (s *FeeServiceSuite) TestUpdateDueRecord() {
	fee := s.create("900", date(2024, time.February, 15))

	amount := testutil.Dec("850")
	due := date(2024, time.February, 20)
	updated, err := s.service.Update(s.ctx, fee.ID, FeePatch{Amount: &amount, DueDate: &due})
	s.Require().NoError(err)
	s.Equal("850.00", updated.Amount.StringFixed(2))
	s.Equal(due, updated.DueDate)
	s.Equal(models.FeeStatusDue, updated.Status)

	missing := uint(77)
	_, err = s.service.Update(s.ctx, fee.ID, FeePatch{StudentID: &missing})
	s.True(ierr.IsNotFound(err))

	method := "CASH"
	_, err = s.service.Update(s.ctx, fee.ID, FeePatch{PaymentMethod: &method})
	s.True(ierr.IsValidation(err))

	_, err = s.service.Update(s.ctx, 404, FeePatch{})
	s.True(ierr.IsNotFound(err))
}

func (s *FeeServiceSuite) TestDelete() {
	fee := s.create("900", date(2024, time.February, 15))

	s.Require().NoError(s.service.Delete(s.ctx, fee.ID))
	s.True(ierr.IsNotFound(s.service.Delete(s.ctx, fee.ID)))
	_, err := s.service.ByID(s.ctx, fee.ID)
	s.True(ierr.IsNotFound(err))
}

func (s *FeeServiceSuite) TestOverdueBoundary() {
	yesterday := s.create("100", date(2024, time.February, 14))
	s.create("200", date(2024, time.February, 15))
	s.create("300", date(2024, time.February, 16))
	paidLate := s.create("400", date(2024, time.February, 1))
	_, err := s.service.MarkPaid(s.ctx, paidLate.ID, "", "")
	s.Require().NoError(err)

	overdue, err := s.service.OverdueAsOf(s.ctx, date(2024, time.February, 15))
	s.Require().NoError(err)
	s.Require().Len(overdue, 1)
	s.Equal(yesterday.ID, overdue[0].ID)
	s.Equal(models.FeeStatusOverdue, overdue[0].EffectiveStatus(date(2024, time.February, 15)))
	s.Equal(models.FeeStatusDue, overdue[0].Status)
}

func (s *FeeServiceSuite) TestQueries() {
	a := s.create("100", date(2024, time.February, 15))
	b := s.create("200", date(2024, time.February, 15))
	c := s.create("300", date(2024, time.March, 1))
	_, err := s.service.MarkPaid(s.ctx, b.ID, "", "")
	s.Require().NoError(err)

	dueToday, err := s.service.DueOn(s.ctx, date(2024, time.February, 15))
	s.Require().NoError(err)
	s.Equal([]uint{a.ID}, ids(dueToday))

	paid, err := s.service.ByStatus(s.ctx, models.FeeStatusPaid)
	s.Require().NoError(err)
	s.Equal([]uint{b.ID}, ids(paid))

	_, err = s.service.ByStatus(s.ctx, models.FeeStatus("LATE"))
	s.True(ierr.IsValidation(err))

	mine, err := s.service.ByStudent(s.ctx, s.student.ID)
	s.Require().NoError(err)
	s.Equal([]uint{a.ID, b.ID, c.ID}, ids(mine))

	outstanding, err := s.service.OutstandingForStudent(s.ctx, s.student.ID)
	s.Require().NoError(err)
	s.Equal([]uint{a.ID, c.ID}, ids(outstanding))

	ranged, err := s.service.DueBetween(s.ctx, date(2024, time.February, 16), date(2024, time.March, 1))
	s.Require().NoError(err)
	s.Equal([]uint{c.ID}, ids(ranged))

	_, err = s.service.DueBetween(s.ctx, date(2024, time.March, 2), date(2024, time.March, 1))
	s.True(ierr.IsValidation(err))
}

func ids(fees []models.FeeRecord) []uint {
	out := make([]uint, 0, len(fees))
	for _, f := range fees {
		out = append(out, f.ID)
	}
	return out
}
