package services

import (
	"context"
	"strings"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const DefaultManualDueDays = 30

// FeeInput creates a fee record by hand. A nil DueDate defaults to today plus the manual due days.
type FeeInput struct {
	StudentID   uint            `json:"student_id"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     *time.Time      `json:"due_date"`
	Description string          `json:"description"`
}

// FeePatch updates only the fields that are set.
type FeePatch struct {
	StudentID     *uint            `json:"student_id"`
	Amount        *decimal.Decimal `json:"amount"`
	DueDate       *time.Time       `json:"due_date"`
	Description   *string          `json:"description"`
	PaymentMethod *string          `json:"payment_method"`
	TransactionID *string          `json:"transaction_id"`
}

// FeeService is the ledger of fee records and owns their status transitions.
type FeeService struct {
	fees     FeeStore
	students StudentStore
	clock    Clock
	dueDays  int
	events   EventPublisher
}

func NewFeeService(fees FeeStore, students StudentStore, clock Clock) *FeeService {
	return &FeeService{
		fees:     fees,
		students: students,
		clock:    clock,
		dueDays:  DefaultManualDueDays,
	}
}

// SetManualDueDays changes the default offset of manual fees, ignored when not positive.
func (s *FeeService) SetManualDueDays(days int) {
	if days > 0 {
		s.dueDays = days
	}
}

func (s *FeeService) SetEventPublisher(p EventPublisher) {
	s.events = p
}

func (s *FeeService) Create(ctx context.Context, in FeeInput) (*models.FeeRecord, error) {
	if _, err := s.students.FindByID(ctx, in.StudentID); err != nil {
		return nil, err
	}
	if err := checkAmount(in.Amount); err != nil {
		return nil, err
	}
	if err := checkDescription(in.Description); err != nil {
		return nil, err
	}

	due := today(s.clock).AddDate(0, 0, s.dueDays)
	if in.DueDate != nil {
		due = models.DateOnly(*in.DueDate)
	}

	fee := &models.FeeRecord{
		StudentID:   in.StudentID,
		Amount:      in.Amount.Round(2),
		DueDate:     due,
		Status:      models.FeeStatusDue,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.fees.Create(ctx, fee); err != nil {
		return nil, err
	}
	s.publish("fee.created", fee)
	return fee, nil
}

// Update applies the patch. Amount, due date and student are frozen once the record is PAID;
// payment details can only be edited on a PAID record.
func (s *FeeService) Update(ctx context.Context, id uint, patch FeePatch) (*models.FeeRecord, error) {
	fee, err := s.fees.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	paid := fee.Status == models.FeeStatusPaid

	if patch.StudentID != nil && *patch.StudentID != fee.StudentID {
		if paid {
			return nil, frozenErr(fee.ID, "student")
		}
		if _, err := s.students.FindByID(ctx, *patch.StudentID); err != nil {
			return nil, err
		}
		fee.StudentID = *patch.StudentID
	}
	if patch.Amount != nil && !patch.Amount.Equal(fee.Amount) {
		if paid {
			return nil, frozenErr(fee.ID, "amount")
		}
		if err := checkAmount(*patch.Amount); err != nil {
			return nil, err
		}
		fee.Amount = patch.Amount.Round(2)
	}
	if patch.DueDate != nil && !models.DateOnly(*patch.DueDate).Equal(models.DateOnly(fee.DueDate)) {
		if paid {
			return nil, frozenErr(fee.ID, "due date")
		}
		fee.DueDate = models.DateOnly(*patch.DueDate)
	}
	if patch.Description != nil {
		if err := checkDescription(*patch.Description); err != nil {
			return nil, err
		}
		fee.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.PaymentMethod != nil || patch.TransactionID != nil {
		if !paid {
			return nil, ierr.NewErrorf("fee %d is not paid", fee.ID).
				WithHint("Payment details can only be changed on a paid fee").
				Mark(ierr.ErrValidation)
		}
		if patch.PaymentMethod != nil {
			method, err := parseMethod(*patch.PaymentMethod)
			if err != nil {
				return nil, err
			}
			fee.PaymentMethod = method
		}
		if patch.TransactionID != nil {
			if err := checkTransactionID(*patch.TransactionID); err != nil {
				return nil, err
			}
			fee.TransactionID = strings.TrimSpace(*patch.TransactionID)
		}
	}

	if err := s.fees.Save(ctx, fee); err != nil {
		return nil, err
	}
	s.publish("fee.updated", fee)
	return fee, nil
}

// MarkPaid settles a DUE or OVERDUE record today. A record that is already PAID keeps its
// original paid date and the call fails with an invalid transition.
func (s *FeeService) MarkPaid(ctx context.Context, id uint, paymentMethod string, transactionID string) (*models.FeeRecord, error) {
	fee, err := s.fees.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !fee.Status.CanTransitionTo(models.FeeStatusPaid) {
		return nil, alreadyPaidErr(fee.ID)
	}

	method, err := parseMethod(paymentMethod)
	if err != nil {
		return nil, err
	}
	if err := checkTransactionID(transactionID); err != nil {
		return nil, err
	}

	paidOn := today(s.clock)
	ok, err := s.fees.MarkPaid(ctx, id, paidOn, method, strings.TrimSpace(transactionID))
	if err != nil {
		return nil, err
	}
	if !ok {
		// settled concurrently between the read and the conditional write
		return nil, alreadyPaidErr(fee.ID)
	}

	updated, err := s.fees.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"fee_id":     updated.ID,
		"student_id": updated.StudentID,
		"amount":     updated.Amount.StringFixed(2),
	}).Info("Fee marked paid")
	s.publish("fee.paid", updated)
	return updated, nil
}

func (s *FeeService) Delete(ctx context.Context, id uint) error {
	exists, err := s.fees.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return feeNotFound(id)
	}
	if err := s.fees.Delete(ctx, id); err != nil {
		return err
	}
	s.publish("fee.deleted", deletedFee{ID: id})
	return nil
}

func (s *FeeService) ByID(ctx context.Context, id uint) (*models.FeeRecord, error) {
	return s.fees.FindByID(ctx, id)
}

func (s *FeeService) All(ctx context.Context) ([]models.FeeRecord, error) {
	return s.fees.FindAll(ctx)
}

func (s *FeeService) ByStudent(ctx context.Context, studentID uint) ([]models.FeeRecord, error) {
	return s.fees.List(ctx, models.FeeQuery{StudentID: &studentID})
}

// OutstandingForStudent lists the DUE and OVERDUE records of one student.
func (s *FeeService) OutstandingForStudent(ctx context.Context, studentID uint) ([]models.FeeRecord, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, err
	}
	return s.fees.List(ctx, models.FeeQuery{
		StudentID: &studentID,
		Statuses:  []models.FeeStatus{models.FeeStatusDue, models.FeeStatusOverdue},
	})
}

func (s *FeeService) ByStatus(ctx context.Context, status models.FeeStatus) ([]models.FeeRecord, error) {
	if !status.Valid() {
		return nil, ierr.NewErrorf("unknown fee status %q", status).
			WithHint("Status must be DUE, PAID or OVERDUE").
			Mark(ierr.ErrValidation)
	}
	return s.fees.List(ctx, models.FeeQuery{Statuses: []models.FeeStatus{status}})
}

// DueOn lists DUE records due on the given day.
func (s *FeeService) DueOn(ctx context.Context, date time.Time) ([]models.FeeRecord, error) {
	d := models.DateOnly(date)
	return s.fees.List(ctx, models.FeeQuery{DueOn: &d, Statuses: []models.FeeStatus{models.FeeStatusDue}})
}

// OverdueAsOf lists unpaid records whose due date is strictly before the given day.
func (s *FeeService) OverdueAsOf(ctx context.Context, date time.Time) ([]models.FeeRecord, error) {
	d := models.DateOnly(date)
	return s.fees.List(ctx, models.FeeQuery{
		DueBefore: &d,
		Statuses:  []models.FeeStatus{models.FeeStatusDue, models.FeeStatusOverdue},
	})
}

// DueBetween lists records of any status due within the inclusive range.
func (s *FeeService) DueBetween(ctx context.Context, from, to time.Time) ([]models.FeeRecord, error) {
	f, t := models.DateOnly(from), models.DateOnly(to)
	if f.After(t) {
		return nil, invalidRangeErr(f, t)
	}
	return s.fees.List(ctx, models.FeeQuery{DueFrom: &f, DueTo: &t})
}

// Today is the ledger's current calendar day.
func (s *FeeService) Today() time.Time {
	return today(s.clock)
}

func (s *FeeService) publish(event string, payload interface{}) {
	if s.events != nil {
		s.events.BroadcastEvent(event, payload)
	}
}

type deletedFee struct {
	ID uint `json:"id"`
}

func checkAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ierr.NewError("amount is negative").
			WithHint("Amount must not be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func checkDescription(d string) error {
	if len([]rune(strings.TrimSpace(d))) > 255 {
		return ierr.NewError("description too long").
			WithHint("Description must be at most 255 characters").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func checkTransactionID(id string) error {
	if len(strings.TrimSpace(id)) > 100 {
		return ierr.NewError("transaction id too long").
			WithHint("Transaction id must be at most 100 characters").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func parseMethod(v string) (*models.PaymentMethod, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	m := models.NormalizePaymentMethod(v)
	if len([]rune(string(m))) > models.MaxPaymentMethodLength {
		return nil, ierr.NewError("payment method too long").
			WithHintf("Payment method must be at most %d characters", models.MaxPaymentMethodLength).
			Mark(ierr.ErrValidation)
	}
	return &m, nil
}

func feeNotFound(id uint) error {
	return ierr.NewErrorf("fee record %d not found", id).
		WithHint("Fee record not found").
		Mark(ierr.ErrNotFound)
}

func alreadyPaidErr(id uint) error {
	return ierr.NewErrorf("fee record %d is already paid", id).
		WithHint("Fee is already paid").
		Mark(ierr.ErrInvalidTransition)
}

func frozenErr(id uint, field string) error {
	return ierr.NewErrorf("fee record %d is paid, %s is frozen", id, field).
		WithHintf("The %s of a paid fee cannot be changed", field).
		Mark(ierr.ErrInvalidTransition)
}

func invalidRangeErr(from, to time.Time) error {
	return ierr.NewErrorf("range start %s after end %s", from.Format("2006-01-02"), to.Format("2006-01-02")).
		WithHint("Start date must not be after end date").
		Mark(ierr.ErrValidation)
}
