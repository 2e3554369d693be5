package services

import (
	"context"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const MonthlyFeeDescription = "Monthly tuition fee"

var hundred = decimal.NewFromInt(100)

// ComputeAmount applies the discount percent to the monthly fee and rounds half-up to 2 decimals.
func ComputeAmount(monthlyFee, discountPercent decimal.Decimal) (decimal.Decimal, error) {
	if err := checkDiscount(discountPercent); err != nil {
		return decimal.Zero, err
	}
	if monthlyFee.IsNegative() {
		return decimal.Zero, ierr.NewError("monthly fee is negative").
			WithHint("Monthly fee must not be negative").
			Mark(ierr.ErrValidation)
	}
	discount := monthlyFee.Mul(discountPercent).Div(hundred)
	return monthlyFee.Sub(discount).Round(2), nil
}

// GenerationResult summarises a recurring billing run.
type GenerationResult struct {
	PeriodStart time.Time          `json:"period_start"`
	Created     []models.FeeRecord `json:"created"`
	Skipped     int                `json:"skipped"`
}

// FeeGenerator turns a student's billing profile into fee records.
type FeeGenerator struct {
	students StudentStore
	fees     FeeStore
	events   EventPublisher
}

func NewFeeGenerator(students StudentStore, fees FeeStore) *FeeGenerator {
	return &FeeGenerator{students: students, fees: fees}
}

func (g *FeeGenerator) SetEventPublisher(p EventPublisher) {
	g.events = p
}

// GenerateForNewStudent bills the first month, due one calendar month after joining.
func (g *FeeGenerator) GenerateForNewStudent(ctx context.Context, student *models.Student) (*models.FeeRecord, error) {
	return g.generate(ctx, student, AddCalendarMonth(models.DateOnly(student.JoiningDate)))
}

// GenerateRecurring bills the period starting at periodStart, due one calendar month later.
func (g *FeeGenerator) GenerateRecurring(ctx context.Context, student *models.Student, periodStart time.Time) (*models.FeeRecord, error) {
	return g.generate(ctx, student, AddCalendarMonth(models.DateOnly(periodStart)))
}

// GenerateRecurringForActive bills every ACTIVE student for the period. Students that already
// have a record due in the same calendar month as the new due date are skipped, so re-runs
// do not double bill.
func (g *FeeGenerator) GenerateRecurringForActive(ctx context.Context, periodStart time.Time) (*GenerationResult, error) {
	students, err := g.students.FindByStatus(ctx, models.StudentStatusActive)
	if err != nil {
		return nil, err
	}

	result := &GenerationResult{PeriodStart: models.DateOnly(periodStart), Created: []models.FeeRecord{}}
	due := AddCalendarMonth(result.PeriodStart)
	first, last := MonthBounds(due)

	for i := range students {
		student := &students[i]
		n, err := g.fees.Count(ctx, models.FeeQuery{StudentID: &student.ID, DueFrom: &first, DueTo: &last})
		if err != nil {
			return result, err
		}
		if n > 0 {
			result.Skipped++
			continue
		}
		fee, err := g.generate(ctx, student, due)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"student_id": student.ID,
				"error":      err.Error(),
			}).Error("Failed to generate recurring fee")
			return result, err
		}
		result.Created = append(result.Created, *fee)
	}

	logrus.WithFields(logrus.Fields{
		"period_start": result.PeriodStart.Format("2006-01-02"),
		"created":      len(result.Created),
		"skipped":      result.Skipped,
	}).Info("Recurring fees generated")
	return result, nil
}

func (g *FeeGenerator) generate(ctx context.Context, student *models.Student, due time.Time) (*models.FeeRecord, error) {
	amount, err := ComputeAmount(student.MonthlyFee, student.DiscountPercent)
	if err != nil {
		return nil, err
	}

	fee := &models.FeeRecord{
		StudentID:   student.ID,
		Amount:      amount,
		DueDate:     due,
		Status:      models.FeeStatusDue,
		Description: MonthlyFeeDescription,
	}
	if err := g.fees.Create(ctx, fee); err != nil {
		return nil, err
	}
	if g.events != nil {
		g.events.BroadcastEvent("fee.created", fee)
	}
	return fee, nil
}
