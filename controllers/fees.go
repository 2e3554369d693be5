package controllers

import (
	"strings"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"
	"tuition_go/services"
	"tuition_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type FeeController struct {
	fees      *services.FeeService
	generator *services.FeeGenerator
}

func NewFeeController(fees *services.FeeService, generator *services.FeeGenerator) *FeeController {
	return &FeeController{fees: fees, generator: generator}
}

// feeView adds the status a record has today; the stored status never says OVERDUE.
type feeView struct {
	models.FeeRecord
	EffectiveStatus models.FeeStatus `json:"effective_status"`
	IsOverdue       bool             `json:"is_overdue"`
}

func view(f models.FeeRecord, asOf time.Time) feeView {
	return feeView{
		FeeRecord:       f,
		EffectiveStatus: f.EffectiveStatus(asOf),
		IsOverdue:       f.IsOverdue(asOf),
	}
}

func views(fees []models.FeeRecord, asOf time.Time) []feeView {
	return lo.Map(fees, func(f models.FeeRecord, _ int) feeView { return view(f, asOf) })
}

func dateOrToday(raw string, today time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return today, nil
	}
	return utils.ParseAPIDate(raw)
}

type feeRequest struct {
	StudentID   uint             `json:"student_id"`
	Amount      *decimal.Decimal `json:"amount"`
	DueDate     string           `json:"due_date"`
	Description string           `json:"description"`
}

type feePatchRequest struct {
	StudentID     *uint            `json:"student_id"`
	Amount        *decimal.Decimal `json:"amount"`
	DueDate       *string          `json:"due_date"`
	Description   *string          `json:"description"`
	PaymentMethod *string          `json:"payment_method"`
	TransactionID *string          `json:"transaction_id"`
}

type paymentRequest struct {
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
}

type generateRequest struct {
	PeriodStart string `json:"period_start"`
}

// GetFees lists the ledger, optionally filtered by ?status=. OVERDUE is evaluated against today.
func (fc *FeeController) GetFees(c *fiber.Ctx) error {
	ctx := c.UserContext()
	today := fc.fees.Today()

	var (
		fees []models.FeeRecord
		err  error
	)
	switch raw := c.Query("status"); {
	case raw == "":
		fees, err = fc.fees.All(ctx)
	default:
		status, ok := models.ParseFeeStatus(raw)
		if !ok {
			return ierr.NewErrorf("unknown fee status %q", raw).
				WithHint("Status must be DUE, PAID or OVERDUE").
				Mark(ierr.ErrValidation)
		}
		if status == models.FeeStatusOverdue {
			fees, err = fc.fees.OverdueAsOf(ctx, today)
		} else {
			fees, err = fc.fees.ByStatus(ctx, status)
		}
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"fees":  views(fees, today),
		"total": len(fees),
	})
}

func (fc *FeeController) GetFee(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "fee ID")
	if err != nil {
		return err
	}
	fee, err := fc.fees.ByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"fee": view(*fee, fc.fees.Today())})
}

// CreateFee records a manual fee; due_date defaults to the configured offset from today.
func (fc *FeeController) CreateFee(c *fiber.Ctx) error {
	var req feeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}
	if req.Amount == nil {
		return ierr.NewError("fee amount missing").
			WithHint("Amount is required").
			Mark(ierr.ErrValidation)
	}
	due, err := utils.ParseOptionalDate(req.DueDate)
	if err != nil {
		return err
	}

	fee, err := fc.fees.Create(c.UserContext(), services.FeeInput{
		StudentID:   req.StudentID,
		Amount:      *req.Amount,
		DueDate:     due,
		Description: utils.SanitizeString(req.Description),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Fee created successfully",
		"fee":     view(*fee, fc.fees.Today()),
	})
}

func (fc *FeeController) UpdateFee(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "fee ID")
	if err != nil {
		return err
	}
	var req feePatchRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	patch := services.FeePatch{
		StudentID:     req.StudentID,
		Amount:        req.Amount,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
	}
	if req.DueDate != nil {
		due, err := utils.ParseAPIDate(*req.DueDate)
		if err != nil {
			return err
		}
		patch.DueDate = &due
	}

	fee, err := fc.fees.Update(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Fee updated successfully",
		"fee":     view(*fee, fc.fees.Today()),
	})
}

// MarkPaid settles a fee. Payment details come from the body or the query string.
func (fc *FeeController) MarkPaid(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "fee ID")
	if err != nil {
		return err
	}

	var req paymentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody()
		}
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = c.Query("payment_method", c.Query("paymentMethod"))
	}
	if req.TransactionID == "" {
		req.TransactionID = c.Query("transaction_id", c.Query("transactionId"))
	}

	fee, err := fc.fees.MarkPaid(c.UserContext(), id, req.PaymentMethod, req.TransactionID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Fee marked as paid",
		"fee":     view(*fee, fc.fees.Today()),
	})
}

func (fc *FeeController) DeleteFee(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "fee ID")
	if err != nil {
		return err
	}
	if err := fc.fees.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Fee deleted successfully"})
}

func (fc *FeeController) GetDueFees(c *fiber.Ctx) error {
	fees, err := fc.fees.ByStatus(c.UserContext(), models.FeeStatusDue)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"fees":         views(fees, fc.fees.Today()),
		"total":        len(fees),
		"total_amount": services.SumAmounts(fees),
	})
}

// GetOverdueFees lists unpaid fees due before ?date= (default today).
func (fc *FeeController) GetOverdueFees(c *fiber.Ctx) error {
	asOf, err := dateOrToday(c.Query("date"), fc.fees.Today())
	if err != nil {
		return err
	}
	fees, err := fc.fees.OverdueAsOf(c.UserContext(), asOf)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"fees":         views(fees, asOf),
		"total":        len(fees),
		"total_amount": services.SumAmounts(fees),
	})
}

func (fc *FeeController) GetFeesDueToday(c *fiber.Ctx) error {
	today := fc.fees.Today()
	fees, err := fc.fees.DueOn(c.UserContext(), today)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"date":  today.Format("2006-01-02"),
		"fees":  views(fees, today),
		"total": len(fees),
	})
}

// GetFeesInRange lists fees due between ?from= and ?to=, both inclusive.
func (fc *FeeController) GetFeesInRange(c *fiber.Ctx) error {
	from, err := utils.ParseAPIDate(c.Query("from"))
	if err != nil {
		return err
	}
	to, err := utils.ParseAPIDate(c.Query("to"))
	if err != nil {
		return err
	}
	fees, err := fc.fees.DueBetween(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"fees":  views(fees, fc.fees.Today()),
		"total": len(fees),
	})
}

func (fc *FeeController) GetFeesByStudent(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("studentId"), "student ID")
	if err != nil {
		return err
	}
	fees, err := fc.fees.ByStudent(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"fees":  views(fees, fc.fees.Today()),
		"total": len(fees),
	})
}

// GenerateMonthly bills every active student for the period starting at period_start
// (default: first day of the current month).
func (fc *FeeController) GenerateMonthly(c *fiber.Ctx) error {
	var req generateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody()
		}
	}

	first, _ := services.MonthBounds(fc.fees.Today())
	period, err := dateOrToday(req.PeriodStart, first)
	if err != nil {
		return err
	}

	result, err := fc.generator.GenerateRecurringForActive(c.UserContext(), period)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Monthly fees generated",
		"result":  result,
	})
}
