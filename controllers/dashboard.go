package controllers

import (
	"strings"

	"tuition_go/models"
	"tuition_go/services"
	"tuition_go/utils"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct {
	agg *services.AggregationService
}

func NewDashboardController(agg *services.AggregationService) *DashboardController {
	return &DashboardController{agg: agg}
}

// GetStats returns the dashboard counters and amounts in one snapshot
func (dc *DashboardController) GetStats(c *fiber.Ctx) error {
	stats, err := dc.agg.DashboardSnapshot(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// GetSummary returns the ledger-wide totals and stored status counts. With ?from= and ?to=
// it also reports the amount collected in that paid-date range.
func (dc *DashboardController) GetSummary(c *fiber.Ctx) error {
	ctx := c.UserContext()
	outstanding, err := dc.agg.TotalOutstanding(ctx)
	if err != nil {
		return err
	}
	collected, err := dc.agg.TotalCollected(ctx)
	if err != nil {
		return err
	}

	counts := fiber.Map{}
	for _, status := range []models.FeeStatus{models.FeeStatusDue, models.FeeStatusPaid, models.FeeStatusOverdue} {
		n, err := dc.agg.CountByStatus(ctx, status)
		if err != nil {
			return err
		}
		counts[string(status)] = n
	}

	body := fiber.Map{
		"total_outstanding": outstanding,
		"total_collected":   collected,
		"counts":            counts,
	}

	if from, to := c.Query("from"), c.Query("to"); strings.TrimSpace(from) != "" || strings.TrimSpace(to) != "" {
		start, err := utils.ParseAPIDate(from)
		if err != nil {
			return err
		}
		end, err := utils.ParseAPIDate(to)
		if err != nil {
			return err
		}
		period, err := dc.agg.TotalCollectedInPeriod(ctx, start, end)
		if err != nil {
			return err
		}
		body["collected_in_period"] = period
	}

	return c.JSON(body)
}

func (dc *DashboardController) GetOutstandingByStudent(c *fiber.Ctx) error {
	rows, err := dc.agg.OutstandingByStudent(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"students": rows,
		"total":    len(rows),
	})
}
