package controllers

import (
	"fmt"
	"strconv"
	"time"

	"tuition_go/services"
	"tuition_go/utils"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{reports: reports}
}

// rangeOrCurrentMonth reads ?from= and ?to=, defaulting to the month of today.
func rangeOrCurrentMonth(c *fiber.Ctx, today time.Time) (time.Time, time.Time, error) {
	first, last := services.MonthBounds(today)
	from, err := dateOrToday(c.Query("from"), first)
	if err != nil {
		return from, last, err
	}
	to, err := dateOrToday(c.Query("to"), last)
	return from, to, err
}

// DownloadFees streams the fee workbook for the requested due-date range.
func (rc *ReportController) DownloadFees(c *fiber.Ctx) error {
	from, to, err := rangeOrCurrentMonth(c, rc.reports.Today())
	if err != nil {
		return err
	}
	buf, count, err := rc.reports.BuildWorkbook(c.UserContext(), from, to)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("fees_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Set("X-Record-Count", strconv.Itoa(count))
	return c.Send(buf.Bytes())
}

// Archive uploads the workbook of the range to object storage.
func (rc *ReportController) Archive(c *fiber.Ctx) error {
	from, to, err := rangeOrCurrentMonth(c, rc.reports.Today())
	if err != nil {
		return err
	}
	archive, err := rc.reports.Archive(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Report archived",
		"archive": archive,
	})
}

func (rc *ReportController) ListArchives(c *fiber.Ctx) error {
	archives, err := rc.reports.ListArchives(c.UserContext(), utils.ParseLimit(c.Query("limit"), 20, 100))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"archives": archives})
}
