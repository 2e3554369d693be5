package controllers

import (
	"tuition_go/services"

	"github.com/gofiber/fiber/v2"
)

type ReminderController struct {
	reminders *services.ReminderService
}

func NewReminderController(reminders *services.ReminderService) *ReminderController {
	return &ReminderController{reminders: reminders}
}

// GetWhatsAppReminders returns one click-to-chat reminder per fee due on ?date= (default today).
func (rc *ReminderController) GetWhatsAppReminders(c *fiber.Ctx) error {
	date, err := dateOrToday(c.Query("date"), rc.reminders.Today())
	if err != nil {
		return err
	}
	batch, err := rc.reminders.BuildReminderBatch(c.UserContext(), date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"date":      date.Format("2006-01-02"),
		"reminders": batch,
		"total":     len(batch),
	})
}

// Dispatch queues the reminders of ?date= for LINE or WhatsApp delivery.
func (rc *ReminderController) Dispatch(c *fiber.Ctx) error {
	date, err := dateOrToday(c.Query("date"), rc.reminders.Today())
	if err != nil {
		return err
	}
	queued, err := rc.reminders.DispatchReminders(c.UserContext(), date)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Reminders queued",
		"date":    date.Format("2006-01-02"),
		"queued":  queued,
	})
}
