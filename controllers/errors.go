package controllers

import (
	"errors"

	ierr "tuition_go/errors"
	"tuition_go/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ErrorHandler renders every error returned by a handler as {"error","code"}.
// Domain errors keep their hint; anything unmarked becomes a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fe.Message,
			"code":  fe.Code,
		})
	}

	status := ierr.HTTPStatus(err)
	body := fiber.Map{
		"error": ierr.HintOf(err, "Internal Server Error"),
		"code":  ierr.Code(err),
	}
	if ierr.IsValidation(err) {
		if fields := validator.FieldErrors(err); len(fields) > 0 {
			body["fields"] = fields
		}
	}

	entry := logrus.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Path(),
		"method": c.Method(),
		"status": status,
	})
	if status >= fiber.StatusInternalServerError {
		entry.Error("Request error")
	} else {
		entry.Debug("Request rejected")
	}

	return c.Status(status).JSON(body)
}

func badBody() error {
	return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
}
