package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or assigns a new one
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals("request_id", id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		entry := logrus.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"duration":   duration.String(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
			"request_id": RequestIDFrom(c),
		})
		if claims, ok := c.Locals("claims").(*Claims); ok {
			entry = entry.WithField("subject", claims.Subject)
		}
		if err != nil || status >= fiber.StatusInternalServerError {
			entry.Warn("HTTP Request")
		} else {
			entry.Info("HTTP Request")
		}

		return err
	}
}

// RequestIDFrom returns the request id assigned by RequestID, if any
func RequestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}
