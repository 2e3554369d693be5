package controllers

import (
	"tuition_go/middleware"
	"tuition_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

// WebSocketController pushes ledger events to dashboards.
type WebSocketController struct {
	hub         *websocket.Hub
	jwtSecret   string
	authEnabled bool
}

func NewWebSocketController(hub *websocket.Hub, jwtSecret string, authEnabled bool) *WebSocketController {
	return &WebSocketController{
		hub:         hub,
		jwtSecret:   jwtSecret,
		authEnabled: authEnabled,
	}
}

// RequireUpgrade rejects plain HTTP requests to the websocket route.
func (wsc *WebSocketController) RequireUpgrade(c *fiber.Ctx) error {
	if fiberws.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.NewError(fiber.StatusUpgradeRequired, "Use the WebSocket endpoint: ws://<host>/ws?token=YOUR_JWT")
}

// WebSocketHandler returns a Fiber WebSocket handler that checks ?token= when auth is enabled
func (wsc *WebSocketController) WebSocketHandler() fiber.Handler {
	return fiberws.New(func(c *fiberws.Conn) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("WebSocket handler panic")
			}
		}()

		subject := "dashboard"
		if wsc.authEnabled {
			claims, err := middleware.ParseToken(c.Query("token"), wsc.jwtSecret)
			if err != nil {
				logrus.WithError(err).Warn("WebSocket connection rejected")
				c.WriteMessage(fiberws.CloseMessage, fiberws.FormatCloseMessage(fiberws.ClosePolicyViolation, "Invalid token"))
				c.Close()
				return
			}
			subject = claims.Subject
		}

		wsc.hub.ServeFiberWS(c, subject)
	})
}

// GetWebSocketStats returns WebSocket connection statistics
func (wsc *WebSocketController) GetWebSocketStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connected_clients": wsc.hub.GetClientCount(),
		"status":            "active",
	})
}
