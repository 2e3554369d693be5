package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"

	"github.com/gofiber/fiber/v2"
	"github.com/line/line-bot-sdk-go/linebot"
	"github.com/sirupsen/logrus"
)

const registerCommand = "REGISTER"

// ParentLinker stores the LINE id of a parent against a student's roll number.
type ParentLinker interface {
	LinkParentLine(ctx context.Context, rollNumber, lineUserID string) (*models.Student, error)
}

// Replier answers webhook events.
type Replier interface {
	Enabled() bool
	Reply(replyToken string, message string) error
}

// LineWebhookHandler lets parents subscribe to LINE fee reminders by sending
// "REGISTER <roll number>" to the official account.
type LineWebhookHandler struct {
	secret  string
	linker  ParentLinker
	replier Replier
	timeout time.Duration
}

func NewLineWebhookHandler(secret string, linker ParentLinker, replier Replier) *LineWebhookHandler {
	return &LineWebhookHandler{
		secret:  secret,
		linker:  linker,
		replier: replier,
		timeout: 10 * time.Second,
	}
}

// Handle verifies the signature and answers 200 before processing events.
func (h *LineWebhookHandler) Handle(c *fiber.Ctx) error {
	if h.secret == "" {
		logrus.Warn("LINE webhook called without a channel secret configured")
		return c.SendStatus(fiber.StatusOK)
	}

	signature := c.Get("X-Line-Signature")
	if signature == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	body := append([]byte(nil), c.Body()...)
	if !validateSignature(h.secret, body, signature) {
		logrus.WithField("path", c.Path()).Warn("LINE webhook signature mismatch")
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		if err := h.processEvents(ctx, body); err != nil {
			logrus.WithError(err).Error("Failed to process LINE webhook")
		}
	}()

	return c.SendStatus(fiber.StatusOK)
}

func (h *LineWebhookHandler) processEvents(ctx context.Context, body []byte) error {
	var webhook struct {
		Events []*linebot.Event `json:"events"`
	}
	if err := json.Unmarshal(body, &webhook); err != nil {
		return fmt.Errorf("parse LINE events: %w", err)
	}

	for _, event := range webhook.Events {
		if event == nil || event.Source == nil {
			continue
		}
		switch event.Type {
		case linebot.EventTypeFollow:
			h.reply(event.ReplyToken, "Welcome! Send REGISTER followed by your child's roll number to receive fee reminders here.")

		case linebot.EventTypeMessage:
			text, ok := event.Message.(*linebot.TextMessage)
			if !ok {
				continue
			}
			roll, ok := parseRegister(text.Text)
			if !ok {
				continue
			}
			h.reply(event.ReplyToken, h.link(ctx, roll, event.Source.UserID))
		}
	}
	return nil
}

func (h *LineWebhookHandler) link(ctx context.Context, roll, userID string) string {
	if userID == "" {
		return "Please message us directly to register for reminders."
	}
	student, err := h.linker.LinkParentLine(ctx, roll, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return fmt.Sprintf("No student found with roll number %s.", roll)
		}
		logrus.WithError(err).WithField("roll_number", roll).Error("Failed to link parent LINE id")
		return "Registration failed, please try again later."
	}

	logrus.WithFields(logrus.Fields{
		"student_id":  student.ID,
		"roll_number": student.RollNumber,
	}).Info("Parent subscribed to LINE reminders")
	return fmt.Sprintf("You will now receive fee reminders for %s (Roll No. %s).", student.Name, student.RollNumber)
}

func (h *LineWebhookHandler) reply(token, message string) {
	if h.replier == nil || !h.replier.Enabled() || token == "" {
		return
	}
	if err := h.replier.Reply(token, message); err != nil {
		logrus.WithError(err).Warn("LINE reply failed")
	}
}

// parseRegister extracts the roll number from "REGISTER <roll>", case-insensitive.
func parseRegister(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) != 2 || !strings.EqualFold(fields[0], registerCommand) {
		return "", false
	}
	return fields[1], true
}

func computeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func validateSignature(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(signature), []byte(computeSignature(secret, body)))
}
