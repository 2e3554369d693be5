package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"tuition_go/models"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DefaultCurrencySymbol = "₹"
	reminderDateLayout    = "02 Jan 2006"

	ChannelLine     = "line"
	ChannelWhatsApp = "whatsapp"
)

// Reminder is one payment reminder for one fee record.
type Reminder struct {
	FeeRecordID  uint            `json:"fee_record_id"`
	StudentID    uint            `json:"student_id"`
	StudentName  string          `json:"student_name"`
	RollNumber   string          `json:"roll_number"`
	ParentName   string          `json:"parent_name"`
	ParentPhone  string          `json:"parent_phone"`
	ParentLineID string          `json:"-"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"due_date"`
	Message      string          `json:"message"`
	WhatsAppURL  string          `json:"whatsapp_url"`
}

// DueStudentsResponse lists the students with fees due on a day together with their messages.
type DueStudentsResponse struct {
	Students         []models.Student `json:"students"`
	WhatsAppMessages []string         `json:"whatsapp_messages"`
	TotalDueCount    int              `json:"total_due_count"`
}

// ReminderQueue accepts deliveries for the notification worker.
type ReminderQueue interface {
	Enqueue(ctx context.Context, deliveries []models.ReminderLog) error
}

type ReminderService struct {
	fees     FeeStore
	students StudentStore
	clock    Clock
	currency string
	queue    ReminderQueue
}

func NewReminderService(fees FeeStore, students StudentStore, clock Clock) *ReminderService {
	return &ReminderService{
		fees:     fees,
		students: students,
		clock:    clock,
		currency: DefaultCurrencySymbol,
	}
}

func (s *ReminderService) SetCurrencySymbol(symbol string) {
	if symbol != "" {
		s.currency = symbol
	}
}

func (s *ReminderService) SetQueue(q ReminderQueue) {
	s.queue = q
}

// StudentsWithFeesDueOn returns each student with a DUE fee due on date once, in ledger order.
func (s *ReminderService) StudentsWithFeesDueOn(ctx context.Context, date time.Time) ([]models.Student, error) {
	fees, err := s.dueOn(ctx, date)
	if err != nil {
		return nil, err
	}
	ids := lo.Uniq(lo.Map(fees, func(f models.FeeRecord, _ int) uint { return f.StudentID }))
	if len(ids) == 0 {
		return []models.Student{}, nil
	}

	students, err := s.students.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(students, func(st models.Student) uint { return st.ID })
	return lo.FilterMap(ids, func(id uint, _ int) (models.Student, bool) {
		st, ok := byID[id]
		return st, ok
	}), nil
}

// ComposeMessage renders the reminder text for a fee and its student.
func (s *ReminderService) ComposeMessage(fee models.FeeRecord, student models.Student) string {
	payer := strings.TrimSpace(student.ParentName)
	if payer == "" {
		payer = student.Name
	}
	return fmt.Sprintf(
		"Dear %s, the tuition fee of %s%s for %s (Roll No. %s) is due on %s. Please make the payment at your earliest convenience. Thank you!",
		payer,
		s.currency,
		fee.Amount.StringFixed(2),
		student.Name,
		student.RollNumber,
		fee.DueDate.Format(reminderDateLayout),
	)
}

// BuildReminderBatch returns one reminder per DUE fee due on date, in ledger order.
// A student with two such fees gets two reminders.
func (s *ReminderService) BuildReminderBatch(ctx context.Context, date time.Time) ([]Reminder, error) {
	fees, err := s.dueOn(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(fees) == 0 {
		return []Reminder{}, nil
	}

	ids := lo.Uniq(lo.Map(fees, func(f models.FeeRecord, _ int) uint { return f.StudentID }))
	students, err := s.students.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(students, func(st models.Student) uint { return st.ID })

	batch := make([]Reminder, 0, len(fees))
	for _, fee := range fees {
		student, ok := byID[fee.StudentID]
		if !ok {
			logrus.WithField("fee_id", fee.ID).Warn("Skipping reminder for fee without student")
			continue
		}
		msg := s.ComposeMessage(fee, student)
		batch = append(batch, Reminder{
			FeeRecordID:  fee.ID,
			StudentID:    student.ID,
			StudentName:  student.Name,
			RollNumber:   student.RollNumber,
			ParentName:   student.ParentName,
			ParentPhone:  student.ParentPhone,
			ParentLineID: student.ParentLineID,
			Amount:       fee.Amount,
			DueDate:      fee.DueDate,
			Message:      msg,
			WhatsAppURL:  WhatsAppURL(student.ParentPhone, msg),
		})
	}
	return batch, nil
}

// DueStudentsWithMessages pairs each student due on date with one message per student.
func (s *ReminderService) DueStudentsWithMessages(ctx context.Context, date time.Time) (*DueStudentsResponse, error) {
	batch, err := s.BuildReminderBatch(ctx, date)
	if err != nil {
		return nil, err
	}
	students, err := s.StudentsWithFeesDueOn(ctx, date)
	if err != nil {
		return nil, err
	}
	first := lo.UniqBy(batch, func(r Reminder) uint { return r.StudentID })
	return &DueStudentsResponse{
		Students:         students,
		WhatsAppMessages: lo.Map(first, func(r Reminder, _ int) string { return r.Message }),
		TotalDueCount:    len(students),
	}, nil
}

// DispatchReminders queues the day's reminders. Parents with a linked LINE account are
// pushed over LINE; the rest are recorded for a manual WhatsApp send.
func (s *ReminderService) DispatchReminders(ctx context.Context, date time.Time) (int, error) {
	batch, err := s.BuildReminderBatch(ctx, date)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 || s.queue == nil {
		return 0, nil
	}

	deliveries := lo.Map(batch, func(r Reminder, _ int) models.ReminderLog {
		d := models.ReminderLog{
			FeeRecordID: r.FeeRecordID,
			StudentID:   r.StudentID,
			Channel:     ChannelWhatsApp,
			Recipient:   r.ParentPhone,
			Message:     r.Message,
			Status:      "pending",
		}
		if r.ParentLineID != "" {
			d.Channel = ChannelLine
			d.Recipient = r.ParentLineID
		}
		return d
	})
	if err := s.queue.Enqueue(ctx, deliveries); err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"date":      models.DateOnly(date).Format("2006-01-02"),
		"reminders": len(deliveries),
	}).Info("Fee reminders dispatched")
	return len(deliveries), nil
}

// Today is the reminder composer's current calendar day.
func (s *ReminderService) Today() time.Time {
	return today(s.clock)
}

func (s *ReminderService) dueOn(ctx context.Context, date time.Time) ([]models.FeeRecord, error) {
	d := models.DateOnly(date)
	return s.fees.List(ctx, models.FeeQuery{DueOn: &d, Statuses: []models.FeeStatus{models.FeeStatusDue}})
}

// WhatsAppURL builds a click-to-chat link. Non-digits are dropped from the phone number.
func WhatsAppURL(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(message)
}
