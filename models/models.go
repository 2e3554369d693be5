package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Base model with common fields. Records are hard deleted.
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Student model
type Student struct {
	BaseModel
	Name            string          `json:"name" gorm:"size:255;not null;index"`
	RollNumber      string          `json:"roll_number" gorm:"size:50;not null;uniqueIndex"`
	Email           string          `json:"email" gorm:"size:255;not null"`
	Phone           string          `json:"phone" gorm:"size:20;not null"`
	ParentName      string          `json:"parent_name" gorm:"size:255;not null"`
	ParentPhone     string          `json:"parent_phone" gorm:"size:20;not null"`
	ParentEmail     string          `json:"parent_email" gorm:"size:255"`
	ParentLineID    string          `json:"parent_line_id,omitempty" gorm:"size:100;index"`
	Department      string          `json:"department" gorm:"size:100;not null"`
	ClassName       string          `json:"class_name" gorm:"size:100;not null;index"`
	Address         string          `json:"address" gorm:"size:500;not null"`
	JoiningDate     time.Time       `json:"joining_date" gorm:"type:date;not null"`
	MonthlyFee      decimal.Decimal `json:"monthly_fee" gorm:"type:decimal(10,2);not null"`
	DiscountPercent decimal.Decimal `json:"discount_percent" gorm:"type:decimal(5,2);not null;default:0"`
	Status          StudentStatus   `json:"status" gorm:"size:20;not null;default:'ACTIVE';index"`
}

// FeeRecord is one monetary obligation of a student.
// Status is PAID exactly when PaidDate is set.
type FeeRecord struct {
	BaseModel
	StudentID     uint            `json:"student_id" gorm:"not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	DueDate       time.Time       `json:"due_date" gorm:"type:date;not null;index"`
	PaidDate      *time.Time      `json:"paid_date" gorm:"type:date;index"`
	PaymentMethod *PaymentMethod  `json:"payment_method" gorm:"size:50"`
	Status        FeeStatus       `json:"status" gorm:"size:20;not null;default:'DUE';index"`
	Description   string          `json:"description" gorm:"size:255"`
	TransactionID string          `json:"transaction_id,omitempty" gorm:"size:100"`
}

// IsOverdue reports whether the fee is unpaid and its due date is strictly before asOf.
func (f FeeRecord) IsOverdue(asOf time.Time) bool {
	return f.Status.IsOutstanding() && DateOnly(f.DueDate).Before(DateOnly(asOf))
}

// EffectiveStatus classifies the record on the given day. OVERDUE is never stored by the
// service; a stored OVERDUE that is no longer past due reads as DUE.
func (f FeeRecord) EffectiveStatus(asOf time.Time) FeeStatus {
	switch {
	case f.Status == FeeStatusPaid:
		return FeeStatusPaid
	case f.IsOverdue(asOf):
		return FeeStatusOverdue
	default:
		return FeeStatusDue
	}
}

// ReminderLog records one reminder handed to a delivery channel
type ReminderLog struct {
	BaseModel
	FeeRecordID uint       `json:"fee_record_id" gorm:"not null;index"`
	StudentID   uint       `json:"student_id" gorm:"not null;index"`
	Channel     string     `json:"channel" gorm:"size:20;not null"` // line, whatsapp
	Recipient   string     `json:"recipient" gorm:"size:100"`
	Message     string     `json:"message" gorm:"type:text;not null"`
	Status      string     `json:"status" gorm:"size:20;not null;default:'pending'"` // pending, sent, failed
	Error       string     `json:"error" gorm:"type:text"`
	SentAt      *time.Time `json:"sent_at"`
}

// ReportArchive model for tracking ledger workbooks uploaded to S3
type ReportArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"type:date;not null"`
	EndDate     time.Time `json:"end_date" gorm:"type:date;not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending'"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
