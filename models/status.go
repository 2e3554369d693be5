package models

import "strings"

type FeeStatus string

const (
	FeeStatusDue     FeeStatus = "DUE"
	FeeStatusPaid    FeeStatus = "PAID"
	FeeStatusOverdue FeeStatus = "OVERDUE"
)

func (s FeeStatus) Valid() bool {
	switch s {
	case FeeStatusDue, FeeStatusPaid, FeeStatusOverdue:
		return true
	}
	return false
}

// IsOutstanding reports whether money is still owed on a record in this status.
func (s FeeStatus) IsOutstanding() bool {
	return s == FeeStatusDue || s == FeeStatusOverdue
}

// CanTransitionTo reports whether the ledger may move a record from s to next.
// PAID is terminal.
func (s FeeStatus) CanTransitionTo(next FeeStatus) bool {
	switch s {
	case FeeStatusDue:
		return next == FeeStatusPaid || next == FeeStatusOverdue
	case FeeStatusOverdue:
		return next == FeeStatusPaid
	case FeeStatusPaid:
		return false
	default:
		return false
	}
}

// ParseFeeStatus accepts any letter case.
func ParseFeeStatus(v string) (FeeStatus, bool) {
	s := FeeStatus(strings.ToUpper(strings.TrimSpace(v)))
	return s, s.Valid()
}

type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "ACTIVE"
	StudentStatusInactive  StudentStatus = "INACTIVE"
	StudentStatusGraduated StudentStatus = "GRADUATED"
	StudentStatusSuspended StudentStatus = "SUSPENDED"
)

func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusInactive, StudentStatusGraduated, StudentStatusSuspended:
		return true
	}
	return false
}

func ParseStudentStatus(v string) (StudentStatus, bool) {
	s := StudentStatus(strings.ToUpper(strings.TrimSpace(v)))
	return s, s.Valid()
}

// PaymentMethod holds one of the known methods or free text from the cashier.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "CASH"
	PaymentUPI     PaymentMethod = "UPI"
	PaymentGPay    PaymentMethod = "GPAY"
	PaymentPhonePe PaymentMethod = "PHONEPE"
	PaymentPaytm   PaymentMethod = "PAYTM"
)

const MaxPaymentMethodLength = 50

// Known reports whether the method is one of the predefined constants.
func (m PaymentMethod) Known() bool {
	switch m {
	case PaymentCash, PaymentUPI, PaymentGPay, PaymentPhonePe, PaymentPaytm:
		return true
	}
	return false
}

// NormalizePaymentMethod upper-cases known methods and keeps free text as entered.
func NormalizePaymentMethod(v string) PaymentMethod {
	v = strings.TrimSpace(v)
	if m := PaymentMethod(strings.ToUpper(v)); m.Known() {
		return m
	}
	return PaymentMethod(v)
}
