package services

import (
	"context"
	"time"

	"tuition_go/models"

	"github.com/shopspring/decimal"
)

// StudentStore persists students. Lookups of a missing id return an error marked ierr.ErrNotFound.
type StudentStore interface {
	Create(ctx context.Context, s *models.Student) error
	Save(ctx context.Context, s *models.Student) error
	FindByID(ctx context.Context, id uint) (*models.Student, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Student, error)
	FindByRollNumber(ctx context.Context, roll string) (*models.Student, error)
	FindAll(ctx context.Context) ([]models.Student, error)
	FindByStatus(ctx context.Context, status models.StudentStatus) ([]models.Student, error)
	// Search matches name case-insensitively as a substring and class exactly. Empty filters are ignored.
	Search(ctx context.Context, name, className string) ([]models.Student, error)
	// ExistsByRollNumber ignores the student with excludeID, zero excludes nobody.
	ExistsByRollNumber(ctx context.Context, roll string, excludeID uint) (bool, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uint) error
}

// FeeStore persists fee records. Listings come back in ledger order (ascending id).
type FeeStore interface {
	Create(ctx context.Context, f *models.FeeRecord) error
	Save(ctx context.Context, f *models.FeeRecord) error
	FindByID(ctx context.Context, id uint) (*models.FeeRecord, error)
	FindAll(ctx context.Context) ([]models.FeeRecord, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, id uint) error
	DeleteByStudent(ctx context.Context, studentID uint) error
	List(ctx context.Context, q models.FeeQuery) ([]models.FeeRecord, error)
	SumAmount(ctx context.Context, q models.FeeQuery) (decimal.Decimal, error)
	Count(ctx context.Context, q models.FeeQuery) (int64, error)
	// MarkPaid sets the record PAID only if it is not PAID yet and reports whether it did.
	MarkPaid(ctx context.Context, id uint, paidDate time.Time, method *models.PaymentMethod, transactionID string) (bool, error)
}

// EventPublisher receives ledger events, the websocket hub in production.
type EventPublisher interface {
	BroadcastEvent(event string, payload interface{})
}
