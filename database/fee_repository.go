package database

import (
	"context"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeRepository is the gorm implementation of services.FeeStore
type FeeRepository struct {
	db *gorm.DB
}

func NewFeeRepository(db *gorm.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// applyQuery turns a FeeQuery into where clauses
func applyQuery(db *gorm.DB, q models.FeeQuery) *gorm.DB {
	if q.StudentID != nil {
		db = db.Where("student_id = ?", *q.StudentID)
	}
	if len(q.Statuses) > 0 {
		db = db.Where("status IN ?", q.Statuses)
	}
	if q.DueOn != nil {
		db = db.Where("due_date = ?", models.DateOnly(*q.DueOn))
	}
	if q.DueBefore != nil {
		db = db.Where("due_date < ?", models.DateOnly(*q.DueBefore))
	}
	if q.DueFrom != nil {
		db = db.Where("due_date >= ?", models.DateOnly(*q.DueFrom))
	}
	if q.DueTo != nil {
		db = db.Where("due_date <= ?", models.DateOnly(*q.DueTo))
	}
	if q.PaidFrom != nil {
		db = db.Where("paid_date >= ?", models.DateOnly(*q.PaidFrom))
	}
	if q.PaidTo != nil {
		db = db.Where("paid_date <= ?", models.DateOnly(*q.PaidTo))
	}
	return db
}

func (r *FeeRepository) Create(ctx context.Context, f *models.FeeRecord) error {
	return translate(r.db.WithContext(ctx).Create(f).Error, "Fee record")
}

func (r *FeeRepository) Save(ctx context.Context, f *models.FeeRecord) error {
	return translate(r.db.WithContext(ctx).Save(f).Error, "Fee record")
}

func (r *FeeRepository) FindByID(ctx context.Context, id uint) (*models.FeeRecord, error) {
	var f models.FeeRecord
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, translate(err, "Fee record")
	}
	return &f, nil
}

func (r *FeeRepository) FindAll(ctx context.Context) ([]models.FeeRecord, error) {
	return r.List(ctx, models.FeeQuery{})
}

func (r *FeeRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.FeeRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(err, "Fee record")
	}
	return count > 0, nil
}

func (r *FeeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.FeeRecord{}, id)
	if res.Error != nil {
		return translate(res.Error, "Fee record")
	}
	if res.RowsAffected == 0 {
		return ierr.NewErrorf("fee record %d not found", id).
			WithHint("Fee record not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *FeeRepository) DeleteByStudent(ctx context.Context, studentID uint) error {
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Delete(&models.FeeRecord{}).Error
	return translate(err, "Fee record")
}

func (r *FeeRepository) List(ctx context.Context, q models.FeeQuery) ([]models.FeeRecord, error) {
	fees := []models.FeeRecord{}
	err := applyQuery(r.db.WithContext(ctx), q).Order("id").Find(&fees).Error
	return fees, translate(err, "Fee record")
}

func (r *FeeRepository) SumAmount(ctx context.Context, q models.FeeQuery) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := applyQuery(r.db.WithContext(ctx).Model(&models.FeeRecord{}), q).
		Select("SUM(amount)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, translate(err, "Fee record")
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *FeeRepository) Count(ctx context.Context, q models.FeeQuery) (int64, error) {
	var count int64
	err := applyQuery(r.db.WithContext(ctx).Model(&models.FeeRecord{}), q).Count(&count).Error
	return count, translate(err, "Fee record")
}

// MarkPaid only touches rows that are not PAID yet, so of two racing calls exactly one wins.
func (r *FeeRepository) MarkPaid(ctx context.Context, id uint, paidDate time.Time, method *models.PaymentMethod, transactionID string) (bool, error) {
	updates := map[string]interface{}{
		"status":    models.FeeStatusPaid,
		"paid_date": models.DateOnly(paidDate),
	}
	if method != nil {
		updates["payment_method"] = *method
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}

	res := r.db.WithContext(ctx).Model(&models.FeeRecord{}).
		Where("id = ? AND status <> ?", id, models.FeeStatusPaid).
		Updates(updates)
	if res.Error != nil {
		return false, translate(res.Error, "Fee record")
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	exists, err := r.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ierr.NewErrorf("fee record %d not found", id).
			WithHint("Fee record not found").
			Mark(ierr.ErrNotFound)
	}
	return false, nil
}
