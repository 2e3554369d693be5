package database

import (
	"context"

	"tuition_go/models"

	"gorm.io/gorm"
)

// ReminderLogRepository stores reminder deliveries
type ReminderLogRepository struct {
	db *gorm.DB
}

func NewReminderLogRepository(db *gorm.DB) *ReminderLogRepository {
	return &ReminderLogRepository{db: db}
}

func (r *ReminderLogRepository) CreateBatch(ctx context.Context, logs []models.ReminderLog) error {
	if len(logs) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(&logs).Error, "Reminder log")
}

func (r *ReminderLogRepository) Save(ctx context.Context, l *models.ReminderLog) error {
	return translate(r.db.WithContext(ctx).Save(l).Error, "Reminder log")
}

func (r *ReminderLogRepository) ListRecent(ctx context.Context, limit int) ([]models.ReminderLog, error) {
	logs := []models.ReminderLog{}
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, translate(err, "Reminder log")
}

// ReportArchiveRepository tracks workbooks uploaded to S3
type ReportArchiveRepository struct {
	db *gorm.DB
}

func NewReportArchiveRepository(db *gorm.DB) *ReportArchiveRepository {
	return &ReportArchiveRepository{db: db}
}

func (r *ReportArchiveRepository) Create(ctx context.Context, a *models.ReportArchive) error {
	return translate(r.db.WithContext(ctx).Create(a).Error, "Report archive")
}

func (r *ReportArchiveRepository) Save(ctx context.Context, a *models.ReportArchive) error {
	return translate(r.db.WithContext(ctx).Save(a).Error, "Report archive")
}

func (r *ReportArchiveRepository) List(ctx context.Context, limit int) ([]models.ReportArchive, error) {
	archives := []models.ReportArchive{}
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&archives).Error
	return archives, translate(err, "Report archive")
}
