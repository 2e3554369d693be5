package database

import (
	"context"
	"strings"

	ierr "tuition_go/errors"
	"tuition_go/models"

	"gorm.io/gorm"
)

// StudentRepository is the gorm implementation of services.StudentStore
type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	return translate(r.db.WithContext(ctx).Create(s).Error, "Student")
}

func (r *StudentRepository) Save(ctx context.Context, s *models.Student) error {
	return translate(r.db.WithContext(ctx).Save(s).Error, "Student")
}

func (r *StudentRepository) FindByID(ctx context.Context, id uint) (*models.Student, error) {
	var s models.Student
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, translate(err, "Student")
	}
	return &s, nil
}

func (r *StudentRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Student, error) {
	students := []models.Student{}
	if len(ids) == 0 {
		return students, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&students).Error
	return students, translate(err, "Student")
}

func (r *StudentRepository) FindByRollNumber(ctx context.Context, roll string) (*models.Student, error) {
	var s models.Student
	if err := r.db.WithContext(ctx).Where("roll_number = ?", roll).First(&s).Error; err != nil {
		return nil, translate(err, "Student")
	}
	return &s, nil
}

func (r *StudentRepository) FindAll(ctx context.Context) ([]models.Student, error) {
	students := []models.Student{}
	err := r.db.WithContext(ctx).Order("id").Find(&students).Error
	return students, translate(err, "Student")
}

func (r *StudentRepository) FindByStatus(ctx context.Context, status models.StudentStatus) ([]models.Student, error) {
	students := []models.Student{}
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("id").Find(&students).Error
	return students, translate(err, "Student")
}

func (r *StudentRepository) Search(ctx context.Context, name, className string) ([]models.Student, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})
	if name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+escapeLike(strings.ToLower(name))+"%")
	}
	if className != "" {
		query = query.Where("class_name = ?", className)
	}

	students := []models.Student{}
	err := query.Order("id").Find(&students).Error
	return students, translate(err, "Student")
}

func (r *StudentRepository) ExistsByRollNumber(ctx context.Context, roll string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Student{}).Where("roll_number = ?", roll)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, translate(err, "Student")
	}
	return count > 0, nil
}

func (r *StudentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Student{}).Count(&count).Error
	return count, translate(err, "Student")
}

func (r *StudentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Student{}, id)
	if res.Error != nil {
		return translate(res.Error, "Student")
	}
	if res.RowsAffected == 0 {
		return ierr.NewErrorf("student %d not found", id).
			WithHint("Student not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
