package services

import (
	"context"
	"strings"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"
	"tuition_go/validator"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StudentProfile is the billing and contact profile accepted on registration and update.
// Nil optional fields take their defaults.
type StudentProfile struct {
	Name            string                `json:"name" validate:"required,max=255"`
	RollNumber      string                `json:"roll_number" validate:"required,max=50"`
	Email           string                `json:"email" validate:"required,email,max=255"`
	Phone           string                `json:"phone" validate:"required,max=20"`
	ParentName      string                `json:"parent_name" validate:"required,max=255"`
	ParentPhone     string                `json:"parent_phone" validate:"required,max=20"`
	ParentEmail     string                `json:"parent_email" validate:"omitempty,email,max=255"`
	Department      string                `json:"department" validate:"required,max=100"`
	ClassName       string                `json:"class_name" validate:"required,max=100"`
	Address         string                `json:"address" validate:"required,max=500"`
	JoiningDate     *time.Time            `json:"joining_date"`
	MonthlyFee      *decimal.Decimal      `json:"monthly_fee"`
	DiscountPercent *decimal.Decimal      `json:"discount_percent"`
	Status          *models.StudentStatus `json:"status"`
}

// RegistrationHook runs after a student is stored, used to bill the first month.
type RegistrationHook func(ctx context.Context, student *models.Student) error

type StudentService struct {
	students   StudentStore
	fees       FeeStore
	clock      Clock
	defaultFee decimal.Decimal
	onRegister RegistrationHook
}

func NewStudentService(students StudentStore, fees FeeStore, clock Clock, defaultFee decimal.Decimal) *StudentService {
	return &StudentService{
		students:   students,
		fees:       fees,
		clock:      clock,
		defaultFee: defaultFee,
	}
}

// OnRegister installs the hook run after each successful registration.
func (s *StudentService) OnRegister(hook RegistrationHook) {
	s.onRegister = hook
}

// Register validates the profile, applies defaults and stores a new student.
func (s *StudentService) Register(ctx context.Context, profile StudentProfile) (*models.Student, error) {
	student, err := s.fromProfile(profile)
	if err != nil {
		return nil, err
	}

	exists, err := s.students.ExistsByRollNumber(ctx, student.RollNumber, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ierr.NewErrorf("roll number %s already registered", student.RollNumber).
			WithHintf("Roll number %s is already in use", student.RollNumber).
			Mark(ierr.ErrAlreadyExists)
	}

	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"student_id":  student.ID,
		"roll_number": student.RollNumber,
	}).Info("Student registered")

	if s.onRegister != nil {
		if err := s.onRegister(ctx, student); err != nil {
			s.undoRegister(ctx, student.ID, err)
			return nil, err
		}
	}
	return student, nil
}

// undoRegister removes a student whose registration hook failed, so the roll number stays free.
func (s *StudentService) undoRegister(ctx context.Context, id uint, cause error) {
	log := logrus.WithFields(logrus.Fields{"student_id": id, "cause": cause.Error()})
	if err := s.fees.DeleteByStudent(ctx, id); err != nil {
		log.WithError(err).Error("Failed to remove fees of rolled back student")
	}
	if err := s.students.Delete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to roll back student registration")
		return
	}
	log.Warn("Student registration rolled back")
}

func (s *StudentService) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	return s.students.FindByID(ctx, id)
}

func (s *StudentService) ListAll(ctx context.Context) ([]models.Student, error) {
	return s.students.FindAll(ctx)
}

func (s *StudentService) ListByStatus(ctx context.Context, status models.StudentStatus) ([]models.Student, error) {
	if !status.Valid() {
		return nil, ierr.NewErrorf("unknown student status %q", status).
			WithHint("Status must be ACTIVE, INACTIVE, GRADUATED or SUSPENDED").
			Mark(ierr.ErrValidation)
	}
	return s.students.FindByStatus(ctx, status)
}

// Search filters by a case-insensitive name fragment and an exact class; both optional.
func (s *StudentService) Search(ctx context.Context, name, className string) ([]models.Student, error) {
	name = strings.TrimSpace(name)
	className = strings.TrimSpace(className)
	if name == "" && className == "" {
		return s.students.FindAll(ctx)
	}
	return s.students.Search(ctx, name, className)
}

func (s *StudentService) Count(ctx context.Context) (int64, error) {
	return s.students.Count(ctx)
}

// Update replaces every mutable field of the student with the profile.
func (s *StudentService) Update(ctx context.Context, id uint, profile StudentProfile) (*models.Student, error) {
	existing, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.fromProfile(profile)
	if err != nil {
		return nil, err
	}
	// omitted optional fields keep their stored values
	if profile.JoiningDate == nil {
		updated.JoiningDate = existing.JoiningDate
	}
	if profile.MonthlyFee == nil {
		updated.MonthlyFee = existing.MonthlyFee
	}
	if profile.DiscountPercent == nil {
		updated.DiscountPercent = existing.DiscountPercent
	}
	if profile.Status == nil {
		updated.Status = existing.Status
	}

	if updated.RollNumber != existing.RollNumber {
		exists, err := s.students.ExistsByRollNumber(ctx, updated.RollNumber, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ierr.NewErrorf("roll number %s already registered", updated.RollNumber).
				WithHintf("Roll number %s is already in use", updated.RollNumber).
				Mark(ierr.ErrAlreadyExists)
		}
	}

	updated.BaseModel = existing.BaseModel
	updated.ParentLineID = existing.ParentLineID
	if err := s.students.Save(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// LinkParentLine stores the LINE user id of the parent of the student with the roll number.
func (s *StudentService) LinkParentLine(ctx context.Context, rollNumber, lineUserID string) (*models.Student, error) {
	student, err := s.students.FindByRollNumber(ctx, strings.TrimSpace(rollNumber))
	if err != nil {
		return nil, err
	}
	student.ParentLineID = lineUserID
	if err := s.students.Save(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// Remove deletes the student's fee records and then the student.
func (s *StudentService) Remove(ctx context.Context, id uint) error {
	if _, err := s.students.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.fees.DeleteByStudent(ctx, id); err != nil {
		return err
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return err
	}

	logrus.WithField("student_id", id).Info("Student removed with fee records")
	return nil
}

func (s *StudentService) fromProfile(p StudentProfile) (*models.Student, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.RollNumber = strings.TrimSpace(p.RollNumber)
	p.Email = strings.TrimSpace(p.Email)
	p.ParentEmail = strings.TrimSpace(p.ParentEmail)

	if err := validator.ValidateRequest(p); err != nil {
		return nil, err
	}

	student := &models.Student{
		Name:            p.Name,
		RollNumber:      p.RollNumber,
		Email:           p.Email,
		Phone:           strings.TrimSpace(p.Phone),
		ParentName:      strings.TrimSpace(p.ParentName),
		ParentPhone:     strings.TrimSpace(p.ParentPhone),
		ParentEmail:     p.ParentEmail,
		Department:      strings.TrimSpace(p.Department),
		ClassName:       strings.TrimSpace(p.ClassName),
		Address:         strings.TrimSpace(p.Address),
		JoiningDate:     today(s.clock),
		MonthlyFee:      s.defaultFee,
		DiscountPercent: decimal.Zero,
		Status:          models.StudentStatusActive,
	}
	if p.JoiningDate != nil {
		student.JoiningDate = models.DateOnly(*p.JoiningDate)
	}
	if p.MonthlyFee != nil {
		student.MonthlyFee = *p.MonthlyFee
	}
	if p.DiscountPercent != nil {
		student.DiscountPercent = *p.DiscountPercent
	}
	if p.Status != nil {
		student.Status = *p.Status
	}

	if student.MonthlyFee.IsNegative() {
		return nil, ierr.NewError("monthly fee is negative").
			WithHint("Monthly fee must not be negative").
			Mark(ierr.ErrValidation)
	}
	if err := checkDiscount(student.DiscountPercent); err != nil {
		return nil, err
	}
	if !student.Status.Valid() {
		return nil, ierr.NewErrorf("unknown student status %q", student.Status).
			WithHint("Status must be ACTIVE, INACTIVE, GRADUATED or SUSPENDED").
			Mark(ierr.ErrValidation)
	}
	return student, nil
}

func checkDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(100)) {
		return ierr.NewErrorf("discount %s outside 0..100", discount).
			WithHint("Discount percent must be between 0 and 100").
			Mark(ierr.ErrValidation)
	}
	return nil
}
