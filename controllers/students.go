package controllers

import (
	"strings"

	ierr "tuition_go/errors"
	"tuition_go/models"
	"tuition_go/services"
	"tuition_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type StudentController struct {
	students  *services.StudentService
	fees      *services.FeeService
	reminders *services.ReminderService
}

func NewStudentController(students *services.StudentService, fees *services.FeeService, reminders *services.ReminderService) *StudentController {
	return &StudentController{students: students, fees: fees, reminders: reminders}
}

// studentRequest is the wire form of a student profile; dates arrive as YYYY-MM-DD.
type studentRequest struct {
	Name            string           `json:"name"`
	RollNumber      string           `json:"roll_number"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	ParentName      string           `json:"parent_name"`
	ParentPhone     string           `json:"parent_phone"`
	ParentEmail     string           `json:"parent_email"`
	Department      string           `json:"department"`
	ClassName       string           `json:"class_name"`
	Address         string           `json:"address"`
	JoiningDate     string           `json:"joining_date"`
	MonthlyFee      *decimal.Decimal `json:"monthly_fee"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	Status          string           `json:"status"`
}

func (r studentRequest) profile() (services.StudentProfile, error) {
	p := services.StudentProfile{
		Name:            utils.SanitizeString(r.Name),
		RollNumber:      utils.SanitizeString(r.RollNumber),
		Email:           r.Email,
		Phone:           r.Phone,
		ParentName:      utils.SanitizeString(r.ParentName),
		ParentPhone:     r.ParentPhone,
		ParentEmail:     r.ParentEmail,
		Department:      r.Department,
		ClassName:       r.ClassName,
		Address:         utils.SanitizeString(r.Address),
		MonthlyFee:      r.MonthlyFee,
		DiscountPercent: r.DiscountPercent,
	}

	joined, err := utils.ParseOptionalDate(r.JoiningDate)
	if err != nil {
		return p, err
	}
	p.JoiningDate = joined

	if strings.TrimSpace(r.Status) != "" {
		status, err := parseStudentStatus(r.Status)
		if err != nil {
			return p, err
		}
		p.Status = &status
	}
	return p, nil
}

func parseStudentStatus(raw string) (models.StudentStatus, error) {
	status, ok := models.ParseStudentStatus(raw)
	if !ok {
		return "", ierr.NewErrorf("unknown student status %q", raw).
			WithHint("Status must be ACTIVE, INACTIVE, GRADUATED or SUSPENDED").
			Mark(ierr.ErrValidation)
	}
	return status, nil
}

// GetStudents lists every student, optionally filtered by ?status=
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	var (
		students []models.Student
		err      error
	)
	if raw := c.Query("status"); raw != "" {
		status, perr := parseStudentStatus(raw)
		if perr != nil {
			return perr
		}
		students, err = sc.students.ListByStatus(c.UserContext(), status)
	} else {
		students, err = sc.students.ListAll(c.UserContext())
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"students": students,
		"total":    len(students),
	})
}

// SearchStudents filters by ?name= fragment and exact ?class=
func (sc *StudentController) SearchStudents(c *fiber.Ctx) error {
	students, err := sc.students.Search(c.UserContext(), c.Query("name"), c.Query("class"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"students": students,
		"total":    len(students),
	})
}

func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "student ID")
	if err != nil {
		return err
	}
	student, err := sc.students.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"student": student})
}

// CreateStudent registers a student; the first month's fee is billed by the registration hook.
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var req studentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}
	profile, err := req.profile()
	if err != nil {
		return err
	}

	student, err := sc.students.Register(c.UserContext(), profile)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student registered successfully",
		"student": student,
	})
}

func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "student ID")
	if err != nil {
		return err
	}
	var req studentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}
	profile, err := req.profile()
	if err != nil {
		return err
	}

	student, err := sc.students.Update(c.UserContext(), id, profile)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"student": student,
	})
}

// DeleteStudent removes the student together with all of its fee records.
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "student ID")
	if err != nil {
		return err
	}
	if err := sc.students.Remove(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Student deleted successfully"})
}

func (sc *StudentController) GetStudentFees(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "student ID")
	if err != nil {
		return err
	}
	fees, err := sc.fees.ByStudent(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"fees":  views(fees, sc.fees.Today()),
		"total": len(fees),
	})
}

// GetStudentDueFees lists the unpaid fees of a student.
func (sc *StudentController) GetStudentDueFees(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "student ID")
	if err != nil {
		return err
	}
	fees, err := sc.fees.OutstandingForStudent(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"fees":         views(fees, sc.fees.Today()),
		"total":        len(fees),
		"total_amount": services.SumAmounts(fees),
	})
}

// GetStudentsDueToday lists distinct students with a DUE fee falling due today.
func (sc *StudentController) GetStudentsDueToday(c *fiber.Ctx) error {
	students, err := sc.reminders.StudentsWithFeesDueOn(c.UserContext(), sc.reminders.Today())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"students": students,
		"total":    len(students),
	})
}

// GetDueFeesWithMessages answers with the due students and one reminder message each.
func (sc *StudentController) GetDueFeesWithMessages(c *fiber.Ctx) error {
	date, err := dateOrToday(c.Query("date"), sc.reminders.Today())
	if err != nil {
		return err
	}
	resp, err := sc.reminders.DueStudentsWithMessages(c.UserContext(), date)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
