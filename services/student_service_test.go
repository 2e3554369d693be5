package services

import (
	"context"
	"errors"
	"testing"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"
	"tuition_go/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StudentServiceSuite struct {
	suite.Suite
	ctx      context.Context
	students *testutil.InMemoryStudentStore
	fees     *testutil.InMemoryFeeStore
	service  *StudentService
}

func TestStudentService(t *testing.T) {
	suite.Run(t, new(StudentServiceSuite))
}

func (s *StudentServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.students = testutil.NewInMemoryStudentStore()
	s.fees = testutil.NewInMemoryFeeStore()
	clock := FixedClock(time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC))
	s.service = NewStudentService(s.students, s.fees, clock, decimal.RequireFromString("1000.00"))
}

func profile(roll, name string) StudentProfile {
	return StudentProfile{
		Name:        name,
		RollNumber:  roll,
		Email:       roll + "@school.test",
		Phone:       "9800000000",
		ParentName:  "Parent of " + name,
		ParentPhone: "9876543210",
		Department:  "Science",
		ClassName:   "10A",
		Address:     "12 Main Road",
	}
}

func (s *StudentServiceSuite) TestRegisterAppliesDefaults() {
	st, err := s.service.Register(s.ctx, profile("R-1", "Asha"))
	s.Require().NoError(err)

	s.NotZero(st.ID)
	s.Equal(date(2024, time.March, 5), st.JoiningDate)
	s.Equal(models.StudentStatusActive, st.Status)
	s.True(st.DiscountPercent.IsZero())
	s.Equal("1000.00", st.MonthlyFee.StringFixed(2))
}

func (s *StudentServiceSuite) TestRegisterDefaultsAreIndependent() {
	a, err := s.service.Register(s.ctx, profile("R-1", "Asha"))
	s.Require().NoError(err)
	b, err := s.service.Register(s.ctx, profile("R-2", "Ben"))
	s.Require().NoError(err)

	a.Status = models.StudentStatusSuspended
	s.Equal(models.StudentStatusActive, b.Status)
}

func (s *StudentServiceSuite) TestRegisterValidation() {
	tests := []struct {
		name   string
		mutate func(p *StudentProfile)
	}{
		{"missing name", func(p *StudentProfile) { p.Name = " " }},
		{"bad email", func(p *StudentProfile) { p.Email = "asha-at-school" }},
		{"bad parent email", func(p *StudentProfile) { p.ParentEmail = "nope" }},
		{"missing parent phone", func(p *StudentProfile) { p.ParentPhone = "" }},
		{"negative discount", func(p *StudentProfile) { d := decimal.NewFromInt(-5); p.DiscountPercent = &d }},
		{"discount above hundred", func(p *StudentProfile) { d := decimal.NewFromInt(101); p.DiscountPercent = &d }},
		{"negative fee", func(p *StudentProfile) { f := decimal.NewFromInt(-1); p.MonthlyFee = &f }},
		{"unknown status", func(p *StudentProfile) { st := models.StudentStatus("EXPELLED"); p.Status = &st }},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			p := profile("R-9", "Asha")
			tt.mutate(&p)
			_, err := s.service.Register(s.ctx, p)
			s.True(ierr.IsValidation(err), "got %v", err)
		})
	}
	n, _ := s.students.Count(s.ctx)
	s.Zero(n)
}

func (s *StudentServiceSuite) TestRegisterDuplicateRollNumber() {
	_, err := s.service.Register(s.ctx, profile("R-1", "Asha"))
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, profile("R-1", "Other"))
	s.True(ierr.IsAlreadyExists(err))
}

func (s *StudentServiceSuite) TestRegisterRunsHook() {
	var hooked []uint
	s.service.OnRegister(func(_ context.Context, st *models.Student) error {
		hooked = append(hooked, st.ID)
		return nil
	})

	st, err := s.service.Register(s.ctx, profile("R-1", "Asha"))
	s.Require().NoError(err)
	s.Equal([]uint{st.ID}, hooked)
}

func (s *StudentServiceSuite) TestGetByIDNotFound() {
	_, err := s.service.GetByID(s.ctx, 42)
	s.True(ierr.IsNotFound(err))
}

func (s *StudentServiceSuite) TestSearch() {
	for _, p := range []StudentProfile{profile("R-1", "Asha Rao"), profile("R-2", "Rahul"), profile("R-3", "Meera")} {
		_, err := s.service.Register(s.ctx, p)
		s.Require().NoError(err)
	}
	other := profile("R-4", "Ashok")
	other.ClassName = "9B"
	_, err := s.service.Register(s.ctx, other)
	s.Require().NoError(err)

	byName, err := s.service.Search(s.ctx, "ASH", "")
	s.Require().NoError(err)
	s.Len(byName, 2)

	both, err := s.service.Search(s.ctx, "ash", "9B")
	s.Require().NoError(err)
	s.Require().Len(both, 1)
	s.Equal("Ashok", both[0].Name)

	all, err := s.service.Search(s.ctx, "", "")
	s.Require().NoError(err)
	s.Len(all, 4)
}

func (s *StudentServiceSuite) TestListByStatus() {
	suspended := profile("R-2", "Ben")
	status := models.StudentStatusSuspended
	suspended.Status = &status
	for _, p := range []StudentProfile{profile("R-1", "Asha"), suspended} {
		_, err := s.service.Register(s.ctx, p)
		s.Require().NoError(err)
	}

	active, err := s.service.ListByStatus(s.ctx, models.StudentStatusActive)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal("R-1", active[0].RollNumber)

	_, err = s.service.ListByStatus(s.ctx, models.StudentStatus("EXPELLED"))
	s.True(ierr.IsValidation(err))
}

func (s *StudentServiceSuite) TestUpdate() {
	st, err := s.service.Register(s.ctx, profile("R-1", "Asha"))
	s.Require().NoError(err)
	_, err = s.service.Register(s.ctx, profile("R-2", "Ben"))
	s.Require().NoError(err)

	p := profile("R-1", "Asha Rao")
	p.ClassName = "11C"
	updated, err := s.service.Update(s.ctx, st.ID, p)
	s.Require().NoError(err)
	s.Equal(st.ID, updated.ID)
	s.Equal("Asha Rao", updated.Name)
	s.Equal("11C", updated.ClassName)
	s.Equal(st.JoiningDate, updated.JoiningDate)

	_, err = s.service.Update(s.ctx, st.ID, profile("R-2", "Asha"))
	s.True(ierr.IsAlreadyExists(err))

	_, err = s.service.Update(s.ctx, 99, profile("R-9", "Ghost"))
	s.True(ierr.IsNotFound(err))
}

func (s *StudentServiceSuite) TestRemoveCascadesFees() {
	st, err := s.service.Register(s.ctx, profile("R-1", "Asha"))
	s.Require().NoError(err)
	keep, err := s.service.Register(s.ctx, profile("R-2", "Ben"))
	s.Require().NoError(err)
	s.fees.Put(models.FeeRecord{StudentID: st.ID, Amount: testutil.Dec("100"), DueDate: date(2024, time.April, 1), Status: models.FeeStatusDue})
	s.fees.Put(models.FeeRecord{StudentID: keep.ID, Amount: testutil.Dec("100"), DueDate: date(2024, time.April, 1), Status: models.FeeStatusDue})

	s.Require().NoError(s.service.Remove(s.ctx, st.ID))

	_, err = s.service.GetByID(s.ctx, st.ID)
	s.True(ierr.IsNotFound(err))
	left, _ := s.fees.FindAll(s.ctx)
	s.Require().Len(left, 1)
	s.Equal(keep.ID, left[0].StudentID)

	s.True(ierr.IsNotFound(s.service.Remove(s.ctx, st.ID)))
}

type failingFeeStore struct {
	*testutil.InMemoryFeeStore
	err error
}

func (f failingFeeStore) Create(context.Context, *models.FeeRecord) error {
	return f.err
}

func TestRegisterRollsBackWhenFirstFeeFails(t *testing.T) {
	ctx := context.Background()
	students := testutil.NewInMemoryStudentStore()
	fees := failingFeeStore{InMemoryFeeStore: testutil.NewInMemoryFeeStore(), err: errors.New("db down")}
	svc := NewStudentService(students, fees, FixedClock(time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)), decimal.NewFromInt(1000))
	gen := NewFeeGenerator(students, fees)
	svc.OnRegister(func(ctx context.Context, st *models.Student) error {
		_, err := gen.GenerateForNewStudent(ctx, st)
		return err
	})

	st, err := svc.Register(ctx, profile("R-9", "Ira"))
	require.EqualError(t, err, "db down")
	assert.Nil(t, st)

	n, err := students.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	healthy := NewStudentService(students, fees.InMemoryFeeStore, FixedClock(time.Now()), decimal.NewFromInt(1000))
	retried, err := healthy.Register(ctx, profile("R-9", "Ira"))
	require.NoError(t, err)
	assert.Equal(t, "R-9", retried.RollNumber)
}

func TestLinkParentLine(t *testing.T) {
	ctx := context.Background()
	students := testutil.NewInMemoryStudentStore()
	svc := NewStudentService(students, testutil.NewInMemoryFeeStore(), FixedClock(time.Now()), decimal.NewFromInt(1000))

	st, err := svc.Register(ctx, profile("R-1", "Asha"))
	require.NoError(t, err)

	linked, err := svc.LinkParentLine(ctx, "R-1", "U123")
	require.NoError(t, err)
	assert.Equal(t, st.ID, linked.ID)
	assert.Equal(t, "U123", linked.ParentLineID)

	_, err = svc.LinkParentLine(ctx, "R-404", "U123")
	assert.True(t, ierr.IsNotFound(err))
}
