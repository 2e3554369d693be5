package testutil

import (
	"context"
	"strings"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"

	"github.com/samber/lo"
)

// InMemoryStudentStore implements services.StudentStore
type InMemoryStudentStore struct {
	*InMemoryStore[models.Student]
}

func NewInMemoryStudentStore() *InMemoryStudentStore {
	return &InMemoryStudentStore{InMemoryStore: NewInMemoryStore[models.Student]()}
}

func (s *InMemoryStudentStore) Create(_ context.Context, st *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.RollNumber == st.RollNumber {
			return ierr.NewErrorf("roll number %s exists", st.RollNumber).Mark(ierr.ErrAlreadyExists)
		}
	}
	st.ID = s.nextIdentity()
	st.CreatedAt = time.Now()
	st.UpdatedAt = st.CreatedAt
	s.items[st.ID] = *st
	return nil
}

func (s *InMemoryStudentStore) Save(_ context.Context, st *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[st.ID]; !ok {
		return studentNotFound(st.ID)
	}
	st.UpdatedAt = time.Now()
	s.items[st.ID] = *st
	return nil
}

func (s *InMemoryStudentStore) FindByID(_ context.Context, id uint) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.get(id)
	if !ok {
		return nil, studentNotFound(id)
	}
	return &st, nil
}

func (s *InMemoryStudentStore) FindByIDs(_ context.Context, ids []uint) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(func(st models.Student) bool { return lo.Contains(ids, st.ID) }), nil
}

func (s *InMemoryStudentStore) FindByRollNumber(_ context.Context, roll string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := s.list(func(st models.Student) bool { return st.RollNumber == roll })
	if len(found) == 0 {
		return nil, ierr.NewErrorf("student with roll number %s not found", roll).
			WithHint("Student not found").
			Mark(ierr.ErrNotFound)
	}
	return &found[0], nil
}

func (s *InMemoryStudentStore) FindAll(_ context.Context) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(nil), nil
}

func (s *InMemoryStudentStore) FindByStatus(_ context.Context, status models.StudentStatus) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(func(st models.Student) bool { return st.Status == status }), nil
}

func (s *InMemoryStudentStore) Search(_ context.Context, name, className string) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name = strings.ToLower(name)
	return s.list(func(st models.Student) bool {
		if name != "" && !strings.Contains(strings.ToLower(st.Name), name) {
			return false
		}
		return className == "" || st.ClassName == className
	}), nil
}

func (s *InMemoryStudentStore) ExistsByRollNumber(_ context.Context, roll string, excludeID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, st := range s.items {
		if st.RollNumber == roll && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStudentStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.items)), nil
}

func (s *InMemoryStudentStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return studentNotFound(id)
	}
	delete(s.items, id)
	return nil
}

func studentNotFound(id uint) error {
	return ierr.NewErrorf("student %d not found", id).
		WithHint("Student not found").
		Mark(ierr.ErrNotFound)
}
