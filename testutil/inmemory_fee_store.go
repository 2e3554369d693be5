package testutil

import (
	"context"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"

	"github.com/shopspring/decimal"
)

// InMemoryFeeStore implements services.FeeStore
type InMemoryFeeStore struct {
	*InMemoryStore[models.FeeRecord]
}

func NewInMemoryFeeStore() *InMemoryFeeStore {
	return &InMemoryFeeStore{InMemoryStore: NewInMemoryStore[models.FeeRecord]()}
}

func (s *InMemoryFeeStore) Create(_ context.Context, f *models.FeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.ID = s.nextIdentity()
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	s.items[f.ID] = copyFee(*f)
	return nil
}

func (s *InMemoryFeeStore) Save(_ context.Context, f *models.FeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[f.ID]; !ok {
		return feeNotFound(f.ID)
	}
	f.UpdatedAt = time.Now()
	s.items[f.ID] = copyFee(*f)
	return nil
}

func (s *InMemoryFeeStore) FindByID(_ context.Context, id uint) (*models.FeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.get(id)
	if !ok {
		return nil, feeNotFound(id)
	}
	c := copyFee(f)
	return &c, nil
}

func (s *InMemoryFeeStore) FindAll(_ context.Context) ([]models.FeeRecord, error) {
	return s.List(context.Background(), models.FeeQuery{})
}

func (s *InMemoryFeeStore) Exists(_ context.Context, id uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok, nil
}

func (s *InMemoryFeeStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return feeNotFound(id)
	}
	delete(s.items, id)
	return nil
}

func (s *InMemoryFeeStore) DeleteByStudent(_ context.Context, studentID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, f := range s.items {
		if f.StudentID == studentID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *InMemoryFeeStore) List(_ context.Context, q models.FeeQuery) ([]models.FeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.list(q.Matches)
	for i := range out {
		out[i] = copyFee(out[i])
	}
	return out, nil
}

func (s *InMemoryFeeStore) SumAmount(ctx context.Context, q models.FeeQuery) (decimal.Decimal, error) {
	fees, _ := s.List(ctx, q)
	sum := decimal.Zero
	for _, f := range fees {
		sum = sum.Add(f.Amount)
	}
	return sum, nil
}

func (s *InMemoryFeeStore) Count(ctx context.Context, q models.FeeQuery) (int64, error) {
	fees, _ := s.List(ctx, q)
	return int64(len(fees)), nil
}

func (s *InMemoryFeeStore) MarkPaid(_ context.Context, id uint, paidDate time.Time, method *models.PaymentMethod, transactionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.items[id]
	if !ok {
		return false, feeNotFound(id)
	}
	if f.Status == models.FeeStatusPaid {
		return false, nil
	}
	f.Status = models.FeeStatusPaid
	f.PaidDate = &paidDate
	if method != nil {
		m := *method
		f.PaymentMethod = &m
	}
	if transactionID != "" {
		f.TransactionID = transactionID
	}
	f.UpdatedAt = time.Now()
	s.items[id] = f
	return true, nil
}

// Put stores a record as given, keeping its id, for seeding states the services never write.
func (s *InMemoryFeeStore) Put(f models.FeeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID == 0 {
		f.ID = s.nextIdentity()
	} else if f.ID > s.nextID {
		s.nextID = f.ID
	}
	s.items[f.ID] = copyFee(f)
}

func copyFee(f models.FeeRecord) models.FeeRecord {
	if f.PaidDate != nil {
		d := *f.PaidDate
		f.PaidDate = &d
	}
	if f.PaymentMethod != nil {
		m := *f.PaymentMethod
		f.PaymentMethod = &m
	}
	return f
}

func feeNotFound(id uint) error {
	return ierr.NewErrorf("fee record %d not found", id).
		WithHint("Fee record not found").
		Mark(ierr.ErrNotFound)
}
