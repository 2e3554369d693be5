package services

import (
	"context"
	"sort"
	"time"

	"tuition_go/models"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var outstandingStatuses = []models.FeeStatus{models.FeeStatusDue, models.FeeStatusOverdue}

// DashboardStats is a snapshot of the ledger taken at GeneratedAt.
type DashboardStats struct {
	TotalStudents   int64           `json:"total_students"`
	DueFeesToday    int64           `json:"due_fees_today"`
	PaidThisMonth   int64           `json:"paid_this_month"`
	TotalDueAmount  decimal.Decimal `json:"total_due_amount"`
	OverdueCount    int64           `json:"overdue_count"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
	TodayCollection decimal.Decimal `json:"today_collection"`
	MonthCollection decimal.Decimal `json:"month_collection"`
	TotalCollected  decimal.Decimal `json:"total_collected"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// StudentOutstanding is the unpaid total of one student.
type StudentOutstanding struct {
	StudentID  uint            `json:"student_id"`
	Name       string          `json:"name"`
	RollNumber string          `json:"roll_number"`
	Amount     decimal.Decimal `json:"amount"`
	FeeCount   int             `json:"fee_count"`
}

// AggregationService computes read-only totals over the ledger. Nothing is cached.
type AggregationService struct {
	fees     FeeStore
	students StudentStore
	clock    Clock
}

func NewAggregationService(fees FeeStore, students StudentStore, clock Clock) *AggregationService {
	return &AggregationService{fees: fees, students: students, clock: clock}
}

// TotalOutstanding sums DUE and OVERDUE amounts.
func (s *AggregationService) TotalOutstanding(ctx context.Context) (decimal.Decimal, error) {
	return s.fees.SumAmount(ctx, models.FeeQuery{Statuses: outstandingStatuses})
}

// TotalCollected sums PAID amounts.
func (s *AggregationService) TotalCollected(ctx context.Context) (decimal.Decimal, error) {
	return s.fees.SumAmount(ctx, models.FeeQuery{Statuses: []models.FeeStatus{models.FeeStatusPaid}})
}

// TotalCollectedInPeriod sums PAID amounts whose paid date lies in the inclusive range.
func (s *AggregationService) TotalCollectedInPeriod(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	from, to := models.DateOnly(start), models.DateOnly(end)
	if from.After(to) {
		return decimal.Zero, invalidRangeErr(from, to)
	}
	return s.fees.SumAmount(ctx, models.FeeQuery{
		Statuses: []models.FeeStatus{models.FeeStatusPaid},
		PaidFrom: &from,
		PaidTo:   &to,
	})
}

func (s *AggregationService) CountByStatus(ctx context.Context, status models.FeeStatus) (int64, error) {
	return s.fees.Count(ctx, models.FeeQuery{Statuses: []models.FeeStatus{status}})
}

// DashboardSnapshot reads the ledger once and derives every figure from that read
// using a single notion of today.
func (s *AggregationService) DashboardSnapshot(ctx context.Context) (*DashboardStats, error) {
	now := s.clock.Now()
	day := models.DateOnly(now)
	monthStart, monthEnd := MonthBounds(day)

	totalStudents, err := s.students.Count(ctx)
	if err != nil {
		return nil, err
	}
	fees, err := s.fees.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalStudents:   totalStudents,
		TotalDueAmount:  decimal.Zero,
		OverdueAmount:   decimal.Zero,
		TodayCollection: decimal.Zero,
		MonthCollection: decimal.Zero,
		TotalCollected:  decimal.Zero,
		GeneratedAt:     now,
	}
	for _, f := range fees {
		due := models.DateOnly(f.DueDate)
		switch {
		case f.Status.IsOutstanding():
			stats.TotalDueAmount = stats.TotalDueAmount.Add(f.Amount)
			if f.Status == models.FeeStatusDue && due.Equal(day) {
				stats.DueFeesToday++
			}
			if f.IsOverdue(day) {
				stats.OverdueCount++
				stats.OverdueAmount = stats.OverdueAmount.Add(f.Amount)
			}
		case f.Status == models.FeeStatusPaid:
			stats.TotalCollected = stats.TotalCollected.Add(f.Amount)
			if f.PaidDate == nil {
				continue
			}
			paid := models.DateOnly(*f.PaidDate)
			if paid.Equal(day) {
				stats.TodayCollection = stats.TodayCollection.Add(f.Amount)
			}
			if !paid.Before(monthStart) && !paid.After(monthEnd) {
				stats.PaidThisMonth++
				stats.MonthCollection = stats.MonthCollection.Add(f.Amount)
			}
		}
	}
	return stats, nil
}

// OutstandingByStudent groups unpaid amounts per student, largest first.
func (s *AggregationService) OutstandingByStudent(ctx context.Context) ([]StudentOutstanding, error) {
	fees, err := s.fees.List(ctx, models.FeeQuery{Statuses: outstandingStatuses})
	if err != nil {
		return nil, err
	}
	if len(fees) == 0 {
		return []StudentOutstanding{}, nil
	}

	grouped := lo.GroupBy(fees, func(f models.FeeRecord) uint { return f.StudentID })
	ids := lo.Keys(grouped)
	students, err := s.students.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(students, func(st models.Student) uint { return st.ID })

	out := make([]StudentOutstanding, 0, len(grouped))
	for id, records := range grouped {
		row := StudentOutstanding{
			StudentID: id,
			Amount:    SumAmounts(records),
			FeeCount:  len(records),
		}
		if st, ok := byID[id]; ok {
			row.Name = st.Name
			row.RollNumber = st.RollNumber
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

// SumAmounts adds the amounts of the records, zero for none.
func SumAmounts(fees []models.FeeRecord) decimal.Decimal {
	return lo.Reduce(fees, func(acc decimal.Decimal, f models.FeeRecord, _ int) decimal.Decimal {
		return acc.Add(f.Amount)
	}, decimal.Zero)
}
