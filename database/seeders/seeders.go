package seeders

import (
	"context"
	"log"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/services"

	"github.com/shopspring/decimal"
)

// SeedAll registers demo students through the registry so their first fees are generated too.
func SeedAll(ctx context.Context, registry *services.StudentService) {
	log.Println("Starting database seeding...")

	count, err := registry.Count(ctx)
	if err != nil {
		log.Printf("Seeding skipped, unable to count students: %v", err)
		return
	}
	if count > 0 {
		log.Println("Students already seeded, skipping...")
		return
	}

	SeedStudents(ctx, registry)

	log.Println("Database seeding completed successfully!")
}

// SeedStudents seeds demo students
func SeedStudents(ctx context.Context, registry *services.StudentService) {
	for _, p := range demoStudents() {
		if _, err := registry.Register(ctx, p); err != nil {
			if ierr.IsAlreadyExists(err) {
				continue
			}
			log.Printf("Error seeding student %s: %v", p.RollNumber, err)
		}
	}
}

func demoStudents() []services.StudentProfile {
	joined := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	money := func(v string) *decimal.Decimal {
		d := decimal.RequireFromString(v)
		return &d
	}

	return []services.StudentProfile{
		{
			Name:            "Aarav Sharma",
			RollNumber:      "2024-001",
			Email:           "aarav.sharma@example.com",
			Phone:           "9876500001",
			ParentName:      "Rakesh Sharma",
			ParentPhone:     "+91 98765 10001",
			ParentEmail:     "rakesh.sharma@example.com",
			Department:      "Science",
			ClassName:       "10A",
			Address:         "14 MG Road, Pune",
			JoiningDate:     joined(2024, time.January, 15),
			MonthlyFee:      money("1000.00"),
			DiscountPercent: money("10"),
		},
		{
			Name:        "Diya Patel",
			RollNumber:  "2024-002",
			Email:       "diya.patel@example.com",
			Phone:       "9876500002",
			ParentName:  "Kavita Patel",
			ParentPhone: "+91 98765 10002",
			Department:  "Commerce",
			ClassName:   "11B",
			Address:     "7 Lake View, Ahmedabad",
			JoiningDate: joined(2024, time.January, 31),
			MonthlyFee:  money("1500.00"),
		},
		{
			Name:            "Kabir Singh",
			RollNumber:      "2024-003",
			Email:           "kabir.singh@example.com",
			Phone:           "9876500003",
			ParentName:      "Harpreet Singh",
			ParentPhone:     "+91 98765 10003",
			Department:      "Science",
			ClassName:       "10A",
			Address:         "22 Civil Lines, Ludhiana",
			JoiningDate:     joined(2024, time.February, 1),
			MonthlyFee:      money("1200.00"),
			DiscountPercent: money("25"),
		},
	}
}
