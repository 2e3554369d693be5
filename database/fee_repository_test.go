package database

import (
	"testing"
	"time"

	"tuition_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pw@tcp(127.0.0.1:3306)/tuition?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestApplyQueryBuildsFilters(t *testing.T) {
	db := dryRunDB(t)
	studentID := uint(7)
	day := time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)

	stmt := applyQuery(db.Model(&models.FeeRecord{}), models.FeeQuery{
		StudentID: &studentID,
		Statuses:  []models.FeeStatus{models.FeeStatusDue, models.FeeStatusOverdue},
		DueBefore: &day,
	}).Find(&[]models.FeeRecord{}).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "student_id = ?")
	assert.Contains(t, sql, "status IN (?,?)")
	assert.Contains(t, sql, "due_date < ?")
	assert.NotContains(t, sql, "paid_date")
	assert.Equal(t, []interface{}{studentID, models.FeeStatusDue, models.FeeStatusOverdue, day}, stmt.Vars)
}

func TestApplyQueryPaidRange(t *testing.T) {
	db := dryRunDB(t)
	from := time.Date(2024, time.February, 1, 13, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)

	stmt := applyQuery(db.Model(&models.FeeRecord{}), models.FeeQuery{PaidFrom: &from, PaidTo: &to}).
		Find(&[]models.FeeRecord{}).Statement

	assert.Contains(t, stmt.SQL.String(), "paid_date >= ? AND paid_date <= ?")
	assert.Equal(t, []interface{}{models.DateOnly(from), to}, stmt.Vars)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now`, escapeLike("50% off_now"))
}
