package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ierr "tuition_go/errors"
	"tuition_go/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	feesSheet    = "Fees"
	summarySheet = "Summary"
	xlsxType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Uploader stores report files in object storage.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// ArchiveStore records uploaded reports.
type ArchiveStore interface {
	Create(ctx context.Context, a *models.ReportArchive) error
	Save(ctx context.Context, a *models.ReportArchive) error
	List(ctx context.Context, limit int) ([]models.ReportArchive, error)
}

// ReportService exports the ledger to Excel workbooks and archives them to S3.
type ReportService struct {
	fees     FeeStore
	students StudentStore
	agg      *AggregationService
	clock    Clock
	uploader Uploader
	archives ArchiveStore
}

func NewReportService(fees FeeStore, students StudentStore, agg *AggregationService, clock Clock) *ReportService {
	return &ReportService{fees: fees, students: students, agg: agg, clock: clock}
}

// SetArchive enables Archive. Both collaborators are required.
func (s *ReportService) SetArchive(uploader Uploader, archives ArchiveStore) {
	s.uploader = uploader
	s.archives = archives
}

// BuildWorkbook writes every fee due in the inclusive range plus a summary sheet.
// It returns the encoded workbook and the number of fee rows.
func (s *ReportService) BuildWorkbook(ctx context.Context, from, to time.Time) (*bytes.Buffer, int, error) {
	start, end := models.DateOnly(from), models.DateOnly(to)
	if start.After(end) {
		return nil, 0, invalidRangeErr(start, end)
	}

	fees, err := s.fees.List(ctx, models.FeeQuery{DueFrom: &start, DueTo: &end})
	if err != nil {
		return nil, 0, err
	}
	ids := lo.Uniq(lo.Map(fees, func(f models.FeeRecord, _ int) uint { return f.StudentID }))
	students, err := s.students.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := lo.KeyBy(students, func(st models.Student) uint { return st.ID })

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", feesSheet); err != nil {
		return nil, 0, workbookErr(err)
	}

	header := []interface{}{"Fee ID", "Student", "Roll Number", "Class", "Amount", "Due Date", "Status", "Paid Date", "Payment Method", "Transaction ID", "Description"}
	if err := f.SetSheetRow(feesSheet, "A1", &header); err != nil {
		return nil, 0, workbookErr(err)
	}

	asOf := today(s.clock)
	for i, fee := range fees {
		st := byID[fee.StudentID]
		paid, method := "", ""
		if fee.PaidDate != nil {
			paid = fee.PaidDate.Format("2006-01-02")
		}
		if fee.PaymentMethod != nil {
			method = string(*fee.PaymentMethod)
		}
		row := []interface{}{
			fee.ID,
			st.Name,
			st.RollNumber,
			st.ClassName,
			fee.Amount.InexactFloat64(),
			fee.DueDate.Format("2006-01-02"),
			string(fee.EffectiveStatus(asOf)),
			paid,
			method,
			fee.TransactionID,
			fee.Description,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(feesSheet, cell, &row); err != nil {
			return nil, 0, workbookErr(err)
		}
	}

	if err := s.writeSummary(ctx, f, start, end, fees, asOf); err != nil {
		return nil, 0, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, workbookErr(err)
	}
	return buf, len(fees), nil
}

func (s *ReportService) writeSummary(ctx context.Context, f *excelize.File, start, end time.Time, fees []models.FeeRecord, asOf time.Time) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return workbookErr(err)
	}

	outstanding, err := s.agg.TotalOutstanding(ctx)
	if err != nil {
		return err
	}
	collected, err := s.agg.TotalCollectedInPeriod(ctx, start, end)
	if err != nil {
		return err
	}
	overdue := lo.Filter(fees, func(fee models.FeeRecord, _ int) bool { return fee.IsOverdue(asOf) })

	rows := [][]interface{}{
		{"Period start", start.Format("2006-01-02")},
		{"Period end", end.Format("2006-01-02")},
		{"Fees due in period", len(fees)},
		{"Amount due in period", SumAmounts(fees).InexactFloat64()},
		{"Overdue in period", len(overdue)},
		{"Collected in period", collected.InexactFloat64()},
		{"Total outstanding", outstanding.InexactFloat64()},
		{"Generated on", asOf.Format("2006-01-02")},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return workbookErr(err)
		}
	}
	return nil
}

// Archive uploads the workbook of the range to S3 and records the upload.
func (s *ReportService) Archive(ctx context.Context, from, to time.Time) (*models.ReportArchive, error) {
	if s.uploader == nil || s.archives == nil {
		return nil, ierr.NewError("report archive not configured").
			WithHint("Report archiving requires S3_BUCKET_NAME").
			Mark(ierr.ErrSystem)
	}

	buf, count, err := s.BuildWorkbook(ctx, from, to)
	if err != nil {
		return nil, err
	}

	start, end := models.DateOnly(from), models.DateOnly(to)
	name := fmt.Sprintf("fees_%s_%s.xlsx", start.Format("20060102"), end.Format("20060102"))
	archive := &models.ReportArchive{
		FileName:    name,
		S3Key:       fmt.Sprintf("reports/%s/%s_%s", start.Format("2006/01"), uuid.NewString(), name),
		StartDate:   start,
		EndDate:     end,
		RecordCount: count,
		FileSize:    int64(buf.Len()),
		Status:      "pending",
	}
	if err := s.archives.Create(ctx, archive); err != nil {
		return nil, err
	}

	if err := s.uploader.Upload(ctx, archive.S3Key, buf.Bytes(), xlsxType); err != nil {
		archive.Status = "failed"
		archive.Error = err.Error()
		if saveErr := s.archives.Save(ctx, archive); saveErr != nil {
			logrus.WithError(saveErr).Error("Failed to record report archive failure")
		}
		return archive, ierr.WithError(err).
			WithHint("Failed to upload report").
			Mark(ierr.ErrSystem)
	}

	archive.Status = "completed"
	if err := s.archives.Save(ctx, archive); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"s3_key":  archive.S3Key,
		"records": count,
		"bytes":   archive.FileSize,
	}).Info("Fee report archived")
	return archive, nil
}

// ArchivePreviousMonth archives the calendar month before today.
func (s *ReportService) ArchivePreviousMonth(ctx context.Context) (*models.ReportArchive, error) {
	first, last := MonthBounds(AddClampedDate(today(s.clock), 0, -1, 0))
	return s.Archive(ctx, first, last)
}

// Today is the report service's current calendar day.
func (s *ReportService) Today() time.Time {
	return today(s.clock)
}

func (s *ReportService) ListArchives(ctx context.Context, limit int) ([]models.ReportArchive, error) {
	if s.archives == nil {
		return []models.ReportArchive{}, nil
	}
	return s.archives.List(ctx, limit)
}

func workbookErr(err error) error {
	return ierr.WithError(err).
		WithHint("Failed to build report workbook").
		Mark(ierr.ErrSystem)
}
