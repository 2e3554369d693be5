package services

import (
	"context"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// ScheduleConfig holds cron specs; an empty spec disables the job.
type ScheduleConfig struct {
	BillingSpec  string
	ReminderSpec string
	ArchiveSpec  string
	Location     *time.Location
}

// BillingScheduler runs recurring billing, daily reminders and monthly report archiving.
type BillingScheduler struct {
	cron      *cron.Cron
	generator *FeeGenerator
	reminders *ReminderService
	reports   *ReportService
	clock     Clock
	timeout   time.Duration
	jobs      map[cron.EntryID]string
}

// ScheduledRun is the next firing of a registered job.
type ScheduledRun struct {
	Job  string    `json:"job"`
	Next time.Time `json:"next"`
}

func NewBillingScheduler(cfg ScheduleConfig, generator *FeeGenerator, reminders *ReminderService, reports *ReportService, clock Clock) (*BillingScheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	bs := &BillingScheduler{
		cron:      cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		generator: generator,
		reminders: reminders,
		reports:   reports,
		clock:     clock,
		timeout:   5 * time.Minute,
		jobs:      map[cron.EntryID]string{},
	}

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"recurring-billing", cfg.BillingSpec, bs.RunBilling},
		{"daily-reminders", cfg.ReminderSpec, bs.RunReminders},
		{"report-archive", cfg.ArchiveSpec, bs.RunArchive},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if err := bs.add(job.name, job.spec, job.run); err != nil {
			return nil, err
		}
	}
	return bs, nil
}

func (bs *BillingScheduler) add(name, spec string, run func(ctx context.Context) error) error {
	id, err := bs.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), bs.timeout)
		defer cancel()

		started := time.Now()
		if err := run(ctx); err != nil {
			logrus.WithFields(logrus.Fields{"job": name, "error": err.Error()}).Error("Scheduled job failed")
			return
		}
		logrus.WithFields(logrus.Fields{"job": name, "took": time.Since(started).String()}).Info("Scheduled job finished")
	})
	if err != nil {
		return err
	}
	bs.jobs[id] = name
	logrus.WithFields(logrus.Fields{"job": name, "schedule": spec}).Info("Scheduled job registered")
	return nil
}

// RunBilling bills every active student for the current month.
func (bs *BillingScheduler) RunBilling(ctx context.Context) error {
	periodStart, _ := MonthBounds(today(bs.clock))
	_, err := bs.generator.GenerateRecurringForActive(ctx, periodStart)
	return err
}

// RunReminders dispatches reminders for fees due today.
func (bs *BillingScheduler) RunReminders(ctx context.Context) error {
	_, err := bs.reminders.DispatchReminders(ctx, today(bs.clock))
	return err
}

// RunArchive archives last month's ledger report.
func (bs *BillingScheduler) RunArchive(ctx context.Context) error {
	if bs.reports == nil {
		return nil
	}
	_, err := bs.reports.ArchivePreviousMonth(ctx)
	return err
}

// Entries reports how many jobs are registered.
func (bs *BillingScheduler) Entries() int {
	return len(bs.cron.Entries())
}

// NextRuns lists every job with the time it fires next after the clock's now, soonest first.
func (bs *BillingScheduler) NextRuns() []ScheduledRun {
	now := bs.clock.Now()
	runs := lo.Map(bs.cron.Entries(), func(e cron.Entry, _ int) ScheduledRun {
		return ScheduledRun{Job: bs.jobs[e.ID], Next: e.Schedule.Next(now)}
	})
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Next.Before(runs[j].Next) })
	return runs
}

func (bs *BillingScheduler) Start() {
	bs.cron.Start()
}

// Stop waits for running jobs to finish.
func (bs *BillingScheduler) Stop() {
	<-bs.cron.Stop().Done()
}
