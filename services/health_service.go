package services

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"tuition_go/models"
)

const (
	overallStatusOK       = "ok"
	overallStatusDegraded = "degraded"
	overallStatusCritical = "critical"

	dependencyStatusUp       = "up"
	dependencyStatusDown     = "down"
	dependencyStatusDisabled = "disabled"

	defaultServiceName = "Tuition Fee API"
	defaultVersion     = "1.0.0"
	defaultTimeout     = 1500 * time.Millisecond
)

// LedgerCounter is the part of the fee store the health check reads.
type LedgerCounter interface {
	Count(ctx context.Context, q models.FeeQuery) (int64, error)
}

// ReminderBacklog reports the deliveries waiting in the reminder queue.
type ReminderBacklog interface {
	Queued() bool
	QueueDepth(ctx context.Context) (int64, error)
}

// JobSchedule lists upcoming scheduled jobs.
type JobSchedule interface {
	NextRuns() []ScheduledRun
}

// HealthOptions wires the health service to the running application.
type HealthOptions struct {
	ServiceName string
	Version     string
	Environment string
	Driver      string
	Ledger      LedgerCounter
	Queue       ReminderBacklog
	Scheduler   JobSchedule
	Flags       HealthFlags
	Clock       Clock
}

// HealthService reports whether the fee ledger, reminder queue and billing jobs are working.
type HealthService struct {
	opts      HealthOptions
	startTime time.Time
	timeout   time.Duration
}

type HealthReport struct {
	Status        string             `json:"status"`
	Service       string             `json:"service"`
	Version       string             `json:"version"`
	Environment   string             `json:"environment"`
	Time          time.Time          `json:"time"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	UptimeHuman   string             `json:"uptime_human"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	Schedule      []ScheduledRun     `json:"schedule,omitempty"`
	Runtime       RuntimeMetrics     `json:"runtime"`
	Flags         HealthFlags        `json:"flags"`
}

// DependencyStatus captures the health of one collaborator.
type DependencyStatus struct {
	Name      string                 `json:"name"`
	Status    string                 `json:"status"`
	LatencyMs int64                  `json:"latency_ms"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

type RuntimeMetrics struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	AllocBytes uint64 `json:"alloc_bytes"`
}

// HealthFlags exposes the feature toggles the process started with.
type HealthFlags struct {
	SkipMigrate           bool `json:"skip_migrate"`
	UseRedisNotifications bool `json:"use_redis_notifications"`
	AuthEnabled           bool `json:"auth_enabled"`
	SchedulerEnabled      bool `json:"scheduler_enabled"`
	GenerateOnRegister    bool `json:"generate_fee_on_register"`
}

func NewHealthService(opts HealthOptions) *HealthService {
	if strings.TrimSpace(opts.ServiceName) == "" {
		opts.ServiceName = defaultServiceName
	}
	if strings.TrimSpace(opts.Version) == "" {
		opts.Version = defaultVersion
	}
	if strings.TrimSpace(opts.Environment) == "" {
		opts.Environment = "unknown"
	}
	if opts.Driver == "" {
		opts.Driver = "database"
	}
	if opts.Clock == nil {
		opts.Clock = NewSystemClock(time.UTC)
	}

	return &HealthService{
		opts:      opts,
		startTime: opts.Clock.Now(),
		timeout:   defaultTimeout,
	}
}

// SetStartTime overrides the start time used for uptime calculations.
func (s *HealthService) SetStartTime(t time.Time) {
	if !t.IsZero() {
		s.startTime = t
	}
}

// GetHealthReport checks the ledger and the reminder queue and lists the next job runs.
func (s *HealthService) GetHealthReport(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.opts.Clock.Now()
	uptime := now.Sub(s.startTime)
	if uptime < 0 {
		uptime = 0
	}

	report := HealthReport{
		Status:        overallStatusOK,
		Service:       s.opts.ServiceName,
		Version:       s.opts.Version,
		Environment:   s.opts.Environment,
		Time:          now.UTC(),
		UptimeSeconds: uptime.Seconds(),
		UptimeHuman:   humanizeDuration(uptime),
		Flags:         s.opts.Flags,
	}

	ledger, status := s.checkLedger(ctx)
	report.Dependencies = append(report.Dependencies, ledger)
	report.Status = combineStatus(report.Status, status)

	queue, status := s.checkQueue(ctx)
	report.Dependencies = append(report.Dependencies, queue)
	report.Status = combineStatus(report.Status, status)

	if s.opts.Scheduler != nil {
		report.Schedule = s.opts.Scheduler.NextRuns()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	report.Runtime = RuntimeMetrics{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		AllocBytes: mem.Alloc,
	}
	return report
}

// HTTPStatusForOverall maps a health status to an HTTP status code.
func (s *HealthService) HTTPStatusForOverall(status string) int {
	if status == overallStatusCritical {
		return 503
	}
	return 200
}

// checkLedger counts outstanding fees; a ledger that cannot be read is critical.
func (s *HealthService) checkLedger(ctx context.Context) (DependencyStatus, string) {
	dep := DependencyStatus{Name: s.opts.Driver}
	if s.opts.Ledger == nil {
		dep.Status = dependencyStatusDown
		dep.Error = "fee ledger not configured"
		return dep, overallStatusCritical
	}

	start := time.Now()
	outstanding, err := s.opts.Ledger.Count(ctx, models.FeeQuery{
		Statuses: []models.FeeStatus{models.FeeStatusDue, models.FeeStatusOverdue},
	})
	dep.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		dep.Status = dependencyStatusDown
		dep.Error = err.Error()
		return dep, overallStatusCritical
	}

	dep.Status = dependencyStatusUp
	dep.Details = map[string]interface{}{"outstanding_fees": outstanding}
	return dep, overallStatusOK
}

// checkQueue reads the reminder backlog; queue trouble only degrades the service.
func (s *HealthService) checkQueue(ctx context.Context) (DependencyStatus, string) {
	dep := DependencyStatus{Name: "reminder queue"}
	if s.opts.Queue == nil || !s.opts.Queue.Queued() {
		dep.Status = dependencyStatusDisabled
		if s.opts.Flags.UseRedisNotifications {
			dep.Error = "redis unavailable, reminders are delivered directly"
			return dep, overallStatusDegraded
		}
		return dep, overallStatusOK
	}

	start := time.Now()
	depth, err := s.opts.Queue.QueueDepth(ctx)
	dep.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		dep.Status = dependencyStatusDown
		dep.Error = err.Error()
		return dep, overallStatusDegraded
	}

	dep.Status = dependencyStatusUp
	dep.Details = map[string]interface{}{"pending_deliveries": depth}
	return dep, overallStatusOK
}

func combineStatus(current, candidate string) string {
	order := map[string]int{
		overallStatusOK:       0,
		overallStatusDegraded: 1,
		overallStatusCritical: 2,
	}

	if _, ok := order[current]; !ok {
		current = overallStatusOK
	}
	if v, ok := order[candidate]; ok && v > order[current] {
		return candidate
	}
	return current
}

func humanizeDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}

	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d %= 24 * time.Hour
	hours := d / time.Hour
	d %= time.Hour
	minutes := d / time.Minute
	seconds := (d % time.Minute) / time.Second

	var parts []string
	for _, p := range []struct {
		n    time.Duration
		unit string
	}{{days, "d"}, {hours, "h"}, {minutes, "m"}} {
		if p.n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", p.n, p.unit))
		}
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, " ")
}
