package system

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sentinel/internal/domain"
)

// HealthMonitor runs the database consistency check on a cron schedule and
// logs the outcome. It keeps the most recent report for readers.
type HealthMonitor struct {
	cron    *cron.Cron
	probe   domain.SystemProbe
	timeout time.Duration
	logger  *slog.Logger

	mu   sync.RWMutex
	last *domain.HealthReport
	at   time.Time
}

// NewHealthMonitor creates a monitor. Nothing runs until Start.
func NewHealthMonitor(probe domain.SystemProbe, timeout time.Duration, logger *slog.Logger) *HealthMonitor {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HealthMonitor{
		cron:    cron.New(),
		probe:   probe,
		timeout: timeout,
		logger:  logger.With("component", "health-monitor"),
	}
}

// Start schedules the check and starts the cron loop.
func (m *HealthMonitor) Start(schedule string) error {
	if _, err := m.cron.AddFunc(schedule, m.RunOnce); err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info("health monitor started", "schedule", schedule)
	return nil
}

// Stop stops scheduling and waits for a running check to finish.
func (m *HealthMonitor) Stop() {
	<-m.cron.Stop().Done()
	m.logger.Info("health monitor stopped")
}

// RunOnce performs a single check.
func (m *HealthMonitor) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	r := m.probe.Health(ctx)
	m.mu.Lock()
	m.last = &r
	m.at = time.Now().UTC()
	m.mu.Unlock()

	switch r.Status {
	case domain.StatusHealthy:
		m.logger.Info("scheduled health check", "status", r.Status, "checked", r.Checked)
	case domain.StatusDegraded:
		m.logger.Warn("scheduled health check", "status", r.Status, "checked", r.Checked, "errors", r.Errors)
	default:
		m.logger.Warn("scheduled health check", "status", r.Status, "message", r.Message)
	}
}

// Last returns the most recent report, if any.
func (m *HealthMonitor) Last() (domain.HealthReport, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return domain.HealthReport{}, time.Time{}, false
	}
	return *m.last, m.at, true
}
