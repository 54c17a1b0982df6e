// Package system reports gateway and domain controller status.
package system

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sentinel/internal/domain"
)

// AppName is reported by Info.
const AppName = "Sentinel Directory Manager"

// Info describes the running gateway.
type Info struct {
	AppName   string    `json:"appName"`
	Version   string    `json:"version"`
	GoVersion string    `json:"goVersion"`
	DryRun    bool      `json:"dryRun"`
	Uptime    int64     `json:"uptime"` // seconds
	Timestamp time.Time `json:"timestamp"`
}

// Status aggregates the domain controller probes.
type Status struct {
	Status    string              `json:"status"`
	Directory *domain.InfoReport  `json:"directory,omitempty"`
	Health    domain.HealthReport `json:"health"`
	Domain    domain.InfoReport   `json:"domain"`
	Level     domain.InfoReport   `json:"level"`
	Scheduled *ScheduledCheck     `json:"scheduled,omitempty"`
	CheckedAt time.Time           `json:"checkedAt"`
}

// ScheduledCheck is the most recent result of the health monitor.
type ScheduledCheck struct {
	domain.HealthReport
	At time.Time `json:"at"`
}

// DirectoryPinger checks that the directory accepts the service bind.
type DirectoryPinger interface {
	Ping(ctx context.Context) error
}

// DNSReporter returns the raw DNS server report of the domain controller.
type DNSReporter interface {
	DNSServerInfo(ctx context.Context) (domain.CommandResult, error)
}

// Service serves system information and status.
type Service struct {
	probe   domain.SystemProbe
	dir     DirectoryPinger
	dns     DNSReporter
	version string
	dryRun  bool
	started time.Time
	now     func() time.Time

	mu      sync.RWMutex
	monitor *HealthMonitor
}

// NewService creates a new Service. dir and dns may be nil; the directory
// probe and DNS report are then unavailable.
func NewService(probe domain.SystemProbe, dir DirectoryPinger, dns DNSReporter, version string, dryRun bool) *Service {
	return &Service{
		probe:   probe,
		dir:     dir,
		dns:     dns,
		version: version,
		dryRun:  dryRun,
		started: time.Now(),
		now:     time.Now,
	}
}

// AttachMonitor makes the monitor's last result part of Status.
func (s *Service) AttachMonitor(m *HealthMonitor) {
	s.mu.Lock()
	s.monitor = m
	s.mu.Unlock()
}

// Info returns static process information.
func (s *Service) Info() Info {
	now := s.now()
	return Info{
		AppName:   AppName,
		Version:   s.version,
		GoVersion: runtime.Version(),
		DryRun:    s.dryRun,
		Uptime:    int64(now.Sub(s.started).Seconds()),
		Timestamp: now.UTC(),
	}
}

// Status runs the directory, health, domain info and level probes
// concurrently. Probes never fail, so neither does Status.
func (s *Service) Status(ctx context.Context) Status {
	var st Status
	g, gctx := errgroup.WithContext(ctx)
	if s.dir != nil {
		g.Go(func() error {
			r := s.directoryReport(gctx)
			st.Directory = &r
			return nil
		})
	}
	g.Go(func() error {
		st.Health = s.probe.Health(gctx)
		return nil
	})
	g.Go(func() error {
		st.Domain = s.probe.DomainInfo(gctx)
		return nil
	})
	g.Go(func() error {
		st.Level = s.probe.DomainLevel(gctx)
		return nil
	})
	_ = g.Wait()

	statuses := []string{st.Health.Status, st.Domain.Status, st.Level.Status}
	if st.Directory != nil {
		statuses = append(statuses, st.Directory.Status)
	}
	st.Status = overall(statuses...)

	s.mu.RLock()
	m := s.monitor
	s.mu.RUnlock()
	if m != nil {
		if r, at, ok := m.Last(); ok {
			st.Scheduled = &ScheduledCheck{HealthReport: r, At: at}
		}
	}

	st.CheckedAt = s.now().UTC()
	return st
}

func (s *Service) directoryReport(ctx context.Context) domain.InfoReport {
	if err := s.dir.Ping(ctx); err != nil {
		return domain.InfoReport{Status: domain.StatusError, Message: err.Error()}
	}
	return domain.InfoReport{Status: domain.StatusHealthy}
}

// DNS returns the domain controller's DNS server report.
func (s *Service) DNS(ctx context.Context) (domain.CommandResult, error) {
	if s.dns == nil {
		return domain.CommandResult{}, domain.ErrNotFound("dns report not available")
	}
	return s.dns.DNSServerInfo(ctx)
}

// overall is the worst of the individual statuses.
func overall(statuses ...string) string {
	rank := map[string]int{
		domain.StatusHealthy:  0,
		domain.StatusUnknown:  1,
		domain.StatusDegraded: 2,
		domain.StatusError:    3,
	}
	worst := domain.StatusHealthy
	for _, s := range statuses {
		if rank[s] > rank[worst] {
			worst = s
		}
	}
	return worst
}
