// Package governance records and queries the append-only audit trail.
package governance

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sentinel/internal/domain"
)

// AuditService records administrative actions and serves the audit log.
type AuditService struct {
	repo   domain.AuditRepository
	logger *slog.Logger
	now    func() time.Time

	pending sync.WaitGroup
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo domain.AuditRepository, logger *slog.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger.With("component", "audit"), now: time.Now}
}

// Record appends one entry. Details are redacted before they are stored.
func (s *AuditService) Record(ctx context.Context, action, actor string, details map[string]any, meta domain.AuditMeta) error {
	if actor == "" {
		actor = "unknown"
	}
	e := &domain.AuditEntry{
		ID:        domain.NewID(),
		Actor:     actor,
		Action:    action,
		Target:    optional(meta.Target),
		Details:   Redact(details),
		IP:        optional(meta.IP),
		UserAgent: optional(meta.UserAgent),
		CreatedAt: s.now().UTC(),
	}
	return s.repo.Insert(ctx, e)
}

// RecordAsync records in the background, detached from ctx cancellation.
// Failures are logged and never reach the caller. The returned channel is
// closed once the write has finished.
func (s *AuditService) RecordAsync(ctx context.Context, action, actor string, details map[string]any, meta domain.AuditMeta) <-chan struct{} {
	done := make(chan struct{})
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer close(done)
		if err := s.Record(ctx, action, actor, details, meta); err != nil {
			s.logger.Error("audit write failed", "action", action, "actor", actor, "error", err)
		}
	}()
	return done
}

// Wait blocks until every write started by RecordAsync has finished, or
// ctx is done. Call it after the HTTP server has drained and before the
// audit store is closed.
func (s *AuditService) Wait(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns a filtered, paginated list of audit log entries newest first,
// together with the total number of matches.
func (s *AuditService) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return nil, 0, domain.ErrValidation("date_from must not be after date_to")
	}
	filter.Page = domain.PageRequest{Limit: filter.Page.EffectiveLimit(), Offset: filter.Page.EffectiveOffset()}
	return s.repo.List(ctx, filter)
}

// Get returns a single entry by ID.
func (s *AuditService) Get(ctx context.Context, id string) (*domain.AuditEntry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrValidation("audit id is required")
	}
	return s.repo.Get(ctx, id)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
