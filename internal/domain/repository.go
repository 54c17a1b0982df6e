package domain

import "context"

// AuditRepository provides append-only storage for audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, int64, error)
	Get(ctx context.Context, id string) (*AuditEntry, error)
}
