package domain

import "time"

// AuditEntry represents a single, immutable audit log record.
type AuditEntry struct {
	ID        string
	Actor     string
	Action    string
	Target    *string
	Details   map[string]any // already redacted
	IP        *string
	UserAgent *string
	CreatedAt time.Time
}

// AuditMeta carries request metadata attached to an audit entry.
type AuditMeta struct {
	Target    string
	IP        string
	UserAgent string
}

// AuditFilter holds filter parameters for querying audit logs. All set
// fields are combined conjunctively.
type AuditFilter struct {
	Actor    *string
	Action   *string
	DateFrom *time.Time // inclusive
	DateTo   *time.Time // inclusive
	Page     PageRequest
}
