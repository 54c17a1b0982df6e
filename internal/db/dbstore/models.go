package dbstore

import "database/sql"

// AuditLog is a row of audit_logs.
type AuditLog struct {
	ID        string
	Actor     string
	Action    string
	Target    sql.NullString
	Details   sql.NullString
	Ip        sql.NullString
	UserAgent sql.NullString
	CreatedAt string
}
