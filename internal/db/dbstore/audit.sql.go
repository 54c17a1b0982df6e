package dbstore

import (
	"context"
	"database/sql"
)

const insertAuditLog = `
INSERT INTO audit_logs (id, actor, action, target, details, ip, user_agent, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertAuditLogParams are the columns of a new audit row.
type InsertAuditLogParams struct {
	ID        string
	Actor     string
	Action    string
	Target    sql.NullString
	Details   sql.NullString
	Ip        sql.NullString
	UserAgent sql.NullString
	CreatedAt string
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error {
	_, err := q.db.ExecContext(ctx, insertAuditLog,
		arg.ID,
		arg.Actor,
		arg.Action,
		arg.Target,
		arg.Details,
		arg.Ip,
		arg.UserAgent,
		arg.CreatedAt,
	)
	return err
}

const getAuditLog = `
SELECT id, actor, action, target, details, ip, user_agent, created_at
FROM audit_logs
WHERE id = ?
`

func (q *Queries) GetAuditLog(ctx context.Context, id string) (AuditLog, error) {
	row := q.db.QueryRowContext(ctx, getAuditLog, id)
	var i AuditLog
	err := row.Scan(
		&i.ID,
		&i.Actor,
		&i.Action,
		&i.Target,
		&i.Details,
		&i.Ip,
		&i.UserAgent,
		&i.CreatedAt,
	)
	return i, err
}

// Filter columns are NULL when unset; every set column must match.
const auditFilterClause = `
WHERE (?1 IS NULL OR actor = ?1)
  AND (?2 IS NULL OR action = ?2)
  AND (?3 IS NULL OR created_at >= ?3)
  AND (?4 IS NULL OR created_at <= ?4)
`

const countAuditLogs = `SELECT COUNT(*) FROM audit_logs` + auditFilterClause

// AuditLogFilter holds the optional list/count predicates.
type AuditLogFilter struct {
	Actor    sql.NullString
	Action   sql.NullString
	DateFrom sql.NullString
	DateTo   sql.NullString
}

func (q *Queries) CountAuditLogs(ctx context.Context, arg AuditLogFilter) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAuditLogs, arg.Actor, arg.Action, arg.DateFrom, arg.DateTo)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listAuditLogs = `
SELECT id, actor, action, target, details, ip, user_agent, created_at
FROM audit_logs` + auditFilterClause + `
ORDER BY created_at DESC, id DESC
LIMIT ?5 OFFSET ?6
`

// ListAuditLogsParams adds paging to AuditLogFilter.
type ListAuditLogsParams struct {
	AuditLogFilter
	Limit  int64
	Offset int64
}

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.QueryContext(ctx, listAuditLogs,
		arg.Actor,
		arg.Action,
		arg.DateFrom,
		arg.DateTo,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AuditLog{}
	for rows.Next() {
		var i AuditLog
		if err := rows.Scan(
			&i.ID,
			&i.Actor,
			&i.Action,
			&i.Target,
			&i.Details,
			&i.Ip,
			&i.UserAgent,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
