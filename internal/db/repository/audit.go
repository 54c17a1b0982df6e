package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dbstore "sentinel/internal/db/dbstore"
	"sentinel/internal/db/mapper"
	"sentinel/internal/domain"
)

// AuditRepo is the SQLite implementation of domain.AuditRepository. Writes
// go through the single-connection write pool, reads through the read pool.
type AuditRepo struct {
	w *dbstore.Queries
	r *dbstore.Queries
}

// NewAuditRepo creates an AuditRepo. readDB may equal writeDB.
func NewAuditRepo(writeDB, readDB *sql.DB) *AuditRepo {
	if readDB == nil {
		readDB = writeDB
	}
	return &AuditRepo{w: dbstore.New(writeDB), r: dbstore.New(readDB)}
}

func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	params, err := mapper.AuditEntryToDBParams(e)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	if err := r.w.InsertAuditLog(ctx, params); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *AuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	where := mapper.AuditFilterToDB(filter)

	total, err := r.r.CountAuditLogs(ctx, where)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	rows, err := r.r.ListAuditLogs(ctx, dbstore.ListAuditLogsParams{
		AuditLogFilter: where,
		Limit:          int64(filter.Page.EffectiveLimit()),
		Offset:         int64(filter.Page.EffectiveOffset()),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	entries := make([]domain.AuditEntry, len(rows))
	for i, row := range rows {
		entries[i] = *mapper.AuditEntryFromDB(row)
	}
	return entries, total, nil
}

func (r *AuditRepo) Get(ctx context.Context, id string) (*domain.AuditEntry, error) {
	row, err := r.r.GetAuditLog(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound("audit entry %q not found", id)
		}
		return nil, fmt.Errorf("get audit log: %w", err)
	}
	return mapper.AuditEntryFromDB(row), nil
}
