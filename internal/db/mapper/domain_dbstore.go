// Package mapper provides conversion functions between domain and database types.
package mapper

import (
	"database/sql"
	"encoding/json"
	"time"

	dbstore "sentinel/internal/db/dbstore"
	"sentinel/internal/domain"
)

// TimeLayout is the fixed-width UTC encoding of created_at. Lexical order
// equals chronological order, which the range filters rely on.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime encodes t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(TimeLayout, s)
	return t
}

func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptrStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// NullStrFromPtr converts a *string to sql.NullString.
func NullStrFromPtr(s *string) sql.NullString {
	return nullStr(s)
}

// NullTimeFromPtr converts an optional time to its stored form.
func NullTimeFromPtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatTime(*t), Valid: true}
}

// --- AuditEntry ---

// AuditEntryFromDB converts a dbstore.AuditLog to a domain.AuditEntry.
func AuditEntryFromDB(a dbstore.AuditLog) *domain.AuditEntry {
	var details map[string]any
	if a.Details.Valid && a.Details.String != "" {
		_ = json.Unmarshal([]byte(a.Details.String), &details)
	}
	return &domain.AuditEntry{
		ID:        a.ID,
		Actor:     a.Actor,
		Action:    a.Action,
		Target:    ptrStr(a.Target),
		Details:   details,
		IP:        ptrStr(a.Ip),
		UserAgent: ptrStr(a.UserAgent),
		CreatedAt: parseTime(a.CreatedAt),
	}
}

// AuditEntryToDBParams converts a domain.AuditEntry to dbstore.InsertAuditLogParams for insertion.
func AuditEntryToDBParams(e *domain.AuditEntry) (dbstore.InsertAuditLogParams, error) {
	var details sql.NullString
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return dbstore.InsertAuditLogParams{}, err
		}
		details = sql.NullString{String: string(b), Valid: true}
	}
	return dbstore.InsertAuditLogParams{
		ID:        e.ID,
		Actor:     e.Actor,
		Action:    e.Action,
		Target:    nullStr(e.Target),
		Details:   details,
		Ip:        nullStr(e.IP),
		UserAgent: nullStr(e.UserAgent),
		CreatedAt: FormatTime(e.CreatedAt),
	}, nil
}

// AuditFilterToDB converts a domain.AuditFilter into query predicates.
func AuditFilterToDB(f domain.AuditFilter) dbstore.AuditLogFilter {
	return dbstore.AuditLogFilter{
		Actor:    nullStr(f.Actor),
		Action:   nullStr(f.Action),
		DateFrom: NullTimeFromPtr(f.DateFrom),
		DateTo:   NullTimeFromPtr(f.DateTo),
	}
}
