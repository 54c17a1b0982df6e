package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sentinel/internal/domain"
)

const dateOnly = "2006-01-02"

type auditEntryResponse struct {
	ID        string         `json:"id"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Target    *string        `json:"target"`
	Details   map[string]any `json:"details"`
	IP        *string        `json:"ip"`
	UserAgent *string        `json:"userAgent"`
	CreatedAt time.Time      `json:"createdAt"`
}

type auditListResponse struct {
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
	Values []auditEntryResponse `json:"values"`
}

func auditEntryToAPI(e domain.AuditEntry) auditEntryResponse {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	return auditEntryResponse{
		ID:        e.ID,
		Actor:     e.Actor,
		Action:    e.Action,
		Target:    e.Target,
		Details:   details,
		IP:        e.IP,
		UserAgent: e.UserAgent,
		CreatedAt: e.CreatedAt.UTC(),
	}
}

// parseAuditFilter reads actor, action, date_from, date_to, limit and
// offset. Dates are RFC 3339 timestamps or YYYY-MM-DD. Both bounds are
// inclusive; a bare date_to covers that whole day.
func parseAuditFilter(q url.Values) (domain.AuditFilter, error) {
	var f domain.AuditFilter
	if v := q.Get("actor"); v != "" {
		f.Actor = &v
	}
	if v := q.Get("action"); v != "" {
		f.Action = &v
	}

	var err error
	if f.DateFrom, err = parseAuditTime("date_from", q.Get("date_from"), false); err != nil {
		return f, err
	}
	if f.DateTo, err = parseAuditTime("date_to", q.Get("date_to"), true); err != nil {
		return f, err
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, domain.ErrValidation("limit must be a non-negative integer")
		}
		f.Page.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, domain.ErrValidation("offset must be a non-negative integer")
		}
		f.Page.Offset = n
	}
	return f, nil
}

func parseAuditTime(field, v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation(dateOnly, v, time.UTC)
	if err != nil {
		return nil, domain.ErrValidation("%s must be an RFC 3339 timestamp or YYYY-MM-DD", field)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r.URL.Query())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	entries, total, err := h.audit.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	out := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = auditEntryToAPI(e)
	}
	writeJSON(w, http.StatusOK, auditListResponse{
		Total:  total,
		Limit:  filter.Page.EffectiveLimit(),
		Offset: filter.Page.EffectiveOffset(),
		Values: out,
	})
}

func (h *Handler) getAudit(w http.ResponseWriter, r *http.Request) {
	e, err := h.audit.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, auditEntryToAPI(*e))
}
