package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	chimw "github.com/go-chi/chi/v5/middleware"

	"sentinel/internal/domain"
)

// AuditRecorder appends audit entries without blocking the caller.
type AuditRecorder interface {
	RecordAsync(ctx context.Context, action, actor string, details map[string]any, meta domain.AuditMeta) <-chan struct{}
}

type auditNoteKey struct{}

// auditNote is filled in by handlers while a mutating request is served.
type auditNote struct {
	mu      sync.Mutex
	action  string
	target  string
	details map[string]any
}

// AnnotateAudit names the action and target of the current request and
// merges details into its audit entry. It is a no-op outside the Audit
// middleware. Sensitive keys are redacted by the recorder.
func AnnotateAudit(ctx context.Context, action, target string, details map[string]any) {
	n, ok := ctx.Value(auditNoteKey{}).(*auditNote)
	if !ok {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if action != "" {
		n.action = action
	}
	if target != "" {
		n.target = target
	}
	for k, v := range details {
		if n.details == nil {
			n.details = make(map[string]any, len(details))
		}
		n.details[k] = v
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Audit records every mutating request after its response has been
// written, whatever the outcome. Reads are never audited. Recording runs
// in the background and failures never reach the client.
func Audit(rec AuditRecorder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			note := &auditNote{}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := context.WithValue(r.Context(), auditNoteKey{}, note)
			r = r.WithContext(ctx)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			note.mu.Lock()
			action := note.action
			if action == "" {
				action = r.Method + " " + r.URL.Path
			}
			details := map[string]any{
				"method":     r.Method,
				"path":       r.URL.Path,
				"statusCode": status,
				"success":    status < 400,
			}
			for k, v := range note.details {
				details[k] = v
			}
			target := note.target
			note.mu.Unlock()

			if id := RequestIDFromContext(ctx); id != "" {
				details["requestId"] = id
			}

			logger.Debug("audit", "action", action, "status", status)
			rec.RecordAsync(ctx, action, domain.ActorFromContext(ctx), details, domain.AuditMeta{
				Target:    target,
				IP:        clientIP(r),
				UserAgent: r.UserAgent(),
			})
		})
	}
}
