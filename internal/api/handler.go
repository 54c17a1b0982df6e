// Package api exposes the gateway over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sentinel/internal/service/governance"
	"sentinel/internal/service/identity"
	"sentinel/internal/service/security"
	"sentinel/internal/service/system"
)

// Handler implements the HTTP endpoints.
type Handler struct {
	auth   *security.Gateway
	users  *identity.UserService
	groups *identity.GroupService
	audit  *governance.AuditService
	system *system.Service
	logger *slog.Logger
}

// NewHandler creates a new Handler with all service dependencies.
func NewHandler(
	auth *security.Gateway,
	users *identity.UserService,
	groups *identity.GroupService,
	audit *governance.AuditService,
	sys *system.Service,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:   auth,
		users:  users,
		groups: groups,
		audit:  audit,
		system: sys,
		logger: logger,
	}
}

// RouteMiddleware holds the middleware the router applies to route groups.
// Nil entries are skipped.
type RouteMiddleware struct {
	Authenticate func(http.Handler) http.Handler // bearer token check
	Audit        func(http.Handler) http.Handler // mutation capture, runs after Authenticate
	LoginLimit   func(http.Handler) http.Handler // applied to the token endpoint only
}

// Routes returns the versioned API router, to be mounted at /api/v1.
func (h *Handler) Routes(mw RouteMiddleware) chi.Router {
	r := chi.NewRouter()

	// Public
	r.Get("/health", h.health)
	r.Get("/system/info", h.systemInfo)
	r.Group(func(r chi.Router) {
		use(r, mw.LoginLimit)
		r.Post("/auth/token", h.login)
	})

	// Authenticated
	r.Group(func(r chi.Router) {
		use(r, mw.Authenticate)
		use(r, mw.Audit)

		r.Get("/system/status", h.systemStatus)
		r.Get("/system/dns", h.systemDNS)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Post("/", h.createUser)
			r.Route("/{username}", func(r chi.Router) {
				r.Get("/", h.getUser)
				r.Delete("/", h.deleteUser)
				r.Post("/disable", h.disableUser)
				r.Post("/enable", h.enableUser)
				r.Post("/unlock", h.unlockUser)
				r.Post("/setpassword", h.setPassword)
				r.Post("/resetpassword", h.resetPassword)
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.listGroups)
			r.Post("/", h.createGroup)
			r.Route("/{group}", func(r chi.Router) {
				r.Get("/", h.getGroup)
				r.Delete("/", h.deleteGroup)
				r.Get("/members", h.listGroupMembers)
				r.Put("/members/{username}", h.addGroupMember)
				r.Delete("/members/{username}", h.removeGroupMember)
			})
		})

		r.Get("/computers", h.listComputers)

		r.Get("/audit", h.listAudit)
		r.Get("/audit/{id}", h.getAudit)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func use(r chi.Router, mw func(http.Handler) http.Handler) {
	if mw != nil {
		r.Use(mw)
	}
}
