package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sentinel/internal/api"
	"sentinel/internal/config"
	"sentinel/internal/middleware"
	"sentinel/internal/service/governance"
	"sentinel/internal/service/security"
)

// APIPrefix is where the versioned API is mounted.
const APIPrefix = "/api/v1"

// Credential guessing gets a much smaller budget than ordinary traffic.
const (
	loginRPS   = 0.5
	loginBurst = 10
)

// NewRouter builds the HTTP router with global middleware and mounts the
// API under APIPrefix.
func NewRouter(cfg *config.Config, h *api.Handler, gateway *security.Gateway, audit *governance.AuditService, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger.With("component", "http")))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(2 * time.Minute))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var recheck middleware.MembershipChecker
	if cfg.Auth.RecheckMembership {
		recheck = gateway
	}

	r.Mount(APIPrefix, h.Routes(api.RouteMiddleware{
		Authenticate: middleware.AuthMiddleware(gateway, recheck, logger.With("component", "auth")),
		Audit:        middleware.Audit(audit, logger.With("component", "audit")),
		LoginLimit: middleware.RateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: loginRPS,
			Burst:             loginBurst,
		}),
	}))
	return r
}
