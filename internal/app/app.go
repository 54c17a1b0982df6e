// Package app provides application-level wiring and dependency injection
// for the sentinel gateway.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"sentinel/internal/api"
	"sentinel/internal/config"
	"sentinel/internal/db/repository"
	"sentinel/internal/directory"
	"sentinel/internal/sambatool"
	"sentinel/internal/service/governance"
	"sentinel/internal/service/identity"
	"sentinel/internal/service/security"
	"sentinel/internal/service/system"
)

// Deps holds the external dependencies that main() must provide.
// Dialer and Runner default to the real LDAP dialer and process runner.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
	Version string

	Dialer directory.Dialer
	Runner sambatool.Runner
}

// Services groups all service pointers that the API handler and router need.
type Services struct {
	Gateway *security.Gateway
	Tokens  *security.TokenIssuer
	Users   *identity.UserService
	Groups  *identity.GroupService
	Audit   *governance.AuditService
	System  *system.Service
}

// App holds the fully-wired application.
type App struct {
	Services Services
	Handler  http.Handler
	Monitor  *system.HealthMonitor // nil when HEALTH_CHECK_SCHEDULE=off
}

// New wires the directory client, executor, services and router from deps.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if deps.WriteDB == nil {
		return nil, errors.New("audit store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// === Directory ===
	dirCfg := directory.Config{
		URL:          cfg.LDAP.URL,
		BindDN:       cfg.LDAP.BindDN,
		BindPassword: cfg.LDAP.BindPassword,
		SearchBase:   cfg.LDAP.SearchBase,
		GroupBaseDN:  cfg.LDAP.GroupBaseDN,
		Timeout:      cfg.LDAP.Timeout,
	}
	var dir *directory.Client
	if deps.Dialer != nil {
		dir = directory.NewWithDialer(dirCfg, deps.Dialer, logger)
	} else {
		dir = directory.New(dirCfg, logger)
	}

	// === samba-tool executor ===
	execCfg := sambatool.Config{
		Path:              cfg.SambaTool.Path,
		Enabled:           cfg.SambaTool.Enabled,
		Timeout:           cfg.SambaTool.Timeout,
		MaxOutput:         cfg.SambaTool.MaxOutput,
		PasswordMinLength: cfg.SambaTool.PasswordMinLength,
		DCHost:            cfg.SambaTool.DCHost,
	}
	var exec *sambatool.Executor
	if deps.Runner != nil {
		exec = sambatool.NewWithRunner(execCfg, deps.Runner, logger)
	} else {
		exec = sambatool.New(execCfg, logger)
	}

	// === Services ===
	tokens, err := security.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	gateway := security.NewGateway(dir, tokens, cfg.Auth.AuthorizedGroupDN, logger)

	auditRepo := repository.NewAuditRepo(deps.WriteDB, deps.ReadDB)
	auditSvc := governance.NewAuditService(auditRepo, logger)

	svcs := Services{
		Gateway: gateway,
		Tokens:  tokens,
		Users:   identity.NewUserService(dir, exec, cfg.SambaTool.PasswordMinLength),
		Groups:  identity.NewGroupService(dir, exec),
		Audit:   auditSvc,
		System:  system.NewService(exec, dir, exec, deps.Version, exec.DryRun()),
	}

	handler := api.NewHandler(svcs.Gateway, svcs.Users, svcs.Groups, svcs.Audit, svcs.System, logger.With("component", "api"))

	var monitor *system.HealthMonitor
	if cfg.HealthMonitorEnabled() {
		monitor = system.NewHealthMonitor(exec, cfg.SambaTool.Timeout*2, logger)
		svcs.System.AttachMonitor(monitor)
	}

	return &App{
		Services: svcs,
		Handler:  NewRouter(cfg, handler, svcs.Gateway, svcs.Audit, logger),
		Monitor:  monitor,
	}, nil
}
