// Package sambatool runs the domain controller's administration tool.
// Commands are drawn from a closed allow-list and executed with an explicit
// argument vector; no shell is ever involved.
package sambatool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sentinel/internal/domain"
)

// DryRunMarker prefixes the stdout of commands that were not executed.
const DryRunMarker = "[dry-run]"

const (
	DefaultPath      = "/usr/bin/samba-tool"
	DefaultTimeout   = 30 * time.Second
	DefaultMaxOutput = 1 << 20
)

// Config controls how the tool is executed.
type Config struct {
	Path string
	// Enabled=false puts the executor in dry-run mode.
	Enabled           bool
	Timeout           time.Duration
	MaxOutput         int64
	PasswordMinLength int
	// DCHost is the server operand for domain info and dns serverinfo.
	DCHost string
}

// Executor validates and runs administration commands.
type Executor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// New creates an Executor backed by os/exec.
func New(cfg Config, logger *slog.Logger) *Executor {
	cfg = withDefaults(cfg)
	return NewWithRunner(cfg, ExecRunner{MaxOutput: cfg.MaxOutput}, logger)
}

// NewWithRunner creates an Executor with a custom Runner.
func NewWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Executor {
	return &Executor{cfg: withDefaults(cfg), runner: runner, logger: logger.With("component", "sambatool")}
}

func withDefaults(cfg Config) Config {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = DefaultMaxOutput
	}
	if cfg.PasswordMinLength <= 0 {
		cfg.PasswordMinLength = domain.DefaultPasswordMin
	}
	if cfg.DCHost == "" {
		cfg.DCHost = "localhost"
	}
	return cfg
}

// DryRun reports whether commands are logged instead of executed.
func (e *Executor) DryRun() bool { return !e.cfg.Enabled }

// Execute validates the request against the allow-list and runs it. Nothing
// is spawned unless every check passes.
func (e *Executor) Execute(ctx context.Context, category domain.CommandCategory, action string, args ...string) (domain.CommandResult, error) {
	spec, err := buildSpec(category, action, args, e.cfg.PasswordMinLength)
	if err != nil {
		return domain.CommandResult{}, err
	}
	return e.run(ctx, spec)
}

func (e *Executor) run(ctx context.Context, spec domain.CommandSpec) (domain.CommandResult, error) {
	rendered := spec.String()
	if !e.cfg.Enabled {
		e.logger.Info("dry-run command", "command", rendered)
		return domain.CommandResult{
			Stdout: fmt.Sprintf("%s would execute: samba-tool %s", DryRunMarker, rendered),
			DryRun: true,
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	res, err := e.runner.Run(ctx, e.cfg.Path, spec.Argv)
	elapsed := time.Since(start)
	if err != nil {
		reason := err.Error()
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			reason = fmt.Sprintf("timed out after %s", e.cfg.Timeout)
		case errors.Is(err, ErrOutputLimit):
			reason = fmt.Sprintf("output exceeded %d bytes", e.cfg.MaxOutput)
		case errors.Is(err, context.Canceled):
			reason = "cancelled"
		}
		e.logger.Error("command failed", "command", rendered, "reason", reason, "duration", elapsed)
		return domain.CommandResult{}, &domain.CommandExecutionError{
			Command: rendered,
			Reason:  reason,
			Stdout:  res.Stdout,
			Stderr:  res.Stderr,
		}
	}
	if res.ExitCode != 0 {
		e.logger.Warn("command exited non-zero", "command", rendered, "exit_code", res.ExitCode, "duration", elapsed)
		return domain.CommandResult{}, &domain.CommandExecutionError{
			Command:  rendered,
			Reason:   "non-zero exit",
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}
	e.logger.Info("command executed", "command", rendered, "duration", elapsed)
	return domain.CommandResult{Stdout: res.Stdout, Stderr: res.Stderr}, nil
}

// === Account operations ===

// CreateUser creates a domain account.
func (e *Executor) CreateUser(ctx context.Context, u domain.NewUser) (domain.CommandResult, error) {
	return e.Execute(ctx, domain.CategoryUser, "create",
		u.Username, u.Password, u.GivenName, u.Surname, u.Email, boolArg(u.MustChangeAtNextLogin))
}

// DeleteUser deletes a domain account.
func (e *Executor) DeleteUser(ctx context.Context, username string) (domain.CommandResult, error) {
	return e.Execute(ctx, domain.CategoryUser, "delete", username)
}

// DisableUser disables a domain account.
func (e *Executor) DisableUser(ctx context.Context, username string) (domain.CommandResult, error) {
	return e.Execute(ctx, domain.CategoryUser, "disable", username)
}

// EnableUser enables a domain account.
func (e *Executor) EnableUser(ctx context.Context, username string) (domain.CommandResult, error) {
	return e.Execute(ctx, domain.CategoryUser, "enable", username)
}

// UnlockUser clears an account lockout.
func (e *Executor) UnlockUser(ctx context.Context, username string) (domain.CommandResult, error) {
	return e.Execute(ctx, domain.CategoryUser, "unlock", username)
}

// SetPassword sets a new password.
func (e *Executor) SetPassword(ctx context.Context, username, password string) (domain.CommandResult, error) {
	return e.Execute(ctx, domain.CategoryUser, "setpassword", username, password)
}

// ResetPassword sets a new password that must be changed at next login.
func (e *Executor) ResetPassword(ctx context.Context, username, password string) (domain.CommandResult, error) {
	return e.Execute(ctx, domain.CategoryUser, "setpassword", username, password, "true")
}

// DeleteGroup deletes a group.
func (e *Executor) DeleteGroup(ctx context.Context, name string) (domain.CommandResult, error) {
	return e.Execute(ctx, domain.CategoryGroup, "delete", name)
}

// ListComputers returns the computer account names known to the domain.
func (e *Executor) ListComputers(ctx context.Context) ([]string, error) {
	res, err := e.Execute(ctx, domain.CategoryComputer, "list")
	if err != nil {
		return nil, err
	}
	if res.DryRun {
		return []string{}, nil
	}
	return splitLines(res.Stdout), nil
}

// DNSServerInfo returns the raw DNS server report for the configured DC.
func (e *Executor) DNSServerInfo(ctx context.Context) (domain.CommandResult, error) {
	return e.Execute(ctx, domain.CategoryDNS, "serverinfo", e.cfg.DCHost)
}

func boolArg(b bool) string {
	if b {
		return "true"
	}
	return ""
}

func splitLines(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
