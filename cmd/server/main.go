// Package main is the entry point for the sentinel gateway server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sentinel/internal/app"
	"sentinel/internal/config"
	internaldb "sentinel/internal/db"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file (if present)
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Audit store: single-connection write pool, small read pool, migrated.
	store, err := internaldb.Open(cfg.AuditDBPath, 4)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	application, err := app.New(app.Deps{
		Cfg:     cfg,
		WriteDB: store.Write,
		ReadDB:  store.Read,
		Logger:  logger,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("wire app: %w", err)
	}

	if application.Monitor != nil {
		if err := application.Monitor.Start(cfg.HealthCheckSchedule); err != nil {
			return fmt.Errorf("health monitor schedule %q: %w", cfg.HealthCheckSchedule, err)
		}
		defer application.Monitor.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           application.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown. The store is closed by the deferred call above only
	// after in-flight requests and their audit writes have finished.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logger.Info("shutting down")
		gracefulShutdown(srv, application.Services.Audit, 15*time.Second, logger)
	}()

	logger.Info("sentinel listening",
		"addr", cfg.ListenAddr,
		"dry_run", !cfg.SambaTool.Enabled,
		"recheck_membership", cfg.Auth.RecheckMembership,
	)
	logger.Info(fmt.Sprintf("try: curl http://%s%s/health", curlHostForListenAddr(cfg.ListenAddr), app.APIPrefix))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	<-shutdownDone
	logger.Info("shutdown complete")
	return nil
}

type httpShutdowner interface {
	Shutdown(ctx context.Context) error
}

type auditDrainer interface {
	Wait(ctx context.Context) error
}

// gracefulShutdown stops accepting requests, lets in-flight ones finish,
// then waits for their audit writes. Both steps share one deadline.
func gracefulShutdown(srv httpShutdowner, audit auditDrainer, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}
	if err := audit.Wait(ctx); err != nil {
		logger.Error("pending audit writes abandoned", "error", err)
	}
}

// curlHostForListenAddr turns a listen address into a host:port usable from
// the local machine.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
