package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/config"
	internaldb "sentinel/internal/db"
	"sentinel/internal/directory"
	"sentinel/internal/sambatool"
)

type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingRunner) Run(_ context.Context, _ string, argv []string) (sambatool.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, argv)
	return sambatool.RunResult{Stdout: "ok"}, nil
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testConfig() *config.Config {
	return &config.Config{
		LDAP: config.LDAPConfig{
			URL:          "ldaps://dc1.example.test",
			BindDN:       "cn=svc,dc=example,dc=test",
			BindPassword: "svc-pass",
			SearchBase:   "dc=example,dc=test",
			GroupBaseDN:  "dc=example,dc=test",
			Timeout:      time.Second,
		},
		Auth: config.AuthConfig{
			AuthorizedGroupDN: "cn=Admins,dc=example,dc=test",
			JWTSecret:         "app-test-secret",
			TokenTTL:          time.Hour,
		},
		SambaTool: config.SambaToolConfig{
			Path:              "/usr/bin/samba-tool",
			Timeout:           time.Second,
			MaxOutput:         1 << 16,
			PasswordMinLength: 8,
			DCHost:            "localhost",
		},
		RateLimitRPS:        100,
		RateLimitBurst:      100,
		CORSAllowedOrigins:  []string{"https://admin.example.test"},
		HealthCheckSchedule: "off",
	}
}

func newTestApp(t *testing.T, cfg *config.Config, runner sambatool.Runner) *App {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	a, err := New(Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  slog.New(slog.DiscardHandler),
		Version: "v-test",
		Dialer: func(context.Context, string, time.Duration) (directory.Conn, error) {
			return nil, errors.New("connection refused")
		},
		Runner: runner,
	})
	require.NoError(t, err)
	return a
}

func TestNew_RequiresConfigAndStore(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)

	_, err = New(Deps{Cfg: testConfig()})
	require.Error(t, err)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	a := newTestApp(t, testConfig(), &recordingRunner{})
	assert.Nil(t, a.Monitor)

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, APIPrefix+"/system/info", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var info map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, "v-test", info["version"])
	assert.Equal(t, true, info["dryRun"], "executor disabled means dry-run")
}

func TestRouter_CORS(t *testing.T) {
	a := newTestApp(t, testConfig(), &recordingRunner{})

	req := httptest.NewRequest(http.MethodOptions, APIPrefix+"/users", nil)
	req.Header.Set("Origin", "https://admin.example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://admin.example.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, APIPrefix+"/users", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_LoginDirectoryUnavailable(t *testing.T) {
	a := newTestApp(t, testConfig(), &recordingRunner{})

	req := httptest.NewRequest(http.MethodPost, APIPrefix+"/auth/token", strings.NewReader(`{"username":"alice","password":"pw"}`))
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "svc-pass")
}

func TestRouter_DryRunMutation(t *testing.T) {
	runner := &recordingRunner{}
	a := newTestApp(t, testConfig(), runner)

	req := httptest.NewRequest(http.MethodPost, APIPrefix+"/users/bob/disable", nil)
	req.Header.Set("Authorization", "Bearer "+mustIssue(t, a))
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "[dry-run]")
	assert.Zero(t, runner.count(), "dry-run never spawns")
}

func TestRouter_RecheckMembership(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.RecheckMembership = true
	a := newTestApp(t, cfg, &recordingRunner{})

	req := httptest.NewRequest(http.MethodGet, APIPrefix+"/computers", nil)
	req.Header.Set("Authorization", "Bearer "+mustIssue(t, a))
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)

	// The directory is unreachable, so the re-check fails closed.
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestNew_HealthMonitor(t *testing.T) {
	cfg := testConfig()
	cfg.HealthCheckSchedule = "@every 1h"
	a := newTestApp(t, cfg, &recordingRunner{})
	assert.NotNil(t, a.Monitor)
}

// mustIssue signs a token with the app's secret, standing in for a
// successful login against a live directory.
func mustIssue(t *testing.T, a *App) string {
	t.Helper()
	tok, err := a.Services.Tokens.Issue("alice", "cn=alice,dc=example,dc=test")
	require.NoError(t, err)
	return tok.AccessToken
}
