package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "sentinel/internal/db"
	"sentinel/internal/db/repository"
	"sentinel/internal/domain"
	"sentinel/internal/middleware"
	"sentinel/internal/service/governance"
	"sentinel/internal/service/identity"
	"sentinel/internal/service/security"
	"sentinel/internal/service/system"
	"sentinel/internal/testutil"
)

const (
	testGroupDN = "cn=Admins,ou=Groups,dc=example,dc=test"
	testSecret  = "api-test-secret"
)

func userDN(name string) string { return "cn=" + name + ",ou=Users,dc=example,dc=test" }

// testEnv is a full router over mocked directory and executor ports and a
// real SQLite audit store.
type testEnv struct {
	srv       *httptest.Server
	ident     *testutil.MockIdentityDirectory
	accounts  *testutil.MockAccountDirectory
	admin     *testutil.MockAccountAdmin
	probe     *testutil.MockSystemProbe
	auditRepo *repository.AuditRepo
	tokens    *security.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	members := map[string]bool{userDN("alice"): true}
	passwords := map[string]string{"alice": "alice-pass", "carol": "carol-pass"}
	env := &testEnv{
		ident: &testutil.MockIdentityDirectory{
			FindUserDNFn: func(_ context.Context, username string) (string, error) {
				if _, ok := passwords[username]; !ok {
					return "", domain.ErrNotFound("user %s not found", username)
				}
				return userDN(username), nil
			},
			BindFn: func(_ context.Context, dn, password string) error {
				for u, p := range passwords {
					if userDN(u) == dn && p == password {
						return nil
					}
				}
				return domain.ErrAuthentication("invalid credential")
			},
			IsMemberFn: func(_ context.Context, dn, groupDN string) (bool, error) {
				return groupDN == testGroupDN && members[dn], nil
			},
		},
		accounts: &testutil.MockAccountDirectory{},
		admin:    &testutil.MockAccountAdmin{},
		probe:    &testutil.MockSystemProbe{},
	}

	writeDB, readDB := internaldb.OpenTestSQLite(t)
	env.auditRepo = repository.NewAuditRepo(writeDB, readDB)
	auditSvc := governance.NewAuditService(env.auditRepo, logger)

	tokens, err := security.NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	env.tokens = tokens
	gateway := security.NewGateway(env.ident, tokens, testGroupDN, logger)

	h := NewHandler(
		gateway,
		identity.NewUserService(env.accounts, env.admin, 8),
		identity.NewGroupService(env.accounts, env.admin),
		auditSvc,
		system.NewService(env.probe, nil, env.probe, "test", true),
		logger,
	)
	router := h.Routes(RouteMiddleware{
		Authenticate: middleware.AuthMiddleware(gateway, nil, logger),
		Audit:        middleware.Audit(auditSvc, logger),
		LoginLimit:   middleware.RateLimiter(middleware.RateLimitConfig{RequestsPerSecond: 100, Burst: 100}),
	})

	env.srv = httptest.NewServer(router)
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) token(t *testing.T, username string) string {
	t.Helper()
	tok, err := e.tokens.Issue(username, userDN(username))
	require.NoError(t, err)
	return tok.AccessToken
}

// do sends a request and decodes the JSON response body.
func (e *testEnv) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

// waitForAudit waits until the store holds n entries and returns them
// newest first.
func (e *testEnv) waitForAudit(t *testing.T, n int) []domain.AuditEntry {
	t.Helper()
	var entries []domain.AuditEntry
	require.Eventually(t, func() bool {
		var err error
		var total int64
		entries, total, err = e.auditRepo.List(context.Background(), domain.AuditFilter{})
		return err == nil && total == int64(n)
	}, 2*time.Second, 10*time.Millisecond)
	return entries
}

func TestAPI_UnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "route not found", body["message"])
}

func TestAPI_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodPost, "/users"},
		{http.MethodGet, "/groups"},
		{http.MethodGet, "/computers"},
		{http.MethodGet, "/audit"},
		{http.MethodGet, "/system/status"},
		{http.MethodGet, "/system/dns"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			status, body := env.do(t, p.method, p.path, "", "")
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.InDelta(t, float64(401), body["code"], 0.001)
		})
	}

	status, _ := env.do(t, http.MethodGet, "/users", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Zero(t, env.admin.CallCount())
}

func TestAPI_RejectedMutationIsNotAudited(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodDelete, "/users/bob", "not-a-jwt", "")
	require.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.do(t, http.MethodPost, "/users/bob/disable", "", "")
	require.Equal(t, http.StatusUnauthorized, status)

	// Audit sits behind authentication: nothing ran, so nothing is recorded.
	_, total, err := env.auditRepo.List(context.Background(), domain.AuditFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, env.admin.CallCount())
}

func TestAPI_PublicSystemEndpoints(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, body = env.do(t, http.MethodGet, "/system/info", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, system.AppName, body["appName"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, true, body["dryRun"])
	assert.Contains(t, body, "uptime")
}

func TestAPI_SystemStatus(t *testing.T) {
	env := newTestEnv(t)
	env.probe.HealthFn = func(context.Context) domain.HealthReport {
		return domain.HealthReport{Status: domain.StatusDegraded, Checked: 10, Errors: 2}
	}

	status, body := env.do(t, http.MethodGet, "/system/status", env.token(t, "alice"), "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.StatusDegraded, body["status"])
	health := body["health"].(map[string]any)
	assert.InDelta(t, float64(2), health["errors"], 0.001)
}

func TestAPI_SystemDNS(t *testing.T) {
	env := newTestEnv(t)
	env.probe.DNSFn = func(context.Context) (domain.CommandResult, error) {
		return domain.CommandResult{Stdout: "Server name: dc1.example.test"}, nil
	}

	status, body := env.do(t, http.MethodGet, "/system/dns", env.token(t, "alice"), "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Server name: dc1.example.test", body["out"])

	env.probe.DNSFn = func(context.Context) (domain.CommandResult, error) {
		return domain.CommandResult{}, &domain.CommandExecutionError{ExitCode: 1, Stderr: "dns server unreachable"}
	}
	status, _ = env.do(t, http.MethodGet, "/system/dns", env.token(t, "alice"), "")
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestHTTPStatusFromDomainError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrAuthentication("x"), http.StatusUnauthorized},
		{domain.ErrAuthorization("x"), http.StatusForbidden},
		{domain.ErrNotFound("x"), http.StatusNotFound},
		{domain.ErrValidation("x"), http.StatusBadRequest},
		{domain.ErrConflict("x"), http.StatusConflict},
		{domain.ErrDirectory("search", io.EOF), http.StatusBadGateway},
		{&domain.CommandExecutionError{Reason: "timed out"}, http.StatusBadGateway},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, httpStatusFromDomainError(tt.err), "%T", tt.err)
	}
}

func TestWriteDomainError_HidesInternals(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	rec := httptest.NewRecorder()
	writeDomainError(rec, logger, domain.ErrDirectory("bind", io.EOF))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"code":502,"message":"directory bind failed"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	writeDomainError(rec, logger, io.ErrUnexpectedEOF)
	assert.JSONEq(t, `{"code":500,"message":"internal server error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	writeDomainError(rec, logger, &domain.CommandExecutionError{
		Command: "user disable -- bob", Reason: "non-zero exit", ExitCode: 255, Stderr: "ERROR: no such user",
	})
	assert.JSONEq(t, `{"code":502,"message":"command failed: non-zero exit","stderr":"ERROR: no such user","exitCode":255}`, rec.Body.String())
}
