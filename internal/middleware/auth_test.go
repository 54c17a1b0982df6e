package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/domain"
)

type stubVerifier struct {
	claims *domain.TokenClaims
	err    error
	got    string
}

func (v *stubVerifier) VerifyToken(token string) (*domain.TokenClaims, error) {
	v.got = token
	return v.claims, v.err
}

type stubChecker struct {
	err   error
	calls int
	dn    string
}

func (c *stubChecker) Reauthorize(_ context.Context, dn string) error {
	c.calls++
	c.dn = dn
	return c.err
}

func validClaims() *domain.TokenClaims {
	return &domain.TokenClaims{
		Subject:   "alice",
		DN:        "cn=alice,dc=example,dc=test",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// nextHandler is a simple handler that records the context principal.
func nextHandler() (http.Handler, func() (domain.ContextPrincipal, bool)) {
	var cp domain.ContextPrincipal
	var found bool
	h := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		cp, found = domain.PrincipalFromContext(r.Context())
	})
	return h, func() (domain.ContextPrincipal, bool) { return cp, found }
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	verifier := &stubVerifier{claims: validClaims()}
	next, got := nextHandler()
	handler := AuthMiddleware(verifier, nil, slog.New(slog.DiscardHandler))(next)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-123", verifier.got)
	cp, ok := got()
	require.True(t, ok)
	assert.Equal(t, "alice", cp.Username)
	assert.Equal(t, "cn=alice,dc=example,dc=test", cp.DN)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		verr    error
		wantMsg string
	}{
		{"missing header", "", nil, "unauthorized: provide a valid Bearer token"},
		{"wrong scheme", "Basic YWxpY2U6cGFzcw==", nil, "unauthorized: provide a valid Bearer token"},
		{"empty token", "Bearer   ", nil, "unauthorized: provide a valid Bearer token"},
		{"invalid token", "Bearer bad", domain.ErrAuthentication("invalid or expired token"), "invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &stubVerifier{claims: validClaims(), err: tt.verr}
			next, got := nextHandler()
			handler := AuthMiddleware(verifier, nil, slog.New(slog.DiscardHandler))(next)

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeError(t, rec)
			assert.InDelta(t, float64(401), body["code"], 0.001)
			assert.Equal(t, tt.wantMsg, body["message"])
			_, reached := got()
			assert.False(t, reached)
		})
	}
}

func TestAuthMiddleware_Recheck(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"still a member", nil, http.StatusOK},
		{"membership revoked", domain.ErrAuthorization("not authorized"), http.StatusForbidden},
		{"directory down", domain.ErrDirectory("search", errors.New("connection refused")), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &stubChecker{err: tt.err}
			next, got := nextHandler()
			handler := AuthMiddleware(&stubVerifier{claims: validClaims()}, checker, slog.New(slog.DiscardHandler))(next)

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			req.Header.Set("Authorization", "Bearer tok")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, 1, checker.calls)
			assert.Equal(t, "cn=alice,dc=example,dc=test", checker.dn)
			_, reached := got()
			assert.Equal(t, tt.wantStatus == http.StatusOK, reached)
		})
	}
}

func TestBearerToken_CaseInsensitiveScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc")
	tok, ok := bearerToken(req)
	require.True(t, ok)
	assert.Equal(t, "abc", tok)
}
