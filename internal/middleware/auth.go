package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"sentinel/internal/domain"
)

// TokenVerifier validates an access token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*domain.TokenClaims, error)
}

// MembershipChecker re-derives group membership for a verified identity.
type MembershipChecker interface {
	Reauthorize(ctx context.Context, dn string) error
}

// AuthMiddleware requires a valid Bearer token. When recheck is non-nil the
// caller's group membership is verified against the directory on every
// request, so a revoked member loses access before the token expires.
func AuthMiddleware(verifier TokenVerifier, recheck MembershipChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized: provide a valid Bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Warn("rejected bearer token", "method", r.Method, "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if recheck != nil {
				if err := recheck.Reauthorize(r.Context(), claims.DN); err != nil {
					var authz *domain.AuthorizationError
					if errors.As(err, &authz) {
						logger.Warn("membership revoked", "user", claims.Subject)
						writeError(w, http.StatusForbidden, "not authorized")
						return
					}
					logger.Error("membership re-check failed", "user", claims.Subject, "error", err)
					writeError(w, http.StatusBadGateway, "directory unavailable")
					return
				}
			}

			ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{
				Username: claims.Subject,
				DN:       claims.DN,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
